package cfg

import (
	"fmt"
	"strings"
	"time"

	"demand-dashboard/internal/common"
)

type Settings struct {
	HTTPPort        int
	ArtifactsDir    string
	DatasetPath     string
	DatasetSheet    string
	DataPath        string
	PageSize        int
	LogLevel        string
	LogFormat       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ReportName      string
}

// Addr is the listen address for the dashboard server
func (s Settings) Addr() string {
	return fmt.Sprintf(":%d", s.HTTPPort)
}

// DataPathNone disables the on-disk dataset store
const DataPathNone = "none"

func (s *Settings) normalize() {
	if strings.EqualFold(s.DataPath, DataPathNone) {
		s.DataPath = ""
	}
}

type ConfigFile struct {
	Server struct {
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"readTimeout"`
		WriteTimeout    string `yaml:"writeTimeout"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Artifacts struct {
		Dir string `yaml:"dir"`
	} `yaml:"artifacts"`

	Dataset struct {
		Path     string `yaml:"path"`
		Sheet    string `yaml:"sheet"`
		PageSize int    `yaml:"pageSize"`
	} `yaml:"dataset"`

	System struct {
		DataPath   string `yaml:"dataPath"`
		LogLevel   string `yaml:"logLevel"`
		LogFormat  string `yaml:"logFormat"`
		ReportName string `yaml:"reportName"`
	} `yaml:"system"`
}

// validateSettings checks every value against its allowed range
func validateSettings(settings *Settings) error {
	if settings.ArtifactsDir == "" {
		return fmt.Errorf(common.ErrMsgArtifactsDirRequired)
	}
	if settings.DatasetPath == "" {
		return fmt.Errorf(common.ErrMsgDatasetPathRequired)
	}

	if settings.HTTPPort < common.MinHTTPPort || settings.HTTPPort > common.MaxHTTPPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d", common.MinHTTPPort, common.MaxHTTPPort, settings.HTTPPort)
	}
	if settings.PageSize < common.MinPageSize || settings.PageSize > common.MaxPageSize {
		return fmt.Errorf("page size must be between %d and %d, got %d", common.MinPageSize, common.MaxPageSize, settings.PageSize)
	}

	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 1m, got %v", settings.ShutdownTimeout)
	}

	switch settings.LogFormat {
	case common.LogFormatJSON, common.LogFormatConsole:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q", common.LogFormatJSON, common.LogFormatConsole, settings.LogFormat)
	}
	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	if settings.ReportName == "" {
		return fmt.Errorf("report name cannot be empty")
	}

	return nil
}
