package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"demand-dashboard/internal/common"
)

// Load reads settings from CONFIG_FILE when set, otherwise from the environment.
// A .env file in the working directory is applied first if present.
func Load() (Settings, error) {
	loadDotEnv(".env")

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

// loadDotEnv never overrides variables already set in the process environment
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if they exist
	settings := Settings{
		HTTPPort:        getIntFromEnvOrConfig(common.EnvHTTPPort, config.Server.Port, common.DefaultHTTPPort),
		ArtifactsDir:    getStringFromEnvOrConfig(common.EnvArtifactsDir, config.Artifacts.Dir, common.DefaultArtifactsDir),
		DatasetPath:     getStringFromEnvOrConfig(common.EnvDatasetPath, config.Dataset.Path, common.DefaultDatasetPath),
		DatasetSheet:    getStringFromEnvOrConfig(common.EnvDatasetSheet, config.Dataset.Sheet, ""),
		DataPath:        getStringFromEnvOrConfig(common.EnvDataPath, config.System.DataPath, common.DefaultDataPath),
		PageSize:        getIntFromEnvOrConfig(common.EnvPageSize, config.Dataset.PageSize, common.DefaultPageSize),
		LogLevel:        strings.ToLower(getStringFromEnvOrConfig(common.EnvLogLevel, config.System.LogLevel, common.DefaultLogLevel)),
		LogFormat:       strings.ToLower(getStringFromEnvOrConfig(common.EnvLogFormat, config.System.LogFormat, common.DefaultLogFormat)),
		ReadTimeout:     getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, common.DefaultReadTimeoutSec*time.Second),
		WriteTimeout:    getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, common.DefaultWriteTimeoutSec*time.Second),
		ShutdownTimeout: getDurationFromEnvOrConfig(common.EnvShutdownTimeout, config.Server.ShutdownTimeout, common.DefaultShutdownSec*time.Second),
		ReportName:      getStringFromEnvOrConfig(common.EnvReportName, config.System.ReportName, common.DefaultReportName),
	}

	settings.normalize()

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		HTTPPort:        getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		ArtifactsDir:    getEnvOrDefault(common.EnvArtifactsDir, common.DefaultArtifactsDir),
		DatasetPath:     getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		DatasetSheet:    os.Getenv(common.EnvDatasetSheet), // optional, first sheet otherwise
		DataPath:        getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		PageSize:        getIntOrDefault(common.EnvPageSize, common.DefaultPageSize),
		LogLevel:        strings.ToLower(getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel)),
		LogFormat:       strings.ToLower(getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat)),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, common.DefaultReadTimeoutSec*time.Second),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, common.DefaultWriteTimeoutSec*time.Second),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, common.DefaultShutdownSec*time.Second),
		ReportName:      getEnvOrDefault(common.EnvReportName, common.DefaultReportName),
	}

	settings.normalize()

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getStringFromEnvOrConfig(key, configValue, defaultValue string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}
