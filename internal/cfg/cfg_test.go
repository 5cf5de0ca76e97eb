package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 8050, settings.HTTPPort)
				assert.Equal(t, "artifacts", settings.ArtifactsDir)
				assert.Equal(t, "DataSet.xlsx", settings.DatasetPath)
				assert.Equal(t, "", settings.DatasetSheet)
				assert.Equal(t, "data", settings.DataPath)
				assert.Equal(t, 15, settings.PageSize)
				assert.Equal(t, "info", settings.LogLevel)
				assert.Equal(t, "json", settings.LogFormat)
				assert.Equal(t, 10*time.Second, settings.ReadTimeout)
				assert.Equal(t, 10*time.Second, settings.ShutdownTimeout)
				assert.Equal(t, "Report.txt", settings.ReportName)
				assert.Equal(t, ":8050", settings.Addr())
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"HTTP_PORT":     "9000",
				"ARTIFACTS_DIR": "/models",
				"DATASET_PATH":  "/data/sales.csv",
				"DATASET_SHEET": "Sheet2",
				"PAGE_SIZE":     "25",
				"LOG_LEVEL":     "DEBUG",
				"LOG_FORMAT":    "console",
				"READ_TIMEOUT":  "3s",
			},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 9000, settings.HTTPPort)
				assert.Equal(t, "/models", settings.ArtifactsDir)
				assert.Equal(t, "/data/sales.csv", settings.DatasetPath)
				assert.Equal(t, "Sheet2", settings.DatasetSheet)
				assert.Equal(t, 25, settings.PageSize)
				assert.Equal(t, "debug", settings.LogLevel)
				assert.Equal(t, "console", settings.LogFormat)
				assert.Equal(t, 3*time.Second, settings.ReadTimeout)
			},
		},
		{
			name:    "store disabled",
			envVars: map[string]string{"DATA_PATH": "none"},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "", settings.DataPath)
			},
		},
		{
			name:    "unparsable values fall back to defaults",
			envVars: map[string]string{"HTTP_PORT": "eighty", "READ_TIMEOUT": "soon"},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 8050, settings.HTTPPort)
				assert.Equal(t, 10*time.Second, settings.ReadTimeout)
			},
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"HTTP_PORT": "80"},
			wantErr: true,
		},
		{
			name:    "page size out of range",
			envVars: map[string]string{"PAGE_SIZE": "0"},
			wantErr: true,
		},
		{
			name:    "bad log format",
			envVars: map[string]string{"LOG_FORMAT": "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
server:
  port: 9100
  readTimeout: "5s"
  writeTimeout: "20s"
  shutdownTimeout: "3s"
artifacts:
  dir: "/srv/artifacts"
dataset:
  path: "/srv/DataSet.xlsx"
  sheet: "Online Retail"
  pageSize: 30
system:
  dataPath: "/var/lib/dashboard"
  logLevel: "warn"
  logFormat: "console"
  reportName: "Summary.txt"
`,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 9100, settings.HTTPPort)
				assert.Equal(t, 5*time.Second, settings.ReadTimeout)
				assert.Equal(t, 20*time.Second, settings.WriteTimeout)
				assert.Equal(t, 3*time.Second, settings.ShutdownTimeout)
				assert.Equal(t, "/srv/artifacts", settings.ArtifactsDir)
				assert.Equal(t, "/srv/DataSet.xlsx", settings.DatasetPath)
				assert.Equal(t, "Online Retail", settings.DatasetSheet)
				assert.Equal(t, 30, settings.PageSize)
				assert.Equal(t, "/var/lib/dashboard", settings.DataPath)
				assert.Equal(t, "warn", settings.LogLevel)
				assert.Equal(t, "console", settings.LogFormat)
				assert.Equal(t, "Summary.txt", settings.ReportName)
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
server:
  port: 9100
dataset:
  pageSize: 30
`,
			envOverrides: map[string]string{
				"HTTP_PORT": "9200",
				"PAGE_SIZE": "40",
			},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 9200, settings.HTTPPort)
				assert.Equal(t, 40, settings.PageSize)
				assert.Equal(t, "artifacts", settings.ArtifactsDir, "default fills the gap")
			},
		},
		{
			name: "YAML out of range",
			yamlContent: `
dataset:
  pageSize: 10000
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.yamlContent), 0o644))

			settings, err := loadFromYAML(configPath)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("HTTP_PORT", "8123")

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8123, settings.HTTPPort)
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8124\n"), 0o644))
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8124, settings.HTTPPort)
	})

	t.Run("missing config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("HTTP_PORT", "8200")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=8300\n"), 0o644))

	loadDotEnv(path)
	assert.Equal(t, "8200", os.Getenv("HTTP_PORT"), "process env wins over .env")

	loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "HTTP_PORT", "ARTIFACTS_DIR", "DATASET_PATH", "DATASET_SHEET",
		"DATA_PATH", "PAGE_SIZE", "LOG_LEVEL", "LOG_FORMAT", "READ_TIMEOUT",
		"WRITE_TIMEOUT", "SHUTDOWN_TIMEOUT", "REPORT_NAME",
	}

	for _, env := range envVars {
		t.Setenv(env, "")
	}
}
