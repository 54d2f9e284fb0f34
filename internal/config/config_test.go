package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "devhud", cfg.AppName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "localhost", cfg.Hostname)
	assert.Equal(t, "http", cfg.Protocol)
	assert.False(t, cfg.Plain)
}

func TestMergeConfigs(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name    string
		overlay Config
		check   func(t *testing.T, merged Config)
	}{
		{
			name:    "empty overlay keeps base",
			overlay: Config{},
			check: func(t *testing.T, merged Config) {
				assert.Equal(t, base, merged)
			},
		},
		{
			name:    "port override",
			overlay: Config{Port: 8080},
			check: func(t *testing.T, merged Config) {
				assert.Equal(t, 8080, merged.Port)
				assert.Equal(t, base.Hostname, merged.Hostname)
			},
		},
		{
			name:    "full override",
			overlay: Config{AppName: "myapp", Port: 4000, Hostname: "0.0.0.0", Protocol: "https", Plain: true},
			check: func(t *testing.T, merged Config) {
				assert.Equal(t, "myapp", merged.AppName)
				assert.Equal(t, 4000, merged.Port)
				assert.Equal(t, "0.0.0.0", merged.Hostname)
				assert.Equal(t, "https", merged.Protocol)
				assert.True(t, merged.Plain)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mergeConfigs(base, tt.overlay))
		})
	}
}

func withConfigDirs(t *testing.T) (home, project string) {
	t.Helper()

	home = t.TempDir()
	project = t.TempDir()

	origHome := osUserHomeDir
	origGetwd := osGetwd
	osUserHomeDir = func() (string, error) { return home, nil }
	osGetwd = func() (string, error) { return project, nil }
	t.Cleanup(func() {
		osUserHomeDir = origHome
		osGetwd = origGetwd
	})

	return home, project
}

func writeConfigFile(t *testing.T, dir, sub, content string) {
	t.Helper()
	confDir := filepath.Join(dir, sub)
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(confDir, configFileName), []byte(content), 0o644))
}

func TestLoad_DefaultsWhenNoFiles(t *testing.T) {
	withConfigDirs(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	home, _ := withConfigDirs(t)
	writeConfigFile(t, home, userConfigDir, "port: 5000\nhostname: dev.local\n")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "dev.local", cfg.Hostname)
	assert.Equal(t, "devhud", cfg.AppName)
}

func TestLoad_ProjectConfigOverridesUser(t *testing.T) {
	home, project := withConfigDirs(t)
	writeConfigFile(t, home, userConfigDir, "port: 5000\nappName: userapp\n")
	writeConfigFile(t, project, projectConfigDir, "port: 6000\n")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "userapp", cfg.AppName)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	_, project := withConfigDirs(t)
	writeConfigFile(t, project, projectConfigDir, "port: [not a number\n")

	_, err := Load()

	assert.Error(t, err)
}
