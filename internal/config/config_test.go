package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, DefaultNamespace, cfg.Namespace)
	assert.Equal(t, '|', cfg.DelimiterRune())
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Reconnect.BaseDelay)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: /data/silo.db
user_id: 7
default_silo: 42
delimiter: ","
reconnect:
  max_attempts: 5
  base_delay: 250ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/silo.db", cfg.Database)
	assert.Equal(t, int64(7), cfg.UserID)
	assert.Equal(t, int64(42), cfg.DefaultSilo)
	assert.Equal(t, ',', cfg.DelimiterRune())
	assert.Equal(t, DefaultNamespace, cfg.Namespace)
	assert.Equal(t, 5, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Reconnect.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Reconnect.MaxDelay)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "database: [unclosed"},
		{"long delimiter", `delimiter: "||"`},
		{"negative attempts", "reconnect:\n  max_attempts: -1"},
		{"inverted delays", "reconnect:\n  base_delay: 5s\n  max_delay: 1s"},
		{"negative rate", "reconnect:\n  rate: -2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.DefaultSilo = 9
	cfg.UserID = 3

	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "silo", "config.yaml"), DefaultPath())
}
