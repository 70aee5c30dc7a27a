package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Download.SkipExisting)
	assert.Equal(t, 2*time.Second, cfg.Download.Delay)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Canvas.Headless)
	assert.GreaterOrEqual(t, cfg.Retry.MaxAttempts, 1)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
canvas:
  base_url: https://canvas.example.edu
  username: student
download:
  dir: /tmp/mirror
  skip_existing: false
  delay: 500ms
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://canvas.example.edu", cfg.Canvas.BaseURL)
	assert.Equal(t, "student", cfg.Canvas.Username)
	assert.Equal(t, "/tmp/mirror", cfg.Download.Dir)
	assert.False(t, cfg.Download.SkipExisting)
	assert.Equal(t, 500*time.Millisecond, cfg.Download.Delay)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("HOME", t.TempDir())
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CANVASGRAB_URL", "https://canvas.school.edu")
	t.Setenv("CANVASGRAB_USERNAME", "alice")
	t.Setenv("CANVASGRAB_SKIP_EXISTING", "false")
	t.Setenv("CANVASGRAB_DELAY_SECONDS", "1.5")
	t.Setenv("CANVASGRAB_DEBUG", "true")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://canvas.school.edu", cfg.Canvas.BaseURL)
	assert.Equal(t, "alice", cfg.Canvas.Username)
	assert.False(t, cfg.Download.SkipExisting)
	assert.Equal(t, 1500*time.Millisecond, cfg.Download.Delay)
	assert.True(t, cfg.Logging.Debug)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Canvas.BaseURL = "https://canvas.example.edu"

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"url":      "https://canvas.override.edu",
		"output":   "/mnt/archive",
		"no-skip":  true,
		"delay":    float64(0),
		"debug":    true,
		"username": "bob",
	})

	assert.Equal(t, "https://canvas.override.edu", cfg.Canvas.BaseURL)
	assert.Equal(t, "/mnt/archive", cfg.Download.Dir)
	assert.False(t, cfg.Download.SkipExisting)
	assert.Equal(t, time.Duration(0), cfg.Download.Delay)
	assert.Equal(t, "bob", cfg.Canvas.Username)
	// debug forces the level
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Canvas.BaseURL = "https://canvas.example.edu"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing url", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "canvas URL is required")
	})

	t.Run("relative url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Canvas.BaseURL = "canvas.example.edu/courses"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Canvas.BaseURL = "https://canvas.example.edu"
		cfg.Logging.Level = "loud"
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative delay", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Canvas.BaseURL = "https://canvas.example.edu"
		cfg.Download.Delay = -time.Second
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas:\n  base_url: https://file.example.edu\n"), 0600))

	t.Setenv("CANVASGRAB_URL", "https://env.example.edu")

	cfg, err := Load(path, map[string]interface{}{"url": "https://flag.example.edu"})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.edu", cfg.Canvas.BaseURL)

	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.edu", cfg.Canvas.BaseURL)
}
