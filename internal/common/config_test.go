package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verto.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Queue.MaxRetries)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.Equal(t, 5, cfg.QA.SoftPurityCount)
	assert.Equal(t, TranslatorProviderGemini, cfg.Translator.DefaultProvider)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromFilesLaterOverridesEarlier(t *testing.T) {
	base := writeConfigFile(t, `
environment = "production"

[worker]
count = 8

[gates]
harvest_threshold = 0.95
`)
	override := writeConfigFile(t, `
[worker]
count = 2
`)

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2, cfg.Worker.Count, "later file must win")
	assert.Equal(t, 0.95, cfg.Gates.HarvestThreshold)
	// Untouched settings keep their defaults
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[gemini]
api_key = "from-file"
`)
	t.Setenv("VERTO_GEMINI_API_KEY", "from-env")
	t.Setenv("VERTO_LOG_LEVEL", "debug")

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestProviderFallbackEnvKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "plain-gemini")
	t.Setenv("ANTHROPIC_API_KEY", "plain-anthropic")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "plain-gemini", cfg.Gemini.APIKey)
	assert.Equal(t, "plain-anthropic", cfg.Claude.APIKey)
}

func TestFlagOverridesBeatEverything(t *testing.T) {
	t.Setenv("VERTO_STORAGE_PATH", "/env/path")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	require.Equal(t, "/env/path", cfg.Storage.Badger.Path)

	ApplyFlagOverrides(cfg, "/flag/path", 16)
	assert.Equal(t, "/flag/path", cfg.Storage.Badger.Path)
	assert.Equal(t, 16, cfg.Worker.Count)

	// Zero values leave config untouched
	ApplyFlagOverrides(cfg, "", 0)
	assert.Equal(t, "/flag/path", cfg.Storage.Badger.Path)
	assert.Equal(t, 16, cfg.Worker.Count)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive max retries", func(c *Config) { c.Queue.MaxRetries = 0 }},
		{"inverted length band", func(c *Config) { c.QA.LengthRatioMin = 9.0 }},
		{"bad duration", func(c *Config) { c.Worker.StuckTimeout = "soon" }},
		{"unknown provider", func(c *Config) { c.Translator.DefaultProvider = "gpt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationHelpersFallBackOnGarbage(t *testing.T) {
	w := &WorkerConfig{HeartbeatInterval: "250ms", IdleBackoff: "nope", StuckTimeout: ""}

	assert.Equal(t, 250*time.Millisecond, w.HeartbeatIntervalDuration())
	assert.Equal(t, 2*time.Second, w.IdleBackoffDuration())
	assert.Equal(t, 2*time.Minute, w.StuckTimeoutDuration())
}

func TestGlossaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
"卷积神经网络" = "convolutional neural network"
"强化学习" = "reinforcement learning"
`), 0644))

	glossary, err := LoadGlossary(path)
	require.NoError(t, err)
	assert.Len(t, glossary, 2)
	assert.Equal(t, "reinforcement learning", glossary["强化学习"])

	// Missing file is not an error, just no glossary
	glossary, err = LoadGlossary(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, glossary)
}
