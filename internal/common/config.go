package common

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Queue       QueueConfig      `toml:"queue"`
	Worker      WorkerConfig     `toml:"worker"`
	QA          QAConfig         `toml:"qa"`
	Gates       GatesConfig      `toml:"gates"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Translator  TranslatorConfig `toml:"translator"`
	Logging     LoggingConfig    `toml:"logging"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// QueueConfig controls job store behavior.
type QueueConfig struct {
	MaxRetries int `toml:"max_retries"` // Job-level attempts before a job becomes failed
}

// WorkerConfig controls the worker fleet.
type WorkerConfig struct {
	Count             int    `toml:"count"`               // Number of workers to run
	HeartbeatInterval string `toml:"heartbeat_interval"`  // e.g. "10s" - liveness signal interval
	IdleBackoff       string `toml:"idle_backoff"`        // e.g. "2s" - sleep after an empty claim
	IdleExitThreshold int    `toml:"idle_exit_threshold"` // Consecutive empty claims before a worker exits
	StuckTimeout      string `toml:"stuck_timeout"`       // e.g. "2m" - heartbeat age before a job is reclaimed
	StuckSweepSchedule string `toml:"stuck_sweep_schedule"` // Cron schedule for the reset-stuck sweep
	CallMaxRetries    int    `toml:"call_max_retries"`    // Transient translator retries within one claim
}

// QAConfig lifts the quality thresholds into named configuration so
// tests can assert exact boundary behavior.
type QAConfig struct {
	SoftPurityCount int     `toml:"soft_purity_count"` // Residue count at or below this is retry-eligible
	HardPurityRatio float64 `toml:"hard_purity_ratio"` // Source-script fraction at or above this always flags
	LengthRatioMin  float64 `toml:"length_ratio_min"`  // Translated/source character ratio band
	LengthRatioMax  float64 `toml:"length_ratio_max"`
}

// GatesConfig holds per-stage pass thresholds and report output.
type GatesConfig struct {
	ReportsDir           string  `toml:"reports_dir"`
	HarvestThreshold     float64 `toml:"harvest_threshold"`
	OCRThreshold         float64 `toml:"ocr_threshold"`          // Mean extraction similarity required
	TranslationThreshold float64 `toml:"translation_threshold"`  // QA pass rate required for publication
}

// PipelineConfig wires the external inputs consumed by the orchestrator.
type PipelineConfig struct {
	RecordsPath  string `toml:"records_path"`  // Harvested records JSON (harvester output)
	OCRInputPath string `toml:"ocr_input_path"` // Extraction samples JSON for the OCR gate
	GlossaryPath string `toml:"glossary_path"`  // Optional TOML glossary (term = rendering)
	TargetLanguage string `toml:"target_language"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // Default: "gemini-2.0-flash"
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   int     `toml:"rate_limit"`  // Requests per second (default: 2)
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // Default: "claude-haiku-3-5-20241022"
	MaxTokens   int     `toml:"max_tokens"` // Default: 4096
	Timeout     string  `toml:"timeout"`
	RateLimit   int     `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// TranslatorProvider represents the machine-translation provider type
type TranslatorProvider string

const (
	// TranslatorProviderGemini uses Google Gemini API
	TranslatorProviderGemini TranslatorProvider = "gemini"
	// TranslatorProviderClaude uses Anthropic Claude API
	TranslatorProviderClaude TranslatorProvider = "claude"
)

// TranslatorConfig selects the translation provider and audit output.
type TranslatorConfig struct {
	DefaultProvider TranslatorProvider `toml:"default_provider"` // "gemini" or "claude"
	AuditLogPath    string             `toml:"audit_log_path"`   // JSON lines audit of translator calls
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in verto.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Queue: QueueConfig{
			MaxRetries: 3,
		},
		Worker: WorkerConfig{
			Count:              4,
			HeartbeatInterval:  "10s",
			IdleBackoff:        "2s",
			IdleExitThreshold:  5,
			StuckTimeout:       "2m",
			StuckSweepSchedule: "*/30 * * * * *", // Every 30 seconds (with seconds field)
			CallMaxRetries:     5,
		},
		QA: QAConfig{
			SoftPurityCount: 5,
			HardPurityRatio: 0.05,
			LengthRatioMin:  0.5,
			LengthRatioMax:  8.0,
		},
		Gates: GatesConfig{
			ReportsDir:           "./reports",
			HarvestThreshold:     0.9,
			OCRThreshold:         0.85,
			TranslationThreshold: 0.8,
		},
		Pipeline: PipelineConfig{
			RecordsPath:    "./harvest/records.json",
			OCRInputPath:   "./harvest/extraction_samples.json",
			TargetLanguage: "English",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			RateLimit:   2,
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   1,
			Temperature: 0.2,
		},
		Translator: TranslatorConfig{
			DefaultProvider: TranslatorProviderGemini,
			AuditLogPath:    "./logs/translator_audit.log",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFile loads configuration from a single TOML file, merged
// over defaults and under environment overrides.
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from TOML files in order. Later
// files override earlier ones; environment variables override files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies VERTO_* environment variables over the
// loaded configuration. Environment wins over files, CLI flags win
// over environment (see ApplyFlagOverrides).
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("VERTO_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("VERTO_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("VERTO_STORAGE_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("VERTO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("VERTO_TRANSLATOR_PROVIDER"); v != "" {
		config.Translator.DefaultProvider = TranslatorProvider(v)
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority).
func ApplyFlagOverrides(config *Config, storagePath string, workerCount int) {
	if storagePath != "" {
		config.Storage.Badger.Path = storagePath
	}
	if workerCount > 0 {
		config.Worker.Count = workerCount
	}
}

// Validate checks cross-field consistency of the configuration.
func (c *Config) Validate() error {
	if c.Queue.MaxRetries <= 0 {
		return fmt.Errorf("queue.max_retries must be positive, got %d", c.Queue.MaxRetries)
	}
	if c.QA.SoftPurityCount < 0 {
		return fmt.Errorf("qa.soft_purity_count must not be negative, got %d", c.QA.SoftPurityCount)
	}
	if c.QA.LengthRatioMin >= c.QA.LengthRatioMax {
		return fmt.Errorf("qa.length_ratio_min (%f) must be below qa.length_ratio_max (%f)",
			c.QA.LengthRatioMin, c.QA.LengthRatioMax)
	}
	for _, d := range []struct {
		name  string
		value string
	}{
		{"worker.heartbeat_interval", c.Worker.HeartbeatInterval},
		{"worker.idle_backoff", c.Worker.IdleBackoff},
		{"worker.stuck_timeout", c.Worker.StuckTimeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.name, err)
		}
	}
	switch c.Translator.DefaultProvider {
	case TranslatorProviderGemini, TranslatorProviderClaude:
	default:
		return fmt.Errorf("unknown translator provider: %s", c.Translator.DefaultProvider)
	}
	return nil
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HeartbeatIntervalDuration returns the parsed worker heartbeat interval.
func (c *WorkerConfig) HeartbeatIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.HeartbeatInterval)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// IdleBackoffDuration returns the parsed idle backoff.
func (c *WorkerConfig) IdleBackoffDuration() time.Duration {
	d, err := time.ParseDuration(c.IdleBackoff)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// StuckTimeoutDuration returns the parsed stuck-job timeout.
func (c *WorkerConfig) StuckTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.StuckTimeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}
