package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

const configPathEnv = "PROMPT_CONFIG_PATH"

// Asset storage backends
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageGCS   = "gcs"
)

// Behaviour when mandatory policy assets are missing at startup
const (
	FailModeAbort    = "abort"
	FailModeDegraded = "degraded"
)

// Config is the process-wide, read-only configuration
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Assets     AssetConfig       `yaml:"assets"`
	Digest     DigestConfig      `yaml:"digest"`
	Prompt     PromptConfig      `yaml:"prompt"`
	Currency   CurrencyConfig    `yaml:"currency"`
	Intake     IntakeConfig      `yaml:"intake"`
	Generation GenerationConfig  `yaml:"generation"`
	Scenarios  map[string]string `yaml:"scenario_rules"`
	Database   DatabaseConfig    `yaml:"-"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"`
	LogMode        string   `yaml:"log_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AssetConfig struct {
	Root        string `yaml:"root"`
	StorageType string `yaml:"storage_type"`
	Strict      bool   `yaml:"strict"`
	FailMode    string `yaml:"fail_mode"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	GCSBucket   string `yaml:"gcs_bucket"`

	AWSAccessKey string `yaml:"-"`
	AWSSecretKey string `yaml:"-"`
}

// DigestConfig bounds the style digest built from sample letters
type DigestConfig struct {
	MaxFiles        int `yaml:"max_files"`
	MaxCharsPerFile int `yaml:"max_chars_per_file"`
	MaxTotalChars   int `yaml:"max_total_chars"`
}

// PromptConfig holds per-block character budgets of the reference block
type PromptConfig struct {
	RulesChars          int `yaml:"rules_chars"`
	StructureGuideChars int `yaml:"structure_guide_chars"`
	ChecklistChars      int `yaml:"checklist_chars"`
	TemplateChars       int `yaml:"template_chars"`
	MiniChars           int `yaml:"mini_chars"`
}

// CurrencyConfig lists the recognized foreign currency markers and the
// symbol used when the facts carry none of them.
type CurrencyConfig struct {
	HomeSymbol string   `yaml:"home_symbol"`
	Markers    []string `yaml:"markers"`
}

type IntakeConfig struct {
	DefaultCompanyName string `yaml:"default_company_name"`
	DefaultFunding     string `yaml:"default_funding"`
}

type GenerationConfig struct {
	PrimaryModel  string        `yaml:"primary_model"`
	FallbackModel string        `yaml:"fallback_model"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`

	APIKey string `yaml:"-"`
}

type DatabaseConfig struct {
	URL string
}

// Load builds the configuration from the embedded defaults, an optional YAML
// file named by PROMPT_CONFIG_PATH, and environment overrides, in that order.
func Load() (*Config, error) {
	cfg, err := Parse(defaultsYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document into a Config without env overrides
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded defaults. It panics only if the embedded file
// is malformed, which is a build defect.
func Default() *Config {
	cfg, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = envString("PORT", cfg.Server.Port)
	cfg.Server.Mode = envString("GIN_MODE", cfg.Server.Mode)
	cfg.Server.LogMode = envString("LOG_MODE", cfg.Server.LogMode)
	cfg.Server.AllowedOrigins = envList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Assets.Root = envString("ASSET_ROOT", cfg.Assets.Root)
	cfg.Assets.StorageType = strings.ToLower(envString("ASSET_STORAGE_TYPE", cfg.Assets.StorageType))
	cfg.Assets.Strict = envBool("ASSET_STRICT", cfg.Assets.Strict)
	cfg.Assets.FailMode = strings.ToLower(envString("ASSET_FAIL_MODE", cfg.Assets.FailMode))
	cfg.Assets.S3Bucket = envString("AWS_S3_BUCKET", cfg.Assets.S3Bucket)
	cfg.Assets.S3Region = envString("AWS_REGION", cfg.Assets.S3Region)
	cfg.Assets.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Assets.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.Assets.GCSBucket = envString("GCS_BUCKET", cfg.Assets.GCSBucket)

	cfg.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Generation.PrimaryModel = envString("GEMINI_PRIMARY_MODEL", cfg.Generation.PrimaryModel)
	cfg.Generation.FallbackModel = envString("GEMINI_FALLBACK_MODEL", cfg.Generation.FallbackModel)
	cfg.Generation.Timeout = envDuration("GENERATION_TIMEOUT", cfg.Generation.Timeout)

	cfg.Database.URL = envString("DATABASE_URL", cfg.Database.URL)
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.Assets.StorageType {
	case StorageLocal:
		if c.Assets.Root == "" {
			errs = append(errs, errors.New("assets.root is required for local storage"))
		}
	case StorageS3:
		if c.Assets.S3Bucket == "" {
			errs = append(errs, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage"))
		}
	case StorageGCS:
		if c.Assets.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET environment variable is required for GCS storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown asset storage type: %s", c.Assets.StorageType))
	}

	if c.Assets.FailMode != FailModeAbort && c.Assets.FailMode != FailModeDegraded {
		errs = append(errs, fmt.Errorf("unknown asset fail mode: %s", c.Assets.FailMode))
	}
	if c.Digest.MaxFiles <= 0 || c.Digest.MaxCharsPerFile <= 0 || c.Digest.MaxTotalChars <= 0 {
		errs = append(errs, errors.New("digest limits must be positive"))
	}
	if c.Prompt.RulesChars <= 0 || c.Prompt.StructureGuideChars <= 0 || c.Prompt.ChecklistChars <= 0 ||
		c.Prompt.TemplateChars <= 0 || c.Prompt.MiniChars <= 0 {
		errs = append(errs, errors.New("prompt budgets must be positive"))
	}
	if c.Generation.PrimaryModel == "" {
		errs = append(errs, errors.New("generation.primary_model is required"))
	}
	if c.Currency.HomeSymbol == "" {
		errs = append(errs, errors.New("currency.home_symbol is required"))
	}

	return errors.Join(errs...)
}
