package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded defaults should validate: %v", err)
	}
	if cfg.Digest.MaxTotalChars != 4500 {
		t.Fatalf("unexpected digest budget: got=%d want=%d", cfg.Digest.MaxTotalChars, 4500)
	}
	if cfg.Generation.Timeout != 120*time.Second {
		t.Fatalf("unexpected timeout: got=%s", cfg.Generation.Timeout)
	}
	if cfg.Currency.HomeSymbol != "₦" {
		t.Fatalf("unexpected home symbol: got=%q", cfg.Currency.HomeSymbol)
	}
	if cfg.Intake.DefaultFunding != "Self-funded" {
		t.Fatalf("unexpected default funding: got=%q", cfg.Intake.DefaultFunding)
	}
}

func TestLoadAppliesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yaml")
	overlay := `
digest:
  max_files: 5
currency:
  home_symbol: "KES"
scenario_rules:
  medical: "has(p.purpose) && p.purpose.matches('(?i)treatment')"
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv("ASSET_FAIL_MODE", "DEGRADED")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Digest.MaxFiles != 5 {
		t.Fatalf("overlay not applied: max_files=%d", cfg.Digest.MaxFiles)
	}
	if cfg.Digest.MaxTotalChars != 4500 {
		t.Fatalf("overlay must keep unspecified defaults: max_total_chars=%d", cfg.Digest.MaxTotalChars)
	}
	if cfg.Currency.HomeSymbol != "KES" {
		t.Fatalf("unexpected home symbol: %q", cfg.Currency.HomeSymbol)
	}
	if !strings.Contains(cfg.Scenarios["medical"], "treatment") {
		t.Fatalf("scenario override missing: %v", cfg.Scenarios)
	}
	if cfg.Assets.FailMode != FailModeDegraded {
		t.Fatalf("unexpected fail mode: %q", cfg.Assets.FailMode)
	}
	if cfg.Generation.Timeout != 45*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Generation.Timeout)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Assets.StorageType = StorageS3
	cfg.Assets.FailMode = "sometimes"
	cfg.Digest.MaxFiles = 0
	cfg.Prompt.RulesChars = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"AWS_S3_BUCKET", "fail mode", "digest limits", "prompt budgets"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestValidateRejectsNonPositivePromptBudget(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	cfg := Default()
	cfg.Prompt.MiniChars = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "prompt budgets") {
		t.Fatalf("got=%v want prompt budget error", err)
	}
}
