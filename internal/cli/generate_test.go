package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// These tests swap the package-level generateRunner, so they do not run in
// parallel.

func captureConfig(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs(args)
	err := root.Execute()
	return captured, err
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured, err := captureConfig(t,
		"--verbose",
		"generate",
		"--input", "spec.yaml",
		"--out", "./build",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--methods", "GET,put",
		"--package-name", "avs",
		"--module-name", "example.com/avs",
		"--models-package", "example.com/avs/models",
		"--dry-run",
		"--force",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Input != "spec.yaml" {
		t.Errorf("input mismatch: got %q", captured.Input)
	}
	if captured.Out != "./build" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if want := []string{"foo", "bar"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags mismatch: got %v", captured.IncludeTags)
	}
	if want := []string{"baz"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags mismatch: got %v", captured.ExcludeTags)
	}
	if want := []string{"get", "put"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods mismatch: got %v", captured.Methods)
	}
	if captured.PackageName != "avs" {
		t.Errorf("package name mismatch: got %q", captured.PackageName)
	}
	if captured.ModuleName != "example.com/avs" {
		t.Errorf("module name mismatch: got %q", captured.ModuleName)
	}
	if captured.ModelsPackage != "example.com/avs/models" {
		t.Errorf("models package mismatch: got %q", captured.ModelsPackage)
	}
	if !captured.DryRun {
		t.Errorf("expected dry-run true")
	}
	if !captured.Force {
		t.Errorf("expected force true")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true")
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`input: config-spec.yaml
out: from-config
includeTags:
  - cfgFoo
exclude-tags: cfgBar
packageName: cfgpkg
dryRun: true
force: false
verbose: true
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SWAGGER2CLIENT_PACKAGE_NAME", "envpkg")
	t.Setenv("SWAGGER2CLIENT_OUT", "from-env")

	captured, err := captureConfig(t,
		"--config", configPath,
		"generate",
		"--input", "flag-spec.yaml",
		"--include-tags", "flagTag",
		"--out", "from-flag",
		"--dry-run=false",
		"--force",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Input != "flag-spec.yaml" {
		t.Errorf("input: want %q got %q", "flag-spec.yaml", captured.Input)
	}
	if captured.Out != "from-flag" {
		t.Errorf("out: want from-flag got %q", captured.Out)
	}
	if want := []string{"flagTag"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags: want %v got %v", want, captured.IncludeTags)
	}
	if want := []string{"cfgBar"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags: want %v got %v", want, captured.ExcludeTags)
	}
	if captured.PackageName != "envpkg" {
		t.Errorf("package name: want envpkg (env over file) got %q", captured.PackageName)
	}
	if captured.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !captured.Force {
		t.Errorf("expected force true after flag override")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
}

func TestGenerateConfigFromEnvironment(t *testing.T) {
	t.Setenv("SWAGGER2CLIENT_INPUT", "env-spec.json")
	t.Setenv("SWAGGER2CLIENT_EXCLUDE_TAGS", "a, b")
	t.Setenv("SWAGGER2CLIENT_DRY_RUN", "yes")
	t.Setenv("SWAGGER2CLIENT_UNRELATED", "ignored")

	captured, err := captureConfig(t, "generate")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Input != "env-spec.json" {
		t.Errorf("input: got %q", captured.Input)
	}
	if want := []string{"a", "b"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags: got %v", captured.ExcludeTags)
	}
	if !captured.DryRun {
		t.Errorf("expected dry-run from environment")
	}
}

func TestGenerateConfigJSONFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte(`{"input": "json-spec.yaml", "methods": ["get"]}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	captured, err := captureConfig(t, "--config", configPath, "generate")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Input != "json-spec.yaml" {
		t.Errorf("input: got %q", captured.Input)
	}
	if want := []string{"get"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods: got %v", captured.Methods)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := captureConfig(t, "--config", configPath, "generate", "--input", "spec.yaml")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	cases := map[string][]string{
		"missing input":   {"generate"},
		"bad method":      {"generate", "--input", "x", "--methods", "trace"},
		"bad package":     {"generate", "--input", "x", "--package-name", "example.com/pkg"},
		"overlapping tag": {"generate", "--input", "x", "--include-tags", "a", "--exclude-tags", "a"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := captureConfig(t, args...)
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
		})
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
