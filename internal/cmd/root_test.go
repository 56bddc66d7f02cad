package cmd

import (
	"testing"
)

func TestRootCommandFlags(t *testing.T) {
	flags := []string{
		"show-config",
		"out",
		"catalog",
		"selector",
		"concurrency",
		"delay",
		"timeout",
		"user-agent",
		"extensions",
		"date-format",
		"log-level",
		"log-file",
	}

	for _, name := range flags {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to be defined", name)
		}
	}

	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("expected persistent flag --config to be defined")
	}
}

func TestRootCommandDefaults(t *testing.T) {
	out, err := rootCmd.Flags().GetString("out")
	if err != nil {
		t.Fatalf("failed to read --out: %v", err)
	}
	if out != "out/raw" {
		t.Errorf("expected default output root 'out/raw', got %q", out)
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "2026-01-01")
	if rootCmd.Version != "1.2.3 (built 2026-01-01)" {
		t.Errorf("unexpected version string: %q", rootCmd.Version)
	}
}

func TestGenerateUserAgent(t *testing.T) {
	oldVersion := version
	defer func() { version = oldVersion }()

	version = "dev"
	if ua := generateUserAgent(); ua != "mdbharvest/dev" {
		t.Errorf("expected 'mdbharvest/dev', got %q", ua)
	}

	version = "2.0.0"
	if ua := generateUserAgent(); ua != "mdbharvest/2.0.0" {
		t.Errorf("expected 'mdbharvest/2.0.0', got %q", ua)
	}
}
