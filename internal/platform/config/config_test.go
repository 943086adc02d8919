package config

import (
	"os"
	"os/exec"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port    int    `env:"ROLEPLAY_REGISTRY_TEST_PORT" envDefault:"123"`
	Backend string `env:"BACKEND" envDefault:"file"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("port = %d, want 123", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ROLEPLAY_REGISTRY_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithPrefix(t *testing.T) {
	t.Setenv("SCOPED_BACKEND", "sqlite")

	var cfg envTestConfig
	if err := ParseEnvWithPrefix(&cfg, "SCOPED_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Backend != "sqlite" {
		t.Fatalf("backend = %q, want sqlite", cfg.Backend)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{" YES ", true},
		{"1", true},
		{"on", true},
		{"false", false},
		{"", false},
		{"maybe", false},
	}
	for _, tt := range tests {
		if got := ParseBool(tt.value); got != tt.want {
			t.Fatalf("ParseBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestStringOr(t *testing.T) {
	if got := StringOr("  ", "data"); got != "data" {
		t.Fatalf("StringOr blank = %q, want data", got)
	}
	if got := StringOr(" custom ", "data"); got != "custom" {
		t.Fatalf("StringOr value = %q, want custom", got)
	}
}

// Exitf calls os.Exit, so it runs in a subprocess.
func TestExitfExitsWithCode1(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		Exitf("fatal: %s", "something broke")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfExitsWithCode1$")
	cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")
	out, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "fatal: something broke") {
		t.Fatalf("expected message in output, got %q", out)
	}
}
