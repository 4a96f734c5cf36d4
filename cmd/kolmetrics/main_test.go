// cmd/kolmetrics/main_test.go
package main

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"testing"
)

func TestCLIVersion(t *testing.T) {
	version = "test-version"
	buildTime = "2026-08-29"
	gitCommit = "abc123"

	output := captureOutput(func() {
		printVersion()
	})

	if !strings.Contains(output, "test-version") {
		t.Errorf("version output should contain version, got: %s", output)
	}
	if !strings.Contains(output, "2026-08-29") {
		t.Errorf("version output should contain build time, got: %s", output)
	}
	if !strings.Contains(output, "abc123") {
		t.Errorf("version output should contain git commit, got: %s", output)
	}
}

func TestCLIHelp(t *testing.T) {
	output := captureOutput(func() {
		printUsage()
	})

	commands := []string{"run", "validate", "template", "export", "version", "help"}
	for _, cmd := range commands {
		if !strings.Contains(output, cmd) {
			t.Errorf("help output should contain command %q, got: %s", cmd, output)
		}
	}
}

func TestGenerateConfigTemplate(t *testing.T) {
	output := captureOutput(func() {
		if err := generateTemplate(nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	for _, section := range []string{"input:", "youtube:", "storage:", "output:"} {
		if !strings.Contains(output, section) {
			t.Errorf("config template should contain %q, got: %s", section, output)
		}
	}
}

func TestGenerateInputTemplate(t *testing.T) {
	output := captureOutput(func() {
		if err := generateTemplate([]string{"--type", "input"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	if err != nil {
		t.Fatalf("input template is not valid CSV: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("input template should include sample rows, got %d records", len(records))
	}
	if records[0][0] != "platform" {
		t.Errorf("expected header to start with platform, got %q", records[0][0])
	}
}

func TestGenerateTemplateUnknownType(t *testing.T) {
	err := generateTemplate([]string{"--type", "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown template type")
	}
}

func TestFlagValue(t *testing.T) {
	args := []string{"--format", "json", "--out", "results.json"}

	if got := flagValue(args, "--format"); got != "json" {
		t.Errorf("expected json, got %q", got)
	}
	if got := flagValue(args, "--out"); got != "results.json" {
		t.Errorf("expected results.json, got %q", got)
	}
	if got := flagValue(args, "--missing"); got != "" {
		t.Errorf("expected empty value for absent flag, got %q", got)
	}
}

// captureOutput captures stdout during function execution
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	f()
	w.Close()
	os.Stdout = old
	out := <-outC

	return out
}
