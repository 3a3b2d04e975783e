package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInit_WritesSampleConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "draco.yaml")

	var stdout bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("init execute: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "draco configuration") {
		t.Fatalf("unexpected config contents: %s", s)
	}
	if !strings.Contains(stdout.String(), "Wrote sample config to") {
		t.Fatalf("unexpected output: %s", stdout.String())
	}
}

// Every option documented in the sample must be a key the config loader accepts.
func TestInit_SampleKeysAreKnown(t *testing.T) {
	t.Parallel()
	var uncommented strings.Builder
	for _, line := range strings.Split(sampleConfigYAML, "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, ":") && !strings.HasPrefix(line, "#  ") {
			key, _, _ := strings.Cut(strings.TrimPrefix(line, "# "), ":")
			if strings.ContainsAny(key, " ,()") {
				continue
			}
			uncommented.WriteString(strings.TrimPrefix(line, "# "))
			uncommented.WriteString("\n")
		}
	}
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(uncommented.String()), &raw); err != nil {
		t.Fatalf("parse sample keys: %v\n%s", err, uncommented.String())
	}
	if len(raw) < len(knownConfigKeys)-1 {
		t.Fatalf("sample documents %d keys, want at least %d", len(raw), len(knownConfigKeys)-1)
	}
	for key := range raw {
		if _, ok := knownConfigKeys[normalizeKey(key)]; !ok {
			t.Errorf("sample documents unknown key %q", key)
		}
	}
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for existing file without --force")
	}
	if _, ok := err.(usageError); !ok {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}

	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path, "--force"})
	if err := root.Execute(); err != nil {
		t.Fatalf("init with --force: %v", err)
	}
}
