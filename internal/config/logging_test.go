package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupLogFile_CreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	f, err := SetupLogFile(dir, "server", 3)
	if err != nil {
		t.Fatalf("SetupLogFile() error = %v", err)
	}
	defer f.Close()

	if _, err := os.Stat(f.Name()); err != nil {
		t.Errorf("log file not created: %v", err)
	}
	if filepath.Dir(f.Name()) != dir {
		t.Errorf("log file in %s, want %s", filepath.Dir(f.Name()), dir)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"server-2024-01-01T00-00-00.000.log",
		"server-2024-01-02T00-00-00.000.log",
		"server-2024-01-03T00-00-00.000.log",
		"server-2024-01-04T00-00-00.000.log",
		"other-2024-01-01T00-00-00.000.log",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := cleanupOldLogs(dir, "server", 2); err != nil {
		t.Fatalf("cleanupOldLogs() error = %v", err)
	}

	remaining, _ := filepath.Glob(filepath.Join(dir, "*.log"))
	want := map[string]bool{
		"server-2024-01-03T00-00-00.000.log": true,
		"server-2024-01-04T00-00-00.000.log": true,
		"other-2024-01-01T00-00-00.000.log":  true,
	}
	if len(remaining) != len(want) {
		t.Fatalf("remaining = %v", remaining)
	}
	for _, path := range remaining {
		if !want[filepath.Base(path)] {
			t.Errorf("unexpected survivor %s", path)
		}
	}
}
