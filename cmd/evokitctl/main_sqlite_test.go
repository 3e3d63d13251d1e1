//go:build sqlite

package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSQLiteRunThenInspect(t *testing.T) {
	db := filepath.Join(t.TempDir(), "evokit.db")
	base := []string{"--store", "sqlite", "--db-path", db}

	if _, _, err := execute(t, append(base, "run", "-c", onemaxConfig, "--run-id", "persisted", "--progress", "never")...); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := execute(t, append(base, "runs")...)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "persisted") || !strings.Contains(out, "onemax") {
		t.Fatalf("expected stored run in listing:\n%s", out)
	}

	out, _, err = execute(t, append(base, "summaries", "persisted")...)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if !strings.HasPrefix(out, "GEN") {
		t.Fatalf("unexpected summaries output:\n%s", out)
	}

	out, _, err = execute(t, append(base, "population", "--limit", "3")...)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if !strings.Contains(out, "run_id=persisted") || !strings.Contains(out, "members=3") {
		t.Fatalf("unexpected population output:\n%s", out)
	}

	outDir := t.TempDir()
	out, _, err = execute(t, append(base, "export", "persisted", "--out", outDir)...)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, filepath.Join(outDir, "persisted")) {
		t.Fatalf("unexpected export output:\n%s", out)
	}
}
