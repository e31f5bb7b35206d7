package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"reelfetch/internal/testsupport"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSameFilesystem(t *testing.T) {
	base := t.TempDir()
	a := filepath.Join(base, "a")
	b := filepath.Join(base, "b")
	for _, dir := range []string{a, b} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckSameFilesystem("fs", a, b)
	if !result.Passed || result.Optional {
		t.Fatalf("expected required pass, got %+v", result)
	}

	missing := CheckSameFilesystem("fs", a, filepath.Join(base, "missing"))
	if missing.Passed {
		t.Fatal("expected failure for missing directory")
	}
	if len(Failures([]Result{missing})) != 1 {
		t.Fatal("filesystem check must count as a required failure")
	}
}

func TestCheckSameFilesystemAcrossDevices(t *testing.T) {
	other := "/dev/shm"
	base := t.TempDir()
	var sa, sb unix.Stat_t
	if unix.Stat(other, &sa) != nil || unix.Stat(base, &sb) != nil || sa.Dev == sb.Dev {
		t.Skip("no second filesystem available")
	}
	result := CheckSameFilesystem("fs", other, base)
	if result.Passed || result.Optional {
		t.Fatalf("expected required failure, got %+v", result)
	}
	if !strings.Contains(result.Detail, "nothing will be cached") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
	if len(Failures([]Result{result})) != 1 {
		t.Fatal("expected the mismatch to be reported as a required failure")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	cookies := filepath.Join(dir, "cookies.txt")
	if err := os.WriteFile(cookies, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if result := CheckFileReadable("cookies", cookies); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if result := CheckFileReadable("cookies", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckFileReadable("cookies", filepath.Join(dir, "missing.txt")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckBinariesReportsVersion(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "fake-ytdlp", "echo 2025.01.15")

	results := CheckBinaries(context.Background(), []Requirement{
		{Name: "yt-dlp", Command: tool, VersionFlag: "--version"},
		{Name: "missing", Command: filepath.Join(dir, "nope")},
		{Name: "optional", Command: "", Optional: true},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Passed || !strings.Contains(results[0].Detail, "2025.01.15") {
		t.Fatalf("expected version in detail, got %+v", results[0])
	}
	if results[1].Passed || !strings.Contains(results[1].Detail, "not found") {
		t.Fatalf("expected missing binary failure, got %+v", results[1])
	}
	if results[2].Passed || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected unconfigured result %+v", results[2])
	}

	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "missing" {
		t.Fatalf("Failures = %+v", failed)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("yt-dlp", "ffmpeg"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.YouTube.CookiesFile = filepath.Join(testsupport.BaseDir(cfg), "cookies.txt")

	results := RunAll(context.Background(), cfg)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Cache directory", "Scratch directory", "Ledger directory", "Log directory", "Scratch/cache filesystem", "yt-dlp", "FFmpeg"} {
		if !byName[name].Passed {
			t.Fatalf("%s failed: %s", name, byName[name].Detail)
		}
	}
	if cookies, ok := byName["YouTube cookies"]; !ok || cookies.Passed {
		t.Fatalf("expected failing cookies check, got %+v", cookies)
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "YouTube cookies" {
		t.Fatalf("Failures = %+v", failed)
	}

	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
