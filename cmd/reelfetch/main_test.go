package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelfetch/internal/config"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	cfg        *config.Config
}

// setupCLITestEnv writes a config file whose directories all live under a
// temp dir and points HOME there so the default lookup never escapes it.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv(config.BotTokenEnv, "")

	configPath := filepath.Join(base, "reelfetch.toml")
	body := fmt.Sprintf(`[paths]
cache_dir = %q
scratch_dir = %q
ledger_path = %q
log_dir = %q

[bot]
token = "cli-test-token"

[logging]
format = "json"
`,
		filepath.Join(base, "cache"),
		filepath.Join(base, "scratch"),
		filepath.Join(base, "data", "usage.json"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, exists, err := config.Load(configPath)
	if err != nil || !exists {
		t.Fatalf("load config: exists=%v err=%v", exists, err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath, cfg: cfg}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	full := args
	if configPath != "" {
		full = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(full)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}

func TestRootShowsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, name := range []string{"serve", "fetch", "stats", "cache", "config"} {
		requireContains(t, out, name)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	path := filepath.Join(base, "broken.toml")
	if err := os.WriteFile(path, []byte("[limits\nqueue_capacity = "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, []string{"stats"}, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		0:                "0 B",
		1023:             "1023 B",
		1024:             "1.0 KiB",
		50 * 1024 * 1024: "50.0 MiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Fatalf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
