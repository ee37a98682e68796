package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("CB_TEST_DURATION", "90s")
	if got := Duration("CB_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}

	t.Setenv("CB_TEST_DURATION", "15")
	if got := Duration("CB_TEST_DURATION", time.Second); got != 15*time.Second {
		t.Fatalf("expected bare seconds to parse, got %s", got)
	}

	t.Setenv("CB_TEST_DURATION", "nope")
	if got := Duration("CB_TEST_DURATION", 3*time.Second); got != 3*time.Second {
		t.Fatalf("expected fallback, got %s", got)
	}
}

func TestIntAndBool(t *testing.T) {
	t.Setenv("CB_TEST_INT", "-4")
	if got := Int("CB_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback for negative value, got %d", got)
	}
	t.Setenv("CB_TEST_INT", "12")
	if got := Int("CB_TEST_INT", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}

	t.Setenv("CB_TEST_BOOL", "")
	if !Bool("CB_TEST_BOOL", true) {
		t.Fatal("expected fallback true when unset")
	}
	t.Setenv("CB_TEST_BOOL", "off")
	if Bool("CB_TEST_BOOL", true) {
		t.Fatal("expected false for off")
	}
}

func TestList(t *testing.T) {
	t.Setenv("CB_TEST_LIST", " a, ,b ,c")
	got := List("CB_TEST_LIST", "")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CB_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CB_TEST_DOTENV", "")
	os.Unsetenv("CB_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("CB_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
