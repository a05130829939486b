package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/domodwyer/tlafmt/internal/format"
)

const unformatted = "---- MODULE Test ----\nFoo ==\n  /\\ a > 0\n /\\ b > 0\n====\n"

func formatted(t *testing.T) string {
	t.Helper()
	out, err := format.Source(unformatted, format.DefaultOptions())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	return out
}

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Test.tla")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunStdin(t *testing.T) {
	var out, errOut strings.Builder
	code := run([]string{"-stdin"}, strings.NewReader(unformatted), &out, &errOut)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %q", code, errOut.String())
	}
	if got, want := out.String(), formatted(t); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRunStdinParseError(t *testing.T) {
	var out, errOut strings.Builder
	code := run([]string{"-stdin"}, strings.NewReader("---- MODULE Bad ----\nFoo ==\n====\n"), &out, &errOut)
	if code != exitError {
		t.Fatalf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(errOut.String(), "syntax error") {
		t.Errorf("stderr = %q, want a syntax error", errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
}

func TestRunCheck(t *testing.T) {
	path := writeSpec(t, unformatted)

	var out, errOut strings.Builder
	code := run([]string{"-check", path}, nil, &out, &errOut)
	if code != exitDiffers {
		t.Fatalf("exit = %d, stderr = %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "@@") {
		t.Errorf("stdout = %q, want a unified diff", out.String())
	}

	// An already formatted file passes silently.
	if err := os.WriteFile(path, []byte(formatted(t)), 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	code = run([]string{"-check", path}, nil, &out, &errOut)
	if code != exitOK {
		t.Fatalf("exit = %d after formatting, stderr = %q", code, errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
}

func TestRunWriteInPlace(t *testing.T) {
	path := writeSpec(t, unformatted)

	var out, errOut strings.Builder
	code := run([]string{"-w", path}, nil, &out, &errOut)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %q", code, errOut.String())
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := formatted(t); string(got) != want {
		t.Errorf("file = %q, want %q", got, want)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
}

func TestRunRequiredVersion(t *testing.T) {
	path := writeSpec(t, unformatted)
	cfg := filepath.Join(filepath.Dir(path), ".tlafmt.json")
	if err := os.WriteFile(cfg, []byte(`{"required_version": "> 99.0.0"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut strings.Builder
	if code := run([]string{"-check", path}, nil, &out, &errOut); code != exitError {
		t.Fatalf("exit = %d, want %d (stderr = %q)", code, exitError, errOut.String())
	}
}

func TestRunFlagConflicts(t *testing.T) {
	for _, args := range [][]string{
		{"-w", "-check", "x.tla"},
		{"-stdin", "-w"},
		{"-stdin", "-watch"},
	} {
		var out, errOut strings.Builder
		if code := run(args, strings.NewReader(""), &out, &errOut); code != exitError {
			t.Errorf("run(%v) = %d, want %d", args, code, exitError)
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	var out, errOut strings.Builder
	if code := run([]string{filepath.Join(t.TempDir(), "absent.tla")}, nil, &out, &errOut); code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := writeSpec(t, "old")
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := writeFileAtomic(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	// No temp debris left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tlafmt-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
