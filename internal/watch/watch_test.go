package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFormatsOnWrite(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "Spec.tla")
	if err := os.WriteFile(spec, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	formatted := make(chan string, 1)
	fw, err := New([]string{dir}, func(path string) error {
		select {
		case formatted <- path:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx)

	if err := os.WriteFile(spec, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-formatted:
		if path != spec {
			t.Fatalf("handler got %q, want %q", path, spec)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler not invoked for written file")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	formatted := make(chan string, 1)
	fw, err := New([]string{dir}, func(path string) error {
		formatted <- path
		return nil
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-formatted:
		t.Fatalf("handler invoked for %q", path)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestIsSpec(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"Spec.tla", true},
		{"SPEC.TLA", true},
		{"spec.tla.bak", false},
		{"notes.txt", false},
	}

	for _, tt := range tests {
		if got := isSpec(tt.path); got != tt.want {
			t.Fatalf("isSpec(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
