package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
		check   func(t *testing.T, c Config)
	}{
		{
			name: "full config",
			json: `{"max_width": 100, "collapse_single_bullets": true, "required_version": ">= 0.1"}`,
			check: func(t *testing.T, c Config) {
				if c.MaxWidth != 100 || !c.CollapseSingleBullets || c.RequiredVersion != ">= 0.1" {
					t.Fatalf("got %+v", c)
				}
			},
		},
		{
			name: "empty object",
			json: `{}`,
			check: func(t *testing.T, c Config) {
				if c.MaxWidth != 0 || c.CollapseSingleBullets {
					t.Fatalf("got %+v", c)
				}
			},
		},
		{
			name:    "unknown field",
			json:    `{"max_witdh": 100}`,
			wantErr: "unknown field",
		},
		{
			name:    "bad constraint",
			json:    `{"required_version": "not-a-version"}`,
			wantErr: "required_version",
		},
		{
			name:    "negative width",
			json:    `{"max_width": -1}`,
			wantErr: "max_width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.json), FileName)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("got err %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		ok         bool
	}{
		{"", "0.0.1", true},
		{">= 0.3", "0.4.0", true},
		{">= 0.3", "0.2.9", false},
		{">= 0.3, < 1.0", "1.1.0", false},
		{"~0.5", "0.5.7", true},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"/"+tt.version, func(t *testing.T) {
			c := Config{RequiredVersion: tt.constraint, Path: FileName}

			err := c.CheckVersion(tt.version)
			if tt.ok && err != nil {
				t.Fatalf("CheckVersion failed: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("version %s accepted by %q", tt.version, tt.constraint)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "specs", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(root, FileName)
	if err := os.WriteFile(cfgPath, []byte(`{"max_width": 120}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if c.MaxWidth != 120 {
		t.Fatalf("got MaxWidth %d, want 120", c.MaxWidth)
	}
	if c.Path != cfgPath {
		t.Fatalf("got path %q, want %q", c.Path, cfgPath)
	}

	// A config in the start directory itself is found, not just in
	// parents.
	c, err = Discover(root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if c.Path != cfgPath {
		t.Fatalf("got path %q, want %q", c.Path, cfgPath)
	}

	// No config anywhere up the tree.
	c, err = Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if c.MaxWidth != Default().MaxWidth || c.Path != "" {
		t.Fatalf("expected defaults, got %+v", c)
	}
}

func TestOptions(t *testing.T) {
	opts := Config{MaxWidth: 72, CollapseSingleBullets: true}.Options()
	if opts.MaxWidth != 72 || !opts.CollapseSingleBullets {
		t.Fatalf("got %+v", opts)
	}

	opts = Config{}.Options()
	if opts.MaxWidth != Default().MaxWidth {
		t.Fatalf("zero config should default width, got %+v", opts)
	}
}
