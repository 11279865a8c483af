package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "password")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("PEANUTS_TEST_SECRET", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{File: file, Env: "PEANUTS_TEST_SECRET", Value: "inline"}, want: "from-file"},
		{name: "env before value", src: Source{Env: "PEANUTS_TEST_SECRET", Value: "inline"}, want: "from-env"},
		{name: "value", src: Source{Env: "PEANUTS_TEST_UNSET", Value: " inline "}, want: "inline"},
		{name: "empty file", src: Source{Name: "password", File: empty}, wantErr: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, wantErr: "reading secret"},
		{name: "nothing", src: Source{Name: "gemini api key", Env: "PEANUTS_TEST_UNSET"}, wantErr: "set PEANUTS_TEST_UNSET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	t.Setenv("PEANUTS_TEST_SECRET", "x")

	if (Source{}).Configured() {
		t.Fatalf("expected empty source to be unconfigured")
	}
	if (Source{Env: "PEANUTS_TEST_UNSET"}).Configured() {
		t.Fatalf("expected unset env to be unconfigured")
	}
	if !(Source{Env: "PEANUTS_TEST_SECRET"}).Configured() {
		t.Fatalf("expected env source to be configured")
	}
}
