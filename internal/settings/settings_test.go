package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

func TestLoadDefaults(t *testing.T) {
	v, err := New(afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Color != "auto" || s.MaxDiagnostics != 100 || s.Format != "pretty" || s.ConfigFile != "" {
		t.Fatalf("unexpected defaults %+v", s)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	fsys := afero.NewMemMapFs()
	path := filepath.Join(ConfigDir(home), "settings.toml")
	content := "color = \"off\"\nmax-diagnostics = 10\nformat = \"short\"\n"
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JINSPECT_MAX_DIAGNOSTICS", "7")

	v, err := New(fsys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Color != "off" || s.Format != "short" {
		t.Fatalf("file values not applied: %+v", s)
	}
	if s.MaxDiagnostics != 7 {
		t.Fatalf("env must win over the file, got %d", s.MaxDiagnostics)
	}
	if s.ConfigFile == "" {
		t.Fatal("ConfigFile must name the settings file")
	}
}

func TestLoadRejectsBadColor(t *testing.T) {
	t.Setenv("JINSPECT_COLOR", "sometimes")
	v, err := New(afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := Load(v); err == nil {
		t.Fatal("expected an error for an unknown color mode")
	}
}

func TestLoadDotEnv(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := "JINSPECT_JOBS=3\nJINSPECT_FORMAT=json\nOTHER=1\n"
	if err := afero.WriteFile(fsys, "/work/.env", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JINSPECT_FORMAT", "sarif")
	t.Setenv("JINSPECT_JOBS", "")
	os.Unsetenv("JINSPECT_JOBS")

	if err := LoadDotEnv(fsys, "/work/.env"); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	v, err := New(fsys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Format != "sarif" {
		t.Fatalf("existing env must win, got %q", s.Format)
	}
	if s.Jobs != 3 {
		t.Fatalf("jobs from .env = %d, want 3", s.Jobs)
	}
	if err := LoadDotEnv(fsys, "/work/missing.env"); err != nil {
		t.Fatalf("missing file: %v", err)
	}
}
