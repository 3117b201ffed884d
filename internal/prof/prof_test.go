package prof

import (
	"testing"

	"github.com/spf13/afero"
)

func TestSessionWritesProfiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s, err := Start(fsys, Config{CPU: "/cpu.out", Mem: "/mem.out"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	for _, path := range []string{"/cpu.out", "/mem.out"} {
		info, err := fsys.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestEmptyConfigIsNoop(t *testing.T) {
	s, err := Start(afero.NewMemMapFs(), Config{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStartFailsOnReadOnlyFs(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	if _, err := Start(fsys, Config{CPU: "/cpu.out"}); err == nil {
		t.Fatal("expected error on read-only fs")
	}
}
