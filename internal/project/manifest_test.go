package project

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"jinspect/internal/diag"
)

const sampleManifest = `
[inspect]
implicit_namespace = "java.lang"
max_diagnostics = 50
jobs = 2
exclude = ["build/**", "*Generated.java"]

[rules.abstract-override]
enabled = false

[rules.implicit-import]
severity = "error"

[namespaces]
"java.awt" = ["List", "Color"]
`

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadManifestWalksUp(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/proj/jinspect.toml", sampleManifest)
	writeFile(t, fsys, "/proj/src/p/A.java", "class A {}\n")

	m, ok, err := LoadManifest(fsys, "/proj/src/p/A.java")
	if err != nil || !ok {
		t.Fatalf("LoadManifest: ok=%v err=%v", ok, err)
	}
	if m.Root != "/proj" || m.Path != "/proj/jinspect.toml" {
		t.Fatalf("unexpected location %s / %s", m.Root, m.Path)
	}

	cfg := m.Config
	if cfg.Inspect.ImplicitNamespace != "java.lang" || cfg.Inspect.MaxDiagnostics != 50 || cfg.Inspect.Jobs != 2 {
		t.Fatalf("unexpected [inspect]: %+v", cfg.Inspect)
	}
	if diff := cmp.Diff(map[string]bool{"abstract-override": true}, cfg.Disabled()); diff != "" {
		t.Fatalf("disabled mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]diag.Severity{"implicit-import": diag.SevError}, cfg.Severities()); diff != "" {
		t.Fatalf("severity mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"java.awt": {"List", "Color"}}, cfg.Namespaces); diff != "" {
		t.Fatalf("namespaces mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"abstract-override", "implicit-import"}, cfg.RuleIDs()); diff != "" {
		t.Fatalf("rule ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/proj/A.java", "class A {}\n")
	m, ok, err := LoadManifest(fsys, "/proj")
	if err != nil || ok || m != nil {
		t.Fatalf("expected no manifest, got %v %v %v", m, ok, err)
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[inspect\n"},
		{"unknown key", "[inspect]\ncolour = true\n"},
		{"namespace", "[inspect]\nimplicit_namespace = \"java..lang\"\n"},
		{"severity", "[rules.implicit-import]\nseverity = \"fatal\"\n"},
		{"jobs", "[inspect]\njobs = -1\n"},
		{"member", "[namespaces]\n\"java.awt\" = [\"a.b\"]\n"},
		{"exclude", "[inspect]\nexclude = [\"[\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeFile(t, fsys, "/proj/jinspect.toml", tt.content)
			_, ok, err := LoadManifest(fsys, "/proj")
			if !ok {
				t.Fatal("manifest must be found")
			}
			if !errors.Is(err, ErrManifestInvalid) {
				t.Fatalf("expected ErrManifestInvalid, got %v", err)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	cfg := Config{Inspect: InspectConfig{Exclude: []string{"build/**", "*Generated.java", "gen/*.java"}}}
	tests := []struct {
		path string
		want bool
	}{
		{"build", true},
		{"build/classes/A.java", true},
		{"builder/A.java", false},
		{"src/FooGenerated.java", true},
		{"gen/A.java", true},
		{"gen/sub/A.java", false},
		{"src/A.java", false},
	}
	for _, tt := range tests {
		if got := cfg.Excluded(tt.path); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsQualifiedName(t *testing.T) {
	for name, want := range map[string]bool{
		"java.lang": true,
		"kotlin":    true,
		"a.$b._c1":  true,
		"":          false,
		"java.":     false,
		".java":     false,
		"java.1x":   false,
	} {
		if got := IsQualifiedName(name); got != want {
			t.Errorf("IsQualifiedName(%q) = %v, want %v", name, got, want)
		}
	}
}
