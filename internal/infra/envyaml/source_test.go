package envyaml

import (
	"os"
	"path/filepath"
	"testing"
)

// envFixture writes the given files into <root>/env and returns the root.
func envFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ws")
	dir := filepath.Join(root, "env")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for fname, body := range files {
		if err := os.WriteFile(filepath.Join(dir, fname), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", fname, err)
		}
	}
	return root
}

func TestLoadEnvironment_OverlayWins(t *testing.T) {
	root := envFixture(t, map[string]string{
		"ci.yaml":            "vars:\n  runtime_version: \"3.6\"\n  repo_token: base\n",
		"secrets.local.yaml": "vars:\n  repo_token: secret\n",
	})

	env, err := NewSource(root).LoadEnvironment("ci")
	if err != nil {
		t.Fatalf("LoadEnvironment(ci): %v", err)
	}

	if got := env.Vars["runtime_version"]; got != "3.6" {
		t.Fatalf("runtime_version = %q, want 3.6", got)
	}
	if got := env.Vars["repo_token"]; got != "secret" {
		t.Fatalf("repo_token = %q, want the overlay value secret", got)
	}
}

func TestLoadEnvironment_NoOverlayFile(t *testing.T) {
	root := envFixture(t, map[string]string{
		"local.yaml": "vars:\n  tests_dir: tests\n",
	})

	env, err := NewSource(root).LoadEnvironment("local")
	if err != nil {
		t.Fatalf("LoadEnvironment(local): %v", err)
	}

	if got := env.Vars["tests_dir"]; got != "tests" {
		t.Fatalf("tests_dir = %q, want tests", got)
	}
}

func TestLoadEnvironment_CustomOverlayName(t *testing.T) {
	root := envFixture(t, map[string]string{
		"ci.yaml":         "vars:\n  repo_token: base\n",
		"secrets.ci.yaml": "vars:\n  repo_token: override\n",
	})

	env, err := NewSource(root, WithOverlay("secrets.ci.yaml")).LoadEnvironment("ci")
	if err != nil {
		t.Fatalf("LoadEnvironment(ci): %v", err)
	}

	if got := env.Vars["repo_token"]; got != "override" {
		t.Fatalf("repo_token = %q, want override", got)
	}
}

func TestLoadEnvironment_UnknownName(t *testing.T) {
	root := envFixture(t, nil)

	if _, err := NewSource(root).LoadEnvironment("ci"); err == nil {
		t.Fatal("want an error for an environment with no file")
	}
}

func TestLoadEnvironment_YMLExtension(t *testing.T) {
	root := envFixture(t, map[string]string{
		"nightly.yml": "vars:\n  runtime_version: \"2.7\"\n",
	})

	env, err := NewSource(root).LoadEnvironment("nightly")
	if err != nil {
		t.Fatalf("LoadEnvironment(nightly): %v", err)
	}

	if env.Name != "nightly" {
		t.Fatalf("Name = %q, want nightly", env.Name)
	}
	if got := env.Vars["runtime_version"]; got != "2.7" {
		t.Fatalf("runtime_version = %q, want 2.7", got)
	}
}

func TestListEnvironments_SkipsOverlays(t *testing.T) {
	root := envFixture(t, map[string]string{
		"local.yaml":         "vars: {}\n",
		"ci.yaml":            "vars: {}\n",
		"secrets.local.yaml": "vars:\n  repo_token: x\n",
	})

	refs, err := NewSource(root).ListEnvironments(root)
	if err != nil {
		t.Fatalf("ListEnvironments: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("refs = %d, want 2", len(refs))
	}
	if refs[0].Name != "ci" || refs[1].Name != "local" {
		t.Fatalf("refs = %v, want ci then local", refs)
	}
}
