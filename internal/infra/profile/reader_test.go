package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/covrig/covrig/internal/domain"
)

const sampleProfile = `mode: set
example.com/pkg/a.go:5.10,7.2 2 1
example.com/pkg/a.go:9.10,11.2 2 0
example.com/pkg/b.go:3.10,4.2 1 3
`

func TestReadProfile_Aggregates(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "cover.out")
	if err := os.WriteFile(p, []byte(sampleProfile), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewReader()
	sum, err := r.ReadProfile(p)
	if err != nil {
		t.Fatalf("ReadProfile error: %v", err)
	}

	if sum.Mode != "set" {
		t.Fatalf("expected mode=set, got=%s", sum.Mode)
	}
	if len(sum.Files) != 2 {
		t.Fatalf("expected 2 files, got=%d", len(sum.Files))
	}

	a := sum.Files[0]
	if a.Name != "example.com/pkg/a.go" {
		t.Fatalf("unexpected file order: %s", a.Name)
	}
	if a.Covered != 2 || a.Total != 4 {
		t.Fatalf("expected a.go 2/4, got %d/%d", a.Covered, a.Total)
	}
	if a.Percent != 50 {
		t.Fatalf("expected a.go 50%%, got %v", a.Percent)
	}

	if sum.Covered != 3 || sum.Total != 5 {
		t.Fatalf("expected summary 3/5, got %d/%d", sum.Covered, sum.Total)
	}
	if sum.Percent != 60 {
		t.Fatalf("expected 60%%, got %v", sum.Percent)
	}
}

func TestReadProfile_Missing(t *testing.T) {
	r := NewReader()
	_, err := r.ReadProfile(filepath.Join(t.TempDir(), "nope.out"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.HasKind(err, domain.FaultNotFound) {
		t.Fatalf("expected FaultNotFound, got %v", err)
	}
}

func TestReadProfile_Malformed(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "cover.out")
	if err := os.WriteFile(p, []byte("not a profile\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewReader()
	_, err := r.ReadProfile(p)
	if !domain.HasKind(err, domain.FaultBadConfig) {
		t.Fatalf("expected FaultBadConfig, got %v", err)
	}
}
