package fsworkspace

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Seeder seeds a covrig workspace: the marker config, starter suite,
// pipeline and environment files, and the directories runs write into.
type Seeder struct{}

func NewSeeder() *Seeder {
	return &Seeder{}
}

var workspaceDirs = []string{
	"suites",
	"pipelines",
	"env",
	"reports",
	filepath.Join(".covrig", "logs"),
}

func (s *Seeder) Seed(root string, force bool) error {
	root = filepath.Clean(root)

	for _, d := range workspaceDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return err
		}
	}

	if err := seedTemplates(root, force); err != nil {
		return err
	}

	return seedGitignore(root)
}

func seedTemplates(root string, force bool) error {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return err
	}
	return fs.WalkDir(sub, ".", func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			return nil
		}

		target := filepath.Join(root, p)
		if _, statErr := os.Stat(target); statErr == nil && !force {
			return nil
		}

		b, err := fs.ReadFile(sub, p)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, b, seedMode(p))
	})
}

// seedMode keeps the secrets seed readable by the owner only.
func seedMode(name string) fs.FileMode {
	if strings.Contains(strings.ToLower(name), "secrets") {
		return 0o600
	}
	return 0o644
}

const gitignoreHeader = "# covrig"

var gitignoreEntries = []string{
	"reports/",
	".covrig/",
	"env/secrets.local.yaml",
}

// seedGitignore creates .gitignore or appends the covrig entries that are
// not already present, leaving unrelated lines untouched.
func seedGitignore(root string) error {
	file := filepath.Join(root, ".gitignore")

	existing, err := os.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	seen := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(existing))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			seen[line] = true
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	var add []string
	for _, e := range gitignoreEntries {
		if !seen[e] {
			add = append(add, e)
		}
	}
	if len(add) == 0 {
		return nil
	}

	var b bytes.Buffer
	b.Write(existing)
	if n := len(existing); n > 0 {
		if existing[n-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if !seen[gitignoreHeader] {
		b.WriteString(gitignoreHeader)
		b.WriteByte('\n')
	}
	for _, e := range add {
		b.WriteString(e)
		b.WriteByte('\n')
	}

	return os.WriteFile(file, b.Bytes(), 0o644)
}
