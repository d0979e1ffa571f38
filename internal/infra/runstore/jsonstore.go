package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

const defaultReportsDir = "reports"

// maskValue replaces secret-bearing values in saved reports.
const maskValue = "[redacted]"

type Store struct {
	root    string
	dir     string
	mask    bool
	indexed bool
	clock   func() time.Time
}

type Option func(*Store)

// WithIndex appends one JSONL line per save to <reports>/index.jsonl, so
// other tooling can tail run history without decoding every report.
func WithIndex(on bool) Option {
	return func(s *Store) { s.indexed = on }
}

// WithClock pins the clock; tests use it for stable filenames.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(root string, conf domain.Config, opts ...Option) *Store {
	s := &Store{
		root:  root,
		dir:   conf.Paths.ReportsDir,
		mask:  conf.Masking.Enabled,
		clock: time.Now,
	}
	if strings.TrimSpace(s.dir) == "" {
		s.dir = defaultReportsDir
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ ports.ReportWriter = (*Store)(nil)
var _ ports.ReportReader = (*Store)(nil)

// storeErr tags a filesystem failure with the runstore op that hit it.
func storeErr(op string, kind domain.FaultKind, path string, err error) error {
	return &domain.Fault{Op: op, Kind: kind, Path: path, Err: err}
}

func (s *Store) SaveReport(report domain.RunReport) (string, error) {
	dest := filepath.Join(s.root, s.dir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", storeErr("runstore.mkdir", domain.FaultExec, dest, err)
	}

	saved := report
	if saved.StartedAt.IsZero() {
		saved.StartedAt = s.clock().UTC()
	}

	base := saved.StartedAt.UTC().Format("20060102T150405Z") + "_" + slugFor(report)
	id := base
	path := filepath.Join(dest, id+".json")

	// Same-second reruns get a numeric suffix instead of clobbering.
	for n := 2; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		id = fmt.Sprintf("%s_%d", base, n)
		path = filepath.Join(dest, id+".json")
	}

	if s.mask {
		saved = maskReport(saved)
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", storeErr("runstore.marshal", domain.FaultExec, path, err)
	}

	if err := writeReportFile(path, data); err != nil {
		return "", err
	}

	if s.indexed {
		_ = s.appendIndex(dest, id, report)
	}

	return id, nil
}

// slugFor picks the filename slug: the report name when set, the file stem of
// its definition otherwise, "run" when neither survives slugging.
func slugFor(report domain.RunReport) string {
	name := report.Name
	if strings.TrimSpace(name) == "" {
		base := filepath.Base(report.Path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if slug := slugify(name); slug != "" {
		return slug
	}
	return "run"
}

// writeReportFile stages the bytes in a sidecar file and renames it into
// place; readers never observe a partially written report.
func writeReportFile(path string, data []byte) error {
	stage := path + ".tmp"
	if err := os.WriteFile(stage, data, 0o600); err != nil {
		return storeErr("runstore.write", domain.FaultExec, stage, err)
	}
	if err := os.Rename(stage, path); err != nil {
		_ = os.Remove(stage)
		return storeErr("runstore.rename", domain.FaultExec, path, err)
	}
	return nil
}

// LoadReport reads a saved report back. idOrPath may be a run id, a filename
// under the reports directory, or a path to a report file.
func (s *Store) LoadReport(idOrPath string) (domain.RunReport, string, error) {
	dest := filepath.Join(s.root, s.dir)

	candidates := []string{
		idOrPath,
		filepath.Join(dest, idOrPath),
		filepath.Join(dest, idOrPath+".json"),
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return s.readReport(path)
	}

	return domain.RunReport{}, "", storeErr("runstore.load", domain.FaultNotFound, idOrPath, fmt.Errorf("no report matches %q", idOrPath))
}

// LatestReport returns the most recently saved report. Filenames start with a
// UTC timestamp, so lexical order is chronological.
func (s *Store) LatestReport() (domain.RunReport, string, error) {
	dest := filepath.Join(s.root, s.dir)

	ents, err := os.ReadDir(dest)
	if err != nil {
		return domain.RunReport{}, "", storeErr("runstore.latest", domain.FaultNotFound, dest, err)
	}

	latest := ""
	for _, ent := range ents {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		if ent.Name() > latest {
			latest = ent.Name()
		}
	}
	if latest == "" {
		return domain.RunReport{}, "", storeErr("runstore.latest", domain.FaultNotFound, dest, fmt.Errorf("no reports saved yet"))
	}

	return s.readReport(filepath.Join(dest, latest))
}

func (s *Store) readReport(path string) (domain.RunReport, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.RunReport{}, "", storeErr("runstore.read", domain.FaultNotFound, path, err)
	}

	var report domain.RunReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.RunReport{}, "", storeErr("runstore.decode", domain.FaultBadConfig, path, err)
	}
	return report, path, nil
}

func (s *Store) appendIndex(dest, id string, report domain.RunReport) error {
	type row struct {
		RunID   string           `json:"id"`
		Kind    domain.RunKind   `json:"kind"`
		Name    string           `json:"name"`
		EnvName string           `json:"env"`
		Status  domain.RunStatus `json:"status"`
		Began   time.Time        `json:"started_at"`
		File    string           `json:"file"`
	}
	line, err := json.Marshal(row{
		RunID:   id,
		Kind:    report.Kind,
		Name:    report.Name,
		EnvName: report.EnvName,
		Status:  report.Status,
		Began:   report.StartedAt,
		File:    id + ".json",
	})
	if err != nil {
		return err
	}

	fh, err := os.OpenFile(filepath.Join(dest, "index.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer fh.Close()

	if _, err := fh.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

// maskReport redacts secret-bearing values on a copy; the caller's report is
// left untouched.
func maskReport(report domain.RunReport) domain.RunReport {
	out := report
	out.EnvVars = maskVars(report.EnvVars)
	out.Extracted = maskVars(report.Extracted)
	return out
}

func maskVars(vars domain.Vars) domain.Vars {
	if vars == nil {
		return nil
	}
	out := make(domain.Vars, len(vars))
	for key, val := range vars {
		if hasSecretMarker(key) {
			val = maskValue
		}
		out[key] = val
	}
	return out
}

var sensitiveMarkers = []string{"token", "secret", "password"}

func hasSecretMarker(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// slugify flattens a display name into a filename-safe token: lowercase, with
// every run of non-alphanumeric characters collapsed to a single dash.
func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	words := strings.FieldsFunc(name, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(words, "-")
}
