package workdir

import (
	"os"
	"path/filepath"

	"github.com/covrig/covrig/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads covrig.yaml from the workspace root and applies defaults.
func LoadConfig(root string) (domain.Config, error) {
	conf := domain.DefaultConfig()

	path := filepath.Join(root, "covrig.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return conf, opErr("workdir.loadconfig", domain.FaultNotFound, path, err)
	}

	var file configFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return conf, opErr("workdir.loadconfig", domain.FaultBadConfig, path, err)
	}

	// Only values the file actually sets override the defaults.
	doc := file.Covrig
	if doc.Masking.Enabled != nil {
		conf.Masking.Enabled = *doc.Masking.Enabled
	}
	applyStr(&conf.Defaults.Environment, doc.Defaults.Environment)
	applyStr(&conf.Defaults.Suite, doc.Defaults.Suite)
	applyStr(&conf.Defaults.Pipeline, doc.Defaults.Pipeline)
	applyStr(&conf.Paths.SuitesDir, doc.Paths.SuitesDir)
	applyStr(&conf.Paths.PipelinesDir, doc.Paths.PipelinesDir)
	applyStr(&conf.Paths.EnvironmentsDir, doc.Paths.EnvironmentsDir)
	applyStr(&conf.Paths.ReportsDir, doc.Paths.ReportsDir)
	applyInt(&conf.Exec.TimeoutSec, doc.Exec.TimeoutSec)
	applyInt(&conf.Exec.MaxOutputKB, doc.Exec.MaxOutputKB)
	applyInt(&conf.Exec.Parallel, doc.Exec.Parallel)
	applyInt(&conf.Logging.MaxSizeMB, doc.Logging.MaxSizeMB)
	applyInt(&conf.Logging.MaxBackups, doc.Logging.MaxBackups)
	applyInt(&conf.Logging.MaxAgeDays, doc.Logging.MaxAgeDays)
	applyStr(&conf.Upload.ServiceURL, doc.Upload.ServiceURL)
	applyStr(&conf.Upload.TokenEnv, doc.Upload.TokenEnv)

	return conf, nil
}

func applyStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

type configFile struct {
	Covrig configDoc `yaml:"covrig"`
}

// configDoc mirrors the covrig.yaml schema. Pointer and zero-value fields
// distinguish "absent" from "set", so partial files stay partial.
type configDoc struct {
	Masking  maskingDoc  `yaml:"masking"`
	Defaults defaultsDoc `yaml:"defaults"`
	Paths    pathsDoc    `yaml:"paths"`
	Exec     execDoc     `yaml:"exec"`
	Logging  loggingDoc  `yaml:"logging"`
	Upload   uploadDoc   `yaml:"upload"`
}

type maskingDoc struct {
	Enabled *bool `yaml:"enabled"`
}

type defaultsDoc struct {
	Environment string `yaml:"env"`
	Suite       string `yaml:"suite"`
	Pipeline    string `yaml:"pipeline"`
}

type pathsDoc struct {
	SuitesDir       string `yaml:"suites_dir"`
	PipelinesDir    string `yaml:"pipelines_dir"`
	EnvironmentsDir string `yaml:"environments_dir"`
	ReportsDir      string `yaml:"reports_dir"`
}

type execDoc struct {
	TimeoutSec  int `yaml:"timeout_sec"`
	MaxOutputKB int `yaml:"max_output_kb"`
	Parallel    int `yaml:"parallel"`
}

type loggingDoc struct {
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
	MaxAgeDays int `yaml:"max_age_days"`
}

type uploadDoc struct {
	ServiceURL string `yaml:"service_url"`
	TokenEnv   string `yaml:"token_env"`
}
