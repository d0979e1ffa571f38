package domain

// Config is the workspace configuration read from covrig.yaml.
type Config struct {
	Masking  MaskingPolicy
	Defaults RunDefaults
	Paths    WorkspacePaths
	Exec     ExecLimits
	Logging  LogRotation
	Upload   UploadTarget
}

type MaskingPolicy struct {
	Enabled bool
}

type RunDefaults struct {
	Environment string
	Suite       string
	Pipeline    string
}

type WorkspacePaths struct {
	SuitesDir       string
	PipelinesDir    string
	EnvironmentsDir string
	ReportsDir      string
}

// ExecLimits bounds external command execution.
type ExecLimits struct {
	TimeoutSec  int
	MaxOutputKB int
	Parallel    int
}

// LogRotation controls rotation of the workspace log file.
type LogRotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// UploadTarget points at the coverage-report service.
type UploadTarget struct {
	ServiceURL string
	TokenEnv   string
}

// DefaultConfig returns the built-in settings; covrig.yaml overrides them field by field.
func DefaultConfig() Config {
	return Config{
		Masking: MaskingPolicy{Enabled: true},
		Defaults: RunDefaults{
			Environment: "local",
			Suite:       "coverage",
			Pipeline:    "ci",
		},
		Paths: WorkspacePaths{
			SuitesDir:       "suites",
			PipelinesDir:    "pipelines",
			EnvironmentsDir: "env",
			ReportsDir:      "reports",
		},
		Exec: ExecLimits{
			TimeoutSec:  300,
			MaxOutputKB: 256,
			Parallel:    1,
		},
		Logging: LogRotation{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Upload: UploadTarget{
			TokenEnv: "COVRIG_REPO_TOKEN",
		},
	}
}
