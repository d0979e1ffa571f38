package pipelineyaml

type pipelineDoc struct {
	Name string `yaml:"name"`

	Runtime runtimeDoc        `yaml:"runtime"`
	Env     map[string]string `yaml:"env"`

	Setup   []stepDoc `yaml:"setup"`
	Install []stepDoc `yaml:"install"`

	Script       *stepDoc  `yaml:"script"`
	AfterSuccess []stepDoc `yaml:"after_success"`
}

type runtimeDoc struct {
	Version string `yaml:"version"`
	FromEnv string `yaml:"from_env"`
}

type stepDoc struct {
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
	When string `yaml:"when"`

	Env        map[string]string `yaml:"env"`
	TimeoutSec int               `yaml:"timeout_sec"`
}
