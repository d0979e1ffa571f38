package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/infra/envyaml"
	"github.com/covrig/covrig/internal/infra/modinfo"
	"github.com/covrig/covrig/internal/infra/pipelineyaml"
	"github.com/covrig/covrig/internal/infra/profile"
	"github.com/covrig/covrig/internal/infra/runstore"
	"github.com/covrig/covrig/internal/infra/scriptscan"
	"github.com/covrig/covrig/internal/infra/shellrunner"
	"github.com/covrig/covrig/internal/infra/suiteyaml"
	"github.com/covrig/covrig/internal/infra/workdir"
	"github.com/covrig/covrig/internal/ports"
)

// envSelector is checked between the --env flag and the covrig.yaml default.
const envSelector = "COVRIG_ENV"

type wsContext struct {
	root string
	conf domain.Config

	suites    ports.SuiteLoader
	pipelines ports.PipelineLoader

	envs    ports.EnvironmentSource
	envList ports.EnvironmentLister

	scanner  ports.TargetScanner
	runner   ports.CommandRunner
	profiles ports.ProfileReader

	store   ports.ReportWriter
	reports ports.ReportReader
}

// openWorkspace locates the workspace root, reads covrig.yaml, and wires the
// adapters every command shares.
func openWorkspace(wsFlag string) (*wsContext, error) {
	root, err := resolveWorkspaceRoot(wsFlag)
	if err != nil {
		return nil, err
	}
	conf, err := workdir.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	envSrc := envyaml.NewSource(root, envyaml.WithDir(conf.Paths.EnvironmentsDir))
	reportStore := runstore.New(root, conf, runstore.WithIndex(true))

	return &wsContext{
		root: root,
		conf: conf,
		suites: suiteyaml.NewSource(
			suiteyaml.WithSuitesDir(conf.Paths.SuitesDir),
			suiteyaml.WithDefaultSource(modinfo.SourcePackage(root)),
		),
		pipelines: pipelineyaml.NewSource(pipelineyaml.WithPipelinesDir(conf.Paths.PipelinesDir)),
		envs:      envSrc,
		envList:   envSrc,
		scanner:   scriptscan.NewScanner(),
		runner: shellrunner.New(
			shellrunner.WithDefaultTimeout(time.Duration(conf.Exec.TimeoutSec)*time.Second),
			shellrunner.WithMaxOutputBytes(int64(conf.Exec.MaxOutputKB)*1024),
		),
		profiles: profile.NewReader(),
		store:    reportStore,
		reports:  reportStore,
	}, nil
}

func resolveWorkspaceRoot(raw string) (string, error) {
	if flag := strings.TrimSpace(raw); flag != "" {
		full, err := filepath.Abs(flag)
		if err != nil {
			return "", fmt.Errorf("bad workspace path %q: %w", flag, err)
		}
		return full, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	root, err := workdir.NewLocator().FindRoot(cwd)
	if err != nil {
		return "", fmt.Errorf("no workspace found from %q (tip: run `covrig init`): %w", cwd, err)
	}
	return root, nil
}

func resolveSuitePath(ws *wsContext, arg string) (string, error) {
	sel := strings.TrimSpace(arg)
	if sel == "" {
		sel = ws.conf.Defaults.Suite
	}
	if sel == "" {
		return "", fmt.Errorf("suite is required (pass a name or set defaults.suite in covrig.yaml)")
	}

	return resolveResourcePath(ws.root, ws.conf.Paths.SuitesDir, "suite", sel, func(name string) string {
		found, err := ws.suites.ListSuites(ws.root)
		if err != nil {
			return ""
		}
		for _, ref := range found {
			if strings.EqualFold(ref.Name, name) {
				return ref.Path
			}
		}
		return ""
	})
}

func resolvePipelinePath(ws *wsContext, arg string) (string, error) {
	sel := strings.TrimSpace(arg)
	if sel == "" {
		sel = ws.conf.Defaults.Pipeline
	}
	if sel == "" {
		return "", fmt.Errorf("pipeline is required (pass a name or set defaults.pipeline in covrig.yaml)")
	}

	return resolveResourcePath(ws.root, ws.conf.Paths.PipelinesDir, "pipeline", sel, func(name string) string {
		found, err := ws.pipelines.ListPipelines(ws.root)
		if err != nil {
			return ""
		}
		for _, ref := range found {
			if strings.EqualFold(ref.Name, name) {
				return ref.Path
			}
		}
		return ""
	})
}

// resolveResourcePath maps a user-supplied suite or pipeline argument onto a
// file in the workspace. Order: an explicit path wins, then a file under the
// resource dir (with .yaml/.yml probed for bare names), then a
// case-insensitive match on the YAML name field.
func resolveResourcePath(root, dir, kind, sel string, byName func(string) string) (string, error) {
	if hasPathSep(sel) {
		return absUnder(root, sel), nil
	}

	resourceDir := filepath.Join(root, dir)

	var candidates []string
	if isYAMLName(sel) {
		candidates = []string{filepath.Join(resourceDir, sel)}
	} else {
		candidates = []string{
			filepath.Join(resourceDir, sel+".yaml"),
			filepath.Join(resourceDir, sel+".yml"),
		}
	}
	for _, p := range candidates {
		if isFile(p) {
			return p, nil
		}
	}

	if p := byName(sel); p != "" {
		return p, nil
	}

	return "", fmt.Errorf("%s %q not found in %q", kind, sel, resourceDir)
}

// resolveEnvironmentArg picks the environment set: --env flag, then the
// COVRIG_ENV variable, then the covrig.yaml default.
func resolveEnvironmentArg(ws *wsContext, arg string) (string, error) {
	sel := strings.TrimSpace(arg)
	if sel == "" {
		sel = strings.TrimSpace(os.Getenv(envSelector))
	}
	if sel == "" {
		return ws.conf.Defaults.Environment, nil
	}

	if hasPathSep(sel) {
		return absUnder(ws.root, sel), nil
	}

	// A bare filename lands under the env dir; a bare name is left for the
	// loader to resolve.
	if isYAMLName(sel) {
		return filepath.Join(ws.root, ws.conf.Paths.EnvironmentsDir, sel), nil
	}
	return sel, nil
}

// absUnder anchors a relative path at the workspace root.
func absUnder(root, rel string) string {
	if !filepath.IsAbs(rel) {
		rel = filepath.Join(root, rel)
	}
	return filepath.Clean(rel)
}

func hasPathSep(s string) bool {
	return strings.ContainsRune(s, '/') || strings.ContainsRune(s, filepath.Separator)
}

func isYAMLName(s string) bool {
	switch strings.ToLower(filepath.Ext(s)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// isFile probes candidate descriptor files, so directories do not count.
func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
