package cli

import (
	"fmt"

	"github.com/covrig/covrig/internal/domain"
	"github.com/spf13/cobra"
)

func newPipelinesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "pipelines",
		Short: "Work with CI pipelines",
	}

	c.AddCommand(newPipelinesListCmd())
	return c
}

func newPipelinesListCmd() *cobra.Command {
	var wsFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available pipelines",
		RunE: func(_ *cobra.Command, _ []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			found, err := ws.pipelines.ListPipelines(ws.root)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Printf("no pipelines under %s\n", ws.conf.Paths.PipelinesDir)
				return nil
			}

			entries := make([]listEntry, 0, len(found))
			for _, ref := range found {
				e := listEntry{name: ref.Name, path: ref.Path}
				if p, loadErr := ws.pipelines.LoadPipeline(ref.Path); loadErr != nil {
					e.detail = unreadableNote(loadErr)
				} else {
					e.detail = fmt.Sprintf("runtime %s, %d setup, %d install, %d after_success",
						runtimeLabel(p.Runtime), len(p.Setup), len(p.Install), len(p.AfterSuccess))
				}
				entries = append(entries, e)
			}

			printListing(ws.root, ws.conf.Defaults.Pipeline, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	return cmd
}

// runtimeLabel summarizes where a pipeline's runtime version comes from:
// a pinned version, an environment variable, or nothing at all.
func runtimeLabel(r domain.RuntimeSpec) string {
	switch {
	case r.Version != "":
		return r.Version
	case r.FromEnv != "":
		return "$" + r.FromEnv
	default:
		return "unset"
	}
}
