package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnvsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "envs",
		Short: "Work with workspace environments",
	}

	c.AddCommand(newEnvsListCmd())
	return c
}

func newEnvsListCmd() *cobra.Command {
	var wsFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available environments",
		RunE: func(_ *cobra.Command, _ []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			found, err := ws.envList.ListEnvironments(ws.root)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Printf("no environments under %s\n", ws.conf.Paths.EnvironmentsDir)
				return nil
			}

			entries := make([]listEntry, 0, len(found))
			for _, ref := range found {
				e := listEntry{name: ref.Name, path: ref.Path}
				if env, loadErr := ws.envs.LoadEnvironment(ref.Path); loadErr != nil {
					e.detail = unreadableNote(loadErr)
				} else {
					e.detail = fmt.Sprintf("%d vars", len(env.Vars))
				}
				entries = append(entries, e)
			}

			printListing(ws.root, ws.conf.Defaults.Environment, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	return cmd
}
