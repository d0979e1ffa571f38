package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuitesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "suites",
		Short: "Work with coverage suites",
	}

	c.AddCommand(newSuitesListCmd())
	return c
}

func newSuitesListCmd() *cobra.Command {
	var wsFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available coverage suites",
		RunE: func(_ *cobra.Command, _ []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			found, err := ws.suites.ListSuites(ws.root)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Printf("no suites under %s\n", ws.conf.Paths.SuitesDir)
				return nil
			}

			entries := make([]listEntry, 0, len(found))
			for _, ref := range found {
				e := listEntry{name: ref.Name, path: ref.Path}
				if s, loadErr := ws.suites.LoadSuite(ref.Path); loadErr != nil {
					e.detail = unreadableNote(loadErr)
				} else {
					e.detail = fmt.Sprintf("%s in %s via %s", s.Pattern, s.Dir, s.Tool.Command)
				}
				entries = append(entries, e)
			}

			printListing(ws.root, ws.conf.Defaults.Suite, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	return cmd
}
