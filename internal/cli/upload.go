package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/infra/cienv"
	"github.com/covrig/covrig/internal/infra/uploader"
	"github.com/covrig/covrig/internal/usecase"
)

func newUploadCmd() *cobra.Command {
	var wsFlag string
	var service string

	c := &cobra.Command{
		Use:   "upload [report]",
		Short: "Upload a saved run report to the coverage service",
		Long: "Upload a saved run report (by id or path) to the configured coverage\n" +
			"service. With no argument the most recent report is uploaded. The repo\n" +
			"token is read from the environment, never from a flag.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			idOrPath := ""
			if len(args) > 0 {
				idOrPath = args[0]
			}

			meta, err := cienv.Load()
			if err != nil {
				return err
			}

			token := strings.TrimSpace(os.Getenv(ws.conf.Upload.TokenEnv))
			if token == "" {
				token = meta.RepoToken
			}

			serviceURL := ws.conf.Upload.ServiceURL
			if service != "" {
				serviceURL = service
			}

			up := uploader.New(serviceURL)
			uc := usecase.NewUploadReport(ws.reports, up)

			res, err := uc.Execute(cmd.Context(), idOrPath, meta.UploadMeta(), token)
			if err != nil {
				return err
			}

			fmt.Printf("uploaded (status=%d, attempts=%d)\n", res.StatusCode, res.Attempts)
			if res.URL != "" {
				fmt.Printf("report: %s\n", res.URL)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	c.Flags().StringVar(&service, "service", "", "Coverage service URL (overrides covrig.yaml)")

	return c
}
