package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dvrgrab/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr, outputDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Starts the HTTP API for analyzing streams and managing range downloads as background tasks, with progress available over server-sent events.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir != "" {
				if err := os.MkdirAll(outputDir, 0755); err != nil {
					return fmt.Errorf("error creating output directory: %v", err)
				}
			}
			return server.New(outputDir, httpClientConfig()).ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&outputDir, "dir", "d", "downloads", "directory for finished files")
	return cmd
}
