package cmd

import (
	"github.com/spf13/cobra"

	"dvrgrab/internal/output"
	"dvrgrab/internal/utils"
)

func newCleanCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover scratch directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.CleanFunction(dir); err != nil {
				return err
			}
			output.PrintSuccess("Removed temporary files")
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory holding the scratch space")
	return cmd
}
