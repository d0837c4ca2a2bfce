package cmd

import (
	"github.com/spf13/cobra"
)

func newGrabCmd() *cobra.Command {
	var outputPath, startArg, endArg string
	cmd := &cobra.Command{
		Use:   "grab [URL]",
		Short: "Extract a time range with a single ffmpeg seek",
		Long:  "Hands the manifest to ffmpeg and lets it seek to the range. Faster than clip and needs no scratch space, but cut points follow keyframes rather than segment boundaries.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRangeJob("grab", args[0], outputPath, startArg, endArg)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&startArg, "start", "s", "", "range start (HH:MM:SS, MM:SS or seconds)")
	cmd.Flags().StringVarP(&endArg, "end", "e", "", "range end (HH:MM:SS, MM:SS or seconds; defaults to end of window)")
	cmd.MarkFlagRequired("start")
	return cmd
}
