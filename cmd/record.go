package cmd

import (
	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	var outputPath, startArg, endArg string
	cmd := &cobra.Command{
		Use:   "record [URL]",
		Short: "Extract a time range via streamlink",
		Long:  "Replays the DVR window through streamlink and trims the capture. Use this for streams whose manifests ffmpeg refuses to read directly.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRangeJob("record", args[0], outputPath, startArg, endArg)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&startArg, "start", "s", "", "range start (HH:MM:SS, MM:SS or seconds)")
	cmd.Flags().StringVarP(&endArg, "end", "e", "", "range end (HH:MM:SS, MM:SS or seconds)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}
