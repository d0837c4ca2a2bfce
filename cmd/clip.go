package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dvrgrab/internal/scheduler"
	"dvrgrab/internal/utils"
)

func newClipCmd() *cobra.Command {
	var outputPath, startArg, endArg string
	cmd := &cobra.Command{
		Use:   "clip [URL]",
		Short: "Extract a time range at segment accuracy",
		Long:  "Downloads only the DVR segments overlapping the requested range and trims the result to the exact boundaries. URL can be a kick.com channel or VOD page, or any m3u8 manifest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRangeJob("clip", args[0], outputPath, startArg, endArg)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&startArg, "start", "s", "", "range start (HH:MM:SS, MM:SS or seconds)")
	cmd.Flags().StringVarP(&endArg, "end", "e", "", "range end (HH:MM:SS, MM:SS or seconds; defaults to end of window)")
	cmd.MarkFlagRequired("start")
	return cmd
}

func runRangeJob(jobType, url, outputPath, startArg, endArg string) error {
	start, err := utils.ParseTimestamp(startArg)
	if err != nil {
		return fmt.Errorf("invalid start time: %v", err)
	}
	end := 0
	if endArg != "" {
		end, err = utils.ParseTimestamp(endArg)
		if err != nil {
			return fmt.Errorf("invalid end time: %v", err)
		}
	}

	job := &utils.Job{
		JobType:    jobType,
		URL:        url,
		OutputPath: outputPath,
		Metadata: map[string]any{
			"start": float64(start),
			"end":   float64(end),
		},
		HTTPClientConfig: httpClientConfig(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return scheduler.Run(ctx, []*utils.Job{job}, 1)
}
