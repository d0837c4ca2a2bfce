package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dvrgrab/internal/downloaders/hls"
	"dvrgrab/internal/output"
	"dvrgrab/internal/utils"
)

func newAnalyzeCmd() *cobra.Command {
	var showSegments bool
	cmd := &cobra.Command{
		Use:   "analyze [URL]",
		Short: "Inspect a stream's DVR window",
		Long:  "Fetches the manifest and reports how much of the stream is available for extraction, without downloading anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			job := &utils.Job{URL: args[0], Metadata: map[string]any{}, HTTPClientConfig: httpClientConfig()}
			if err := hls.ResolveManifest(job); err != nil {
				return err
			}
			manifestURL := job.Metadata["manifestURL"].(string)

			client := utils.NewGrabHTTPClient(job.HTTPClientConfig)
			segments, err := hls.FetchManifest(ctx, manifestURL, client)
			if err != nil {
				return err
			}
			timeline, total, err := hls.BuildTimeline(segments)
			if err != nil {
				return err
			}

			output.PrintHeader("DVR Window")
			if title, ok := job.Metadata["title"].(string); ok && title != "" {
				output.PrintInfo(fmt.Sprintf("Title:    %s", title))
			}
			output.PrintInfo(fmt.Sprintf("Manifest: %s", manifestURL))
			output.PrintInfo(fmt.Sprintf("Segments: %d", len(segments)))
			output.PrintInfo(fmt.Sprintf("Window:   %s (%.1fs)", formatDuration(total), total))
			if showSegments {
				for _, seg := range timeline {
					output.PrintDetail(fmt.Sprintf("#%04d  %9.2fs - %9.2fs  %s", seg.Index, seg.Start, seg.End, seg.URI))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSegments, "segments", false, "list every segment with its time placement")
	return cmd
}

func formatDuration(secs float64) string {
	s := int(secs)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
