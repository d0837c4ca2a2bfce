package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dvrgrab/internal/scheduler"
	"dvrgrab/internal/utils"
)

type batchEntry struct {
	URL    string `yaml:"url"`
	Type   string `yaml:"type"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Output string `yaml:"output"`
}

type batchFile struct {
	Jobs []batchEntry `yaml:"jobs"`
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [FILE]",
		Short: "Run multiple extractions from a YAML file",
		Long:  "Reads a YAML job list and runs the extractions across the worker pool. Each entry needs url, start and end; type defaults to clip.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading batch file: %v", err)
			}
			var batch batchFile
			if err := yaml.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("error parsing batch file: %v", err)
			}
			if len(batch.Jobs) == 0 {
				return fmt.Errorf("batch file has no jobs")
			}

			jobs := make([]*utils.Job, 0, len(batch.Jobs))
			for i, entry := range batch.Jobs {
				if entry.URL == "" {
					return fmt.Errorf("job %d has no url", i+1)
				}
				start, err := utils.ParseTimestamp(entry.Start)
				if err != nil {
					return fmt.Errorf("job %d: invalid start time: %v", i+1, err)
				}
				end := 0
				if entry.End != "" {
					end, err = utils.ParseTimestamp(entry.End)
					if err != nil {
						return fmt.Errorf("job %d: invalid end time: %v", i+1, err)
					}
				}
				jobType := entry.Type
				if jobType == "" {
					jobType = "clip"
				}
				jobs = append(jobs, &utils.Job{
					JobType:    jobType,
					URL:        entry.URL,
					OutputPath: entry.Output,
					Metadata: map[string]any{
						"start": float64(start),
						"end":   float64(end),
					},
					HTTPClientConfig: httpClientConfig(),
				})
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return scheduler.Run(ctx, jobs, globalWorkers)
		},
	}
	return cmd
}
