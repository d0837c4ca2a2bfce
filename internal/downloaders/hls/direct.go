package hls

import (
	"context"
	"os"

	"dvrgrab/internal/utils"
)

// Download seeks within the manifest with a single ffmpeg invocation. Seek
// accuracy depends on ffmpeg's keyframe handling, so cuts can land slightly
// off the requested boundary. Use the clip pipeline when that matters.
func (d *DirectDownloader) Download(ctx context.Context, job *utils.Job) error {
	manifestURL := job.Metadata["manifestURL"].(string)
	start := job.Metadata["start"].(float64)
	end := job.Metadata["end"].(float64)

	// an unset end leaves the duration cap off; ffmpeg copies to stream end
	duration := 0.0
	if end > 0 {
		duration = end - start
	}

	job.Status("processing")
	job.Message("Extracting range with ffmpeg")
	err := directRemux(ctx, manifestURL, job.OutputPath, start, duration, job.HTTPClientConfig.HeaderLines(), job)
	if err != nil {
		os.Remove(job.OutputPath)
		return err
	}
	job.Message("Download complete")
	return nil
}
