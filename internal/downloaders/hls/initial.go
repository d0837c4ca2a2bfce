package hls

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dvrgrab/internal/kick"
	"dvrgrab/internal/utils"
)

// ClipDownloader extracts a time range from a live stream's DVR window by
// downloading only the segments that overlap the range.
type ClipDownloader struct{}

// DirectDownloader hands the manifest straight to ffmpeg and lets it seek,
// trading segment accuracy for a single process and no scratch space.
type DirectDownloader struct{}

func (d *ClipDownloader) ValidateJob(job *utils.Job) error {
	return validateRangeJob(job)
}

func (d *DirectDownloader) ValidateJob(job *utils.Job) error {
	return validateRangeJob(job)
}

func validateRangeJob(job *utils.Job) error {
	if job.URL == "" {
		return fmt.Errorf("no URL provided")
	}
	start, startOK := job.Metadata["start"].(float64)
	end, endOK := job.Metadata["end"].(float64)
	if !startOK || !endOK {
		return fmt.Errorf("start and end times are required")
	}
	if start < 0 {
		return fmt.Errorf("start time cannot be negative")
	}
	// end of 0 means "to the end of the window"
	if end < 0 {
		return fmt.Errorf("end time cannot be negative")
	}
	if end > 0 && end <= start {
		return fmt.Errorf("end time must be after start time")
	}
	if err := EnsureFFmpeg(); err != nil {
		return err
	}
	return nil
}

func (d *ClipDownloader) BuildJob(job *utils.Job) error {
	if err := ResolveManifest(job); err != nil {
		return err
	}
	tempDir := filepath.Join(utils.TempDirName, fmt.Sprintf("clip_%d", time.Now().UnixMilli()))
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("error creating temporary directory: %v", err)
	}
	job.Metadata["tempDir"] = tempDir
	return buildOutputPath(job)
}

func (d *DirectDownloader) BuildJob(job *utils.Job) error {
	if err := ResolveManifest(job); err != nil {
		return err
	}
	return buildOutputPath(job)
}

// ResolveManifest turns a Kick channel or VOD page URL into its playback
// manifest and stores it in the job metadata. Anything else is assumed to
// already be an m3u8 URL.
func ResolveManifest(job *utils.Job) error {
	if !strings.Contains(job.URL, "kick.com/") || strings.Contains(job.URL, ".m3u8") {
		job.Metadata["manifestURL"] = job.URL
		return nil
	}
	client := kick.NewClient(job.HTTPClientConfig)
	manifestURL, title, err := client.ResolvePlaybackURL(job.URL)
	if err != nil {
		return err
	}
	job.Metadata["manifestURL"] = manifestURL
	if title != "" && job.Metadata["title"] == nil {
		job.Metadata["title"] = title
	}
	return nil
}

func buildOutputPath(job *utils.Job) error {
	if job.OutputPath == "" {
		name := "stream"
		if title, ok := job.Metadata["title"].(string); ok && title != "" {
			name = utils.SanitizeFilename(title)
		}
		job.OutputPath = fmt.Sprintf("%s_%d.mp4", name, time.Now().Unix())
	}
	if !strings.HasSuffix(strings.ToLower(job.OutputPath), ".mp4") {
		job.OutputPath += ".mp4"
	}
	job.OutputPath = utils.RenewOutputPath(job.OutputPath)
	return nil
}
