package streamlink

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"dvrgrab/internal/kick"
	"dvrgrab/internal/utils"
)

// Downloader captures a range by replaying the stream's DVR window through
// the streamlink tool and trimming the capture with ffmpeg. It is the
// fallback for streams whose manifests ffmpeg cannot consume directly.
type Downloader struct{}

func (d *Downloader) ValidateJob(job *utils.Job) error {
	if job.URL == "" {
		return fmt.Errorf("no URL provided")
	}
	start, startOK := job.Metadata["start"].(float64)
	end, endOK := job.Metadata["end"].(float64)
	if !startOK || !endOK {
		return fmt.Errorf("start and end times are required")
	}
	if start < 0 || end <= start {
		return fmt.Errorf("invalid time range")
	}
	if _, err := exec.LookPath("streamlink"); err != nil {
		return errors.New("streamlink not found in PATH")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.New("ffmpeg not found in PATH")
	}
	return nil
}

func (d *Downloader) BuildJob(job *utils.Job) error {
	if strings.Contains(job.URL, "kick.com/") && !strings.Contains(job.URL, ".m3u8") {
		client := kick.NewClient(job.HTTPClientConfig)
		manifestURL, title, err := client.ResolvePlaybackURL(job.URL)
		if err != nil {
			return err
		}
		job.Metadata["manifestURL"] = manifestURL
		if title != "" {
			job.Metadata["title"] = title
		}
	} else {
		job.Metadata["manifestURL"] = job.URL
	}
	tempDir := filepath.Join(utils.TempDirName, fmt.Sprintf("record_%d", time.Now().UnixMilli()))
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("error creating temporary directory: %v", err)
	}
	job.Metadata["tempDir"] = tempDir
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
