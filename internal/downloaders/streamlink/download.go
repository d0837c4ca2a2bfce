package streamlink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"dvrgrab/internal/utils"
)

var writtenRegex = regexp.MustCompile(`Written ([\d.]+ [KMG]?i?B)`)

// Download replays the DVR window from its start through streamlink, then
// trims the capture to the requested range with a stream-copy remux.
func (d *Downloader) Download(ctx context.Context, job *utils.Job) error {
	manifestURL := job.Metadata["manifestURL"].(string)
	start := job.Metadata["start"].(float64)
	end := job.Metadata["end"].(float64)
	tempDir := job.Metadata["tempDir"].(string)
	defer os.RemoveAll(tempDir)

	capturePath := filepath.Join(tempDir, "capture.ts")

	job.Status("downloading")
	job.Message("Capturing stream with streamlink")
	if err := d.capture(ctx, job, manifestURL, capturePath, end); err != nil {
		return err
	}

	job.Status("processing")
	job.Message("Trimming capture")
	if err := d.trim(ctx, capturePath, job.OutputPath, start, end-start); err != nil {
		os.Remove(job.OutputPath)
		return err
	}

	job.Progress(1)
	job.Message("Download complete")
	return nil
}

func (d *Downloader) capture(ctx context.Context, job *utils.Job, manifestURL, capturePath string, end float64) error {
	args := []string{
		"--hls-live-restart",
		"--hls-duration", fmt.Sprintf("%.0f", end),
		"--force-progress",
		"-o", capturePath,
		"hls://" + manifestURL,
		"best",
	}
	log.Debug().Str("op", "streamlink/download").Msgf("Running streamlink %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "streamlink", args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("error creating stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting streamlink: %v", err)
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if m := writtenRegex.FindStringSubmatch(line); m != nil {
			job.Message(fmt.Sprintf("Captured %s", m[1]))
		}
		job.Stream(line)
	}

	err = cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// 130 is streamlink's exit on interrupt after the duration limit hits.
	var exitErr *exec.ExitError
	if err != nil && (!errors.As(err, &exitErr) || exitErr.ExitCode() != 130) {
		return fmt.Errorf("streamlink failed: %v", err)
	}
	info, statErr := os.Stat(capturePath)
	if statErr != nil || info.Size() == 0 {
		return errors.New("streamlink produced no capture file")
	}
	return nil
}

func (d *Downloader) trim(ctx context.Context, capturePath, outputPath string, start, duration float64) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", capturePath,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "+faststart",
		outputPath,
	}
	log.Debug().Str("op", "streamlink/download").Msgf("Running ffmpeg %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		tail := string(out)
		if len(tail) > 1000 {
			tail = tail[len(tail)-1000:]
		}
		return fmt.Errorf("ffmpeg trim failed: %s", tail)
	}
	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return errors.New("ffmpeg reported success but produced no output file")
	}
	return nil
}
