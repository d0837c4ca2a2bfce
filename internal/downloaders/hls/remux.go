package hls

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"dvrgrab/internal/utils"
)

var ErrOutputMissing = errors.New("ffmpeg reported success but produced no output file")

// RemuxError carries ffmpeg's exit code and the tail of its stderr.
type RemuxError struct {
	ExitCode int
	Output   string
}

func (e *RemuxError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Output)
}

var ffmpegTimeRegex = regexp.MustCompile(`time=(\d+):(\d+):(\d+)`)

// writeConcatList writes an ffmpeg concat demuxer list referencing the
// downloaded segment files in order.
func writeConcatList(tempDir string, segmentPaths []string) (string, error) {
	listPath := filepath.Join(tempDir, "concat.txt")
	var b strings.Builder
	for _, p := range segmentPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("error writing concat list: %v", err)
	}
	return listPath, nil
}

// concatRemux stitches the segment files, trims to the requested range and
// writes the final MP4 with stream copy. trimOffset is the seek into the
// first segment, duration the length of the clip.
func concatRemux(ctx context.Context, listPath, outputPath string, trimOffset, duration float64, job *utils.Job) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-ss", formatSeconds(trimOffset),
		"-t", formatSeconds(duration),
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "+faststart",
		outputPath,
	}
	return runFFmpeg(ctx, args, outputPath, duration, 0.8, job)
}

// directRemux lets ffmpeg handle the seek itself by placing -ss before the
// input, which works on seekable VOD manifests without downloading segments.
func directRemux(ctx context.Context, manifestURL, outputPath string, start, duration float64, headerLines string, job *utils.Job) error {
	args := []string{"-y"}
	if headerLines != "" {
		args = append(args, "-headers", headerLines)
	}
	args = append(args, "-ss", formatSeconds(start), "-i", manifestURL)
	if duration > 0 {
		args = append(args, "-t", formatSeconds(duration))
	}
	args = append(args,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "+faststart",
		outputPath,
	)
	return runFFmpeg(ctx, args, outputPath, duration, 0, job)
}

// runFFmpeg executes ffmpeg with cooperative cancellation: SIGTERM on
// context cancel, then a hard kill after a short grace period. progressBase
// is where the remux phase starts on the job's bar.
func runFFmpeg(ctx context.Context, args []string, outputPath string, duration, progressBase float64, job *utils.Job) error {
	log.Debug().Str("op", "hls/remux").Msgf("Running ffmpeg %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("error creating stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting ffmpeg: %v", err)
	}

	// ffmpeg writes progress to stderr; scrape time= markers to move the
	// remux portion of the bar. Parsing is best effort.
	var tail []string
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
		if secs, ok := parseFFmpegTime(line); ok && duration > 0 {
			frac := secs / duration
			if frac > 1 {
				frac = 1
			}
			job.Progress(progressBase + (1-progressBase)*frac)
		}
		job.Stream(line)
	}

	err = cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &RemuxError{ExitCode: exitCode, Output: strings.Join(tail, "\n")}
	}
	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return ErrOutputMissing
	}
	log.Debug().Str("op", "hls/remux").Msgf("Wrote %s (%s)", outputPath, utils.FormatBytes(uint64(info.Size())))
	job.Progress(1)
	return nil
}

func parseFFmpegTime(line string) (float64, bool) {
	m := ffmpegTimeRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	return float64(h*3600 + mi*60 + s), true
}

func formatSeconds(secs float64) string {
	return strconv.FormatFloat(secs, 'f', 3, 64)
}

// EnsureFFmpeg checks that ffmpeg is available on PATH before any job runs.
func EnsureFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.New("ffmpeg not found in PATH")
	}
	return nil
}
