package hls

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"dvrgrab/internal/utils"
)

// Download runs the full clip pipeline: fetch the manifest, place its
// segments on a timeline, pick the overlapping range, pull those segments
// and hand them to ffmpeg for concat and trim. The scratch directory is
// removed on every exit path, success or not.
func (d *ClipDownloader) Download(ctx context.Context, job *utils.Job) error {
	manifestURL := job.Metadata["manifestURL"].(string)
	start := job.Metadata["start"].(float64)
	end := job.Metadata["end"].(float64)
	tempDir := job.Metadata["tempDir"].(string)
	defer os.RemoveAll(tempDir)

	client := utils.NewGrabHTTPClient(job.HTTPClientConfig)

	job.Status("downloading")
	job.Message("Fetching manifest")
	segments, err := FetchManifest(ctx, manifestURL, client)
	if err != nil {
		return err
	}

	timeline, total, err := BuildTimeline(segments)
	if err != nil {
		return err
	}
	log.Debug().Str("op", "hls/download").Msgf("Timeline covers %.1fs across %d segments", total, len(timeline))
	if end <= 0 {
		end = total
	}

	selected, err := SelectRange(timeline, start, end)
	if err != nil {
		return err
	}
	job.Message(fmt.Sprintf("Selected %d of %d segments", len(selected), len(timeline)))

	paths, err := downloadSegments(ctx, selected, tempDir, client, job)
	if err != nil {
		return err
	}

	listPath, err := writeConcatList(tempDir, paths)
	if err != nil {
		return err
	}

	job.Status("processing")
	job.Message("Trimming and remuxing")
	trimOffset := TrimOffset(selected, start)
	duration := ClipDuration(start, end, total)
	if err := concatRemux(ctx, listPath, job.OutputPath, trimOffset, duration, job); err != nil {
		os.Remove(job.OutputPath)
		return err
	}

	job.Message("Download complete")
	return nil
}
