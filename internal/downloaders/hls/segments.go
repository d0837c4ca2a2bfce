package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"dvrgrab/internal/utils"
)

// SegmentError identifies which segment of a selection failed and why.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d download failed: %v", e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// downloadSegments fetches the selection sequentially into tempDir and
// returns local paths in selection order. The first failure aborts the whole
// download with no retry: the DVR window keeps sliding while we fetch, so a
// segment that failed once may already be evicted and any partial result
// would cover the wrong range.
func downloadSegments(ctx context.Context, selected []TimedSegment, tempDir string, client *utils.GrabHTTPClient, job *utils.Job) ([]string, error) {
	paths := make([]string, 0, len(selected))
	for i, seg := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		localPath := filepath.Join(tempDir, fmt.Sprintf("segment_%05d.ts", i))
		if err := downloadSegment(ctx, seg.URI, localPath, client); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &SegmentError{Index: seg.Index, Err: err}
		}
		paths = append(paths, localPath)
		job.Message(fmt.Sprintf("Downloading segments (%d/%d)", i+1, len(selected)))
		// Download covers the first 80% of the task; remux gets the rest.
		job.Progress(0.8 * float64(i+1) / float64(len(selected)))
		log.Debug().Str("op", "hls/segments").Msgf("Downloaded segment %d/%d", i+1, len(selected))
	}
	return paths, nil
}

func downloadSegment(ctx context.Context, segmentURL, localPath string, client *utils.GrabHTTPClient) error {
	req, err := http.NewRequestWithContext(ctx, "GET", segmentURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading segment: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status code %d", resp.StatusCode)
	}
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("error creating segment file: %v", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("error writing segment file: %v", err)
	}
	return nil
}
