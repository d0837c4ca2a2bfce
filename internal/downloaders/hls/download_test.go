package hls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// Cancelling mid-download must abort the job and leave no scratch behind.
func TestClipDownloadCancelCleansScratch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/playlist.m3u8" {
			fmt.Fprint(w, mediaPlaylist)
			return
		}
		// First segment request: pull the plug.
		cancel()
		fmt.Fprint(w, "ts data")
	}))
	defer srv.Close()

	tempDir := filepath.Join(t.TempDir(), "clip_1")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	job := testJob(nil)
	job.OutputPath = filepath.Join(t.TempDir(), "out.mp4")
	job.Metadata["manifestURL"] = srv.URL + "/playlist.m3u8"
	job.Metadata["start"] = 5.0
	job.Metadata["end"] = 15.0
	job.Metadata["tempDir"] = tempDir

	d := &ClipDownloader{}
	err := d.Download(ctx, job)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(tempDir); !os.IsNotExist(statErr) {
		t.Errorf("scratch dir should be removed, stat err = %v", statErr)
	}
	if _, statErr := os.Stat(job.OutputPath); !os.IsNotExist(statErr) {
		t.Errorf("no output file should exist, stat err = %v", statErr)
	}
}

func TestClipDownloadRangeNotCovered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mediaPlaylist)
	}))
	defer srv.Close()

	tempDir := filepath.Join(t.TempDir(), "clip_2")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	job := testJob(nil)
	job.OutputPath = filepath.Join(t.TempDir(), "out.mp4")
	job.Metadata["manifestURL"] = srv.URL + "/playlist.m3u8"
	job.Metadata["start"] = 500.0
	job.Metadata["end"] = 600.0
	job.Metadata["tempDir"] = tempDir

	d := &ClipDownloader{}
	err := d.Download(context.Background(), job)
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if _, statErr := os.Stat(tempDir); !os.IsNotExist(statErr) {
		t.Errorf("scratch dir should be removed, stat err = %v", statErr)
	}
}
