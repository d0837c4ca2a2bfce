package hls

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"dvrgrab/internal/utils"
)

type recordingTask struct {
	onProgress func(float64)
}

func (r *recordingTask) SetStatus(string)  {}
func (r *recordingTask) SetMessage(string) {}
func (r *recordingTask) SetProgress(f float64) {
	if r.onProgress != nil {
		r.onProgress(f)
	}
}

func testJob(onProgress func(float64)) *utils.Job {
	return &utils.Job{
		ID:       "test",
		Metadata: map[string]any{},
		Task:     &recordingTask{onProgress: onProgress},
	}
}

func TestDownloadSegmentsSequential(t *testing.T) {
	var served []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = append(served, r.URL.Path)
		fmt.Fprintf(w, "data for %s", r.URL.Path)
	}))
	defer srv.Close()

	timeline, _, _ := BuildTimeline([]Segment{
		{Index: 0, URI: srv.URL + "/seg0.ts", Duration: 10},
		{Index: 1, URI: srv.URL + "/seg1.ts", Duration: 10},
		{Index: 2, URI: srv.URL + "/seg2.ts", Duration: 10},
	})

	tempDir := t.TempDir()
	var fractions []float64
	job := testJob(func(f float64) { fractions = append(fractions, f) })

	paths, err := downloadSegments(context.Background(), timeline, tempDir, testClient(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 files, got %d", len(paths))
	}
	wantOrder := []string{"/seg0.ts", "/seg1.ts", "/seg2.ts"}
	for i, p := range served {
		if p != wantOrder[i] {
			t.Errorf("request %d was %s, want %s", i, p, wantOrder[i])
		}
	}
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("segment file %d missing: %v", i, err)
		}
		if string(data) != "data for "+wantOrder[i] {
			t.Errorf("segment file %d has wrong content: %s", i, data)
		}
	}
	if len(fractions) != 3 || math.Abs(fractions[len(fractions)-1]-0.8) > 1e-9 {
		t.Errorf("expected progress to end at 0.8, got %v", fractions)
	}
}

func TestDownloadSegmentsFailureAborts(t *testing.T) {
	var seg1Attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/seg1.ts" {
			seg1Attempts++
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	timeline, _, _ := BuildTimeline([]Segment{
		{Index: 4, URI: srv.URL + "/seg0.ts", Duration: 10},
		{Index: 5, URI: srv.URL + "/seg1.ts", Duration: 10},
		{Index: 6, URI: srv.URL + "/seg2.ts", Duration: 10},
	})

	_, err := downloadSegments(context.Background(), timeline, t.TempDir(), testClient(), testJob(nil))
	var segErr *SegmentError
	if !errors.As(err, &segErr) {
		t.Fatalf("expected SegmentError, got %v", err)
	}
	if segErr.Index != 5 {
		t.Errorf("expected failing manifest index 5, got %d", segErr.Index)
	}
	// The window may have evicted the segment; a second attempt would fetch
	// the wrong content anyway.
	if seg1Attempts != 1 {
		t.Errorf("expected no retry, got %d attempts", seg1Attempts)
	}
}

func TestDownloadSegmentsCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	timeline, _, _ := BuildTimeline([]Segment{{Index: 0, URI: srv.URL + "/seg0.ts", Duration: 10}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := downloadSegments(ctx, timeline, t.TempDir(), testClient(), testJob(nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDownloadSegmentFilenamesOrdered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	timeline, _, _ := BuildTimeline([]Segment{
		{Index: 7, URI: srv.URL + "/a.ts", Duration: 10},
		{Index: 8, URI: srv.URL + "/b.ts", Duration: 10},
	})
	tempDir := t.TempDir()
	paths, err := downloadSegments(context.Background(), timeline, tempDir, testClient(), testJob(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(paths[0]) != "segment_00000.ts" || filepath.Base(paths[1]) != "segment_00001.ts" {
		t.Errorf("unexpected local names: %v", paths)
	}
}
