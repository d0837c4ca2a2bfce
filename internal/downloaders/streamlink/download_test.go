package streamlink

import (
	"os"
	"strings"
	"testing"

	"dvrgrab/internal/utils"
)

func TestWrittenRegex(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"[download] Written 12.5 MiB to capture.ts (1.2 MiB/s)", "12.5 MiB"},
		{"[download] Written 980 KiB to capture.ts", "980 KiB"},
		{"[cli][info] Opening stream: 1080p60 (hls)", ""},
	}
	for _, tc := range tests {
		m := writtenRegex.FindStringSubmatch(tc.line)
		got := ""
		if m != nil {
			got = m[1]
		}
		if got != tc.want {
			t.Errorf("line %q: got %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestBuildJobNaming(t *testing.T) {
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })
	d := &Downloader{}

	job := &utils.Job{URL: "https://cdn.example.com/live/master.m3u8", Metadata: map[string]any{}}
	if err := d.BuildJob(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(job.OutputPath, "stream_") || !strings.HasSuffix(job.OutputPath, ".mp4") {
		t.Errorf("unexpected default output path: %s", job.OutputPath)
	}
	if job.Metadata["tempDir"] == nil {
		t.Error("expected tempDir in metadata")
	}

	named := &utils.Job{URL: "u", OutputPath: "show", Metadata: map[string]any{}}
	if err := d.BuildJob(named); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if named.OutputPath != "show.mp4" {
		t.Errorf("expected show.mp4, got %s", named.OutputPath)
	}
}
