package hls

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteConcatList(t *testing.T) {
	tempDir := t.TempDir()
	segA := filepath.Join(tempDir, "segment_00000.ts")
	segB := filepath.Join(tempDir, "segment_00001.ts")
	for _, p := range []string{segA, segB} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	listPath, err := writeConcatList(tempDir, []string{segA, segB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("concat list missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "file '") || !strings.Contains(lines[0], "segment_00000.ts") {
		t.Errorf("unexpected first entry: %s", lines[0])
	}
	if !strings.Contains(lines[1], "segment_00001.ts") {
		t.Errorf("unexpected second entry: %s", lines[1])
	}
}

func TestParseFFmpegTime(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"frame= 240 fps=0.0 q=-1.0 size= 1024KiB time=00:01:30.52 bitrate= 92.9kbits/s", 90, true},
		{"frame= 100 time=01:00:05.00 speed=30x", 3605, true},
		{"Press [q] to stop, [?] for help", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseFFmpegTime(tc.line)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseFFmpegTime(%q) = %f, %v; want %f, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(5); got != "5.000" {
		t.Errorf("expected 5.000, got %s", got)
	}
	if got := formatSeconds(7.5); got != "7.500" {
		t.Errorf("expected 7.500, got %s", got)
	}
}

func TestRemuxErrorMessage(t *testing.T) {
	err := &RemuxError{ExitCode: 1, Output: "moov atom not found"}
	if !strings.Contains(err.Error(), "code 1") || !strings.Contains(err.Error(), "moov atom") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
