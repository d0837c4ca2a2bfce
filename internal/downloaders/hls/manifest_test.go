package hls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dvrgrab/internal/utils"
)

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.000,
seg0.ts
#EXTINF:10.000,
seg1.ts
#EXTINF:6.500,
seg2.ts
#EXT-X-ENDLIST
`

func testClient() *utils.GrabHTTPClient {
	return utils.NewGrabHTTPClient(utils.HTTPClientConfig{})
}

func TestFetchManifestMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mediaPlaylist)
	}))
	defer srv.Close()

	segments, err := FetchManifest(context.Background(), srv.URL+"/live/playlist.m3u8", testClient())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[2].Duration != 6.5 {
		t.Errorf("expected duration 6.5, got %f", segments[2].Duration)
	}
	want := srv.URL + "/live/seg1.ts"
	if segments[1].URI != want {
		t.Errorf("expected resolved URI %s, got %s", want, segments[1].URI)
	}
}

func TestFetchManifestMasterPicksHighestBandwidth(t *testing.T) {
	var requestedVariant string
	mux := http.NewServeMux()
	mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=500000,RESOLUTION=640x360
low/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1920x1080
high/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1200000,RESOLUTION=1280x720
mid/playlist.m3u8
`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requestedVariant = r.URL.Path
		fmt.Fprint(w, mediaPlaylist)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	segments, err := FetchManifest(context.Background(), srv.URL+"/master.m3u8", testClient())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requestedVariant != "/high/playlist.m3u8" {
		t.Errorf("expected highest bandwidth variant, got %s", requestedVariant)
	}
	if len(segments) != 3 {
		t.Errorf("expected 3 segments, got %d", len(segments))
	}
}

func TestFetchManifestEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-MEDIA-SEQUENCE:0\n#EXT-X-ENDLIST\n")
	}))
	defer srv.Close()

	_, err := FetchManifest(context.Background(), srv.URL, testClient())
	if !errors.Is(err, ErrManifestEmpty) {
		t.Fatalf("expected ErrManifestEmpty, got %v", err)
	}
}

func TestFetchManifestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := FetchManifest(context.Background(), srv.URL, testClient())
	if !errors.Is(err, ErrManifestUnreachable) {
		t.Fatalf("expected ErrManifestUnreachable, got %v", err)
	}
}
