package hls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/rs/zerolog/log"

	"dvrgrab/internal/utils"
)

var (
	ErrManifestUnreachable = errors.New("manifest unreachable")
	ErrManifestEmpty       = errors.New("manifest contains no segments or variants")
)

// Segment is one media chunk as listed by the manifest. Duration comes from
// the EXTINF tag and is treated as authoritative; segments are never probed.
type Segment struct {
	Index    int
	URI      string
	Duration float64
}

// FetchManifest retrieves a playlist and always returns media segments. A
// master playlist is resolved one level down to its highest-bandwidth
// variant; callers never see the master.
func FetchManifest(ctx context.Context, manifestURL string, client *utils.GrabHTTPClient) ([]Segment, error) {
	playlist, listType, base, err := fetchPlaylist(ctx, manifestURL, client)
	if err != nil {
		return nil, err
	}
	if listType == m3u8.MASTER {
		master := playlist.(*m3u8.MasterPlaylist)
		variantURL, err := pickVariant(master, base)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("op", "hls/manifest").Msgf("Master playlist detected, fetching variant %s", variantURL)
		playlist, listType, base, err = fetchPlaylist(ctx, variantURL, client)
		if err != nil {
			return nil, err
		}
		if listType != m3u8.MEDIA {
			return nil, fmt.Errorf("variant %s did not resolve to a media playlist", variantURL)
		}
	}
	media := playlist.(*m3u8.MediaPlaylist)
	segments, err := mediaSegments(media, base)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("op", "hls/manifest").Msgf("Found %d segments in playlist", len(segments))
	return segments, nil
}

func fetchPlaylist(ctx context.Context, manifestURL string, client *utils.GrabHTTPClient) (m3u8.Playlist, m3u8.ListType, *url.URL, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("invalid manifest URL: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", manifestURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("error creating request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, nil, ctx.Err()
		}
		return nil, 0, nil, fmt.Errorf("%w: %v", ErrManifestUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, nil, fmt.Errorf("%w: server returned status code %d", ErrManifestUnreachable, resp.StatusCode)
	}
	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("error decoding manifest: %v", err)
	}
	return playlist, listType, base, nil
}

// pickVariant returns the highest-bandwidth variant URI resolved against the
// master's own base URL. Ties keep the earlier variant.
func pickVariant(master *m3u8.MasterPlaylist, base *url.URL) (string, error) {
	var best *m3u8.Variant
	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}
		if best == nil || variant.Bandwidth > best.Bandwidth {
			best = variant
		}
	}
	if best == nil {
		return "", ErrManifestEmpty
	}
	log.Debug().Str("op", "hls/manifest").Msgf("Selected variant with bandwidth %d", best.Bandwidth)
	return resolveURL(base, best.URI)
}

func mediaSegments(media *m3u8.MediaPlaylist, base *url.URL) ([]Segment, error) {
	var segments []Segment
	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		uri, err := resolveURL(base, seg.URI)
		if err != nil {
			return nil, fmt.Errorf("error resolving segment URL: %v", err)
		}
		segments = append(segments, Segment{
			Index:    len(segments),
			URI:      uri,
			Duration: seg.Duration,
		})
	}
	if len(segments) == 0 {
		return nil, ErrManifestEmpty
	}
	return segments, nil
}

func resolveURL(base *url.URL, uri string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri, nil
	}
	rel, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}
