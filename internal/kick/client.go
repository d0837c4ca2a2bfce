package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"dvrgrab/internal/utils"
)

const defaultBaseURL = "https://kick.com"

// Client talks to Kick's public JSON API to turn channel or VOD page URLs
// into playback manifests. Kick fronts the API with bot protection, so
// requests carry a browser user agent and transient denials are retried.
type Client struct {
	http    *utils.GrabHTTPClient
	baseURL string
}

type Livestream struct {
	SessionTitle string `json:"session_title"`
	IsLive       bool   `json:"is_live"`
}

type Channel struct {
	Slug        string      `json:"slug"`
	PlaybackURL string      `json:"playback_url"`
	Livestream  *Livestream `json:"livestream"`
}

type Video struct {
	Source     string      `json:"source"`
	Livestream *Livestream `json:"livestream"`
}

func NewClient(cfg utils.HTTPClientConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = utils.GetRandomUserAgent()
	}
	return &Client{
		http:    utils.NewGrabHTTPClient(cfg),
		baseURL: defaultBaseURL,
	}
}

// GetChannel fetches channel metadata including the live playback manifest.
func (c *Client) GetChannel(ctx context.Context, slug string) (*Channel, error) {
	var channel Channel
	endpoint := fmt.Sprintf("%s/api/v2/channels/%s", c.baseURL, url.PathEscape(slug))
	if err := c.getJSON(ctx, endpoint, &channel); err != nil {
		return nil, fmt.Errorf("error fetching channel %s: %w", slug, err)
	}
	if channel.PlaybackURL == "" {
		return nil, fmt.Errorf("channel %s has no playback URL (offline?)", slug)
	}
	return &channel, nil
}

// GetVideo fetches a past broadcast by its video id.
func (c *Client) GetVideo(ctx context.Context, id string) (*Video, error) {
	var video Video
	endpoint := fmt.Sprintf("%s/api/v2/video/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, &video); err != nil {
		return nil, fmt.Errorf("error fetching video %s: %w", id, err)
	}
	if video.Source == "" {
		return nil, fmt.Errorf("video %s has no source manifest", id)
	}
	return &video, nil
}

// ResolvePlaybackURL maps a kick.com page URL to its m3u8 manifest and the
// broadcast title when one is available. Accepted shapes are
// kick.com/{channel} and kick.com/{channel}/videos/{id} (or kick.com/video/{id}).
func (c *Client) ResolvePlaybackURL(pageURL string) (string, string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %v", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	ctx := context.Background()
	switch {
	case len(parts) >= 2 && parts[0] == "video":
		video, err := c.GetVideo(ctx, parts[1])
		if err != nil {
			return "", "", err
		}
		return video.Source, videoTitle(video.Livestream), nil
	case len(parts) >= 3 && (parts[1] == "videos" || parts[1] == "video"):
		video, err := c.GetVideo(ctx, parts[2])
		if err != nil {
			return "", "", err
		}
		return video.Source, videoTitle(video.Livestream), nil
	case len(parts) == 1 && parts[0] != "":
		channel, err := c.GetChannel(ctx, parts[0])
		if err != nil {
			return "", "", err
		}
		return channel.PlaybackURL, videoTitle(channel.Livestream), nil
	default:
		return "", "", fmt.Errorf("unrecognized kick.com URL: %s", pageURL)
	}
}

func videoTitle(ls *Livestream) string {
	if ls == nil {
		return ""
	}
	return ls.SessionTitle
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("error decoding response: %v", err))
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return retry.Unrecoverable(fmt.Errorf("not found"))
		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Debug().Str("op", "kick/client").Msgf("Retryable status %d from %s", resp.StatusCode, endpoint)
			return fmt.Errorf("server returned status code %d", resp.StatusCode)
		default:
			return retry.Unrecoverable(fmt.Errorf("server returned status code %d", resp.StatusCode))
		}
	},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.LastErrorOnly(true),
	)
}
