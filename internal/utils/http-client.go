package utils

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout       time.Duration
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}

// GrabHTTPClient applies the configured User-Agent and custom headers to
// every request. A shared cookie jar keeps any challenge cookies the
// platform sets across manifest and segment fetches.
type GrabHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewGrabHTTPClient(cfg HTTPClientConfig) *GrabHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
		MaxConnsPerHost:     0,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &GrabHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		config: cfg,
	}
}

func (d *GrabHTTPClient) SetHeader(key, value string) {
	if d.config.Headers == nil {
		d.config.Headers = make(map[string]string)
	}
	d.config.Headers[key] = value
}

func (d *GrabHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", "dvrgrab-cli")
	}
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}
	return d.client.Do(req)
}

// HeaderLines renders the configured headers the way ffmpeg's -headers flag
// expects them, one CRLF-terminated line per header.
func (c HTTPClientConfig) HeaderLines() string {
	ua := c.UserAgent
	if ua == "" {
		ua = "dvrgrab-cli"
	}
	lines := "User-Agent: " + ua + "\r\n"
	for k, v := range c.Headers {
		lines += k + ": " + v + "\r\n"
	}
	return lines
}
