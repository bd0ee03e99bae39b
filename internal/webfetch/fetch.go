package webfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultMaxBytes  = 2 << 20 // 2 MiB
	defaultMaxChars  = 4000
	defaultUserAgent = "slack-chatgpt/1.0"
)

const invalidURLMessage = "Invalid URL."

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64 // Response bytes read before the body is cut off
	MaxChars   int   // Summary length in runes
	UserAgent  string
}

// Fetcher downloads linked pages and reduces them to bounded plain text.
// Failures are reported inside the returned content, never as errors.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	maxChars  int
	userAgent string
}

func NewFetcher(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		client:    client,
		maxBytes:  maxBytes,
		maxChars:  maxChars,
		userAgent: userAgent,
	}
}

// FetchAll fetches each URL in order, one block per URL.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []domain.URLContent {
	if len(urls) == 0 {
		return nil
	}
	blocks := make([]domain.URLContent, 0, len(urls))
	for _, u := range urls {
		blocks = append(blocks, f.Fetch(ctx, u))
	}
	return blocks
}

// Fetch retrieves rawURL and summarizes it by content type.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) domain.URLContent {
	if !validURL(rawURL) {
		slog.WarnContext(ctx, "skipping invalid url", "url", rawURL)
		return failed(rawURL, invalidURLMessage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failed(rawURL, invalidURLMessage)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "url fetch failed", "url", rawURL, "error", err)
		return failed(rawURL, fmt.Sprintf("Failed to fetch (%s).", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "url fetch returned non-success status", "url", rawURL, "status_code", resp.StatusCode)
		return failed(rawURL, fmt.Sprintf("Failed to fetch (HTTP %s).", statusLine(resp)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		slog.WarnContext(ctx, "url body read failed", "url", rawURL, "error", err)
		return failed(rawURL, fmt.Sprintf("Failed to fetch (%s).", err.Error()))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	summary, ok := f.summarize(ctx, rawURL, contentType, data)

	slog.DebugContext(ctx, "url fetched",
		"url", rawURL,
		"content_type", contentType,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())

	return domain.URLContent{
		SourceURL: rawURL,
		Summary:   summary,
		Failed:    !ok,
	}
}

func (f *Fetcher) summarize(ctx context.Context, rawURL, contentType string, data []byte) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}

	switch mediaType {
	case "text/html", "application/xhtml+xml":
		reader, err := charset.NewReader(bytes.NewReader(data), contentType)
		if err != nil {
			reader = bytes.NewReader(data)
		}
		text, err := HTMLBodyText(reader)
		if err != nil {
			slog.WarnContext(ctx, "html parse failed", "url", rawURL, "error", err)
			return fmt.Sprintf("Unable to read content of type %s.", mediaType), false
		}
		return Truncate(text, f.maxChars), true

	case "text/plain":
		return Truncate(strings.ToValidUTF8(string(data), string(utf8.RuneError)), f.maxChars), true

	default:
		return fmt.Sprintf("Unable to read content of type %s.", mediaType), false
	}
}

func failed(rawURL, message string) domain.URLContent {
	return domain.URLContent{SourceURL: rawURL, Summary: message, Failed: true}
}

func validURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Hostname() != ""
}

func statusLine(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
