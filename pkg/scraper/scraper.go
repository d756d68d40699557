// Package scraper fetches Open Graph metadata for a linked page.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stockpile/pkg/retry"
	"stockpile/pkg/types"
)

const (
	// FallbackTitle is used when no title can be extracted at all.
	FallbackTitle = "Untitled Article"

	defaultTimeout     = 10 * time.Second
	defaultMaxBodySize = 10 << 20 // 10 MiB
)

// Config holds construction parameters for a Fetcher.
type Config struct {
	Timeout     time.Duration
	MaxBodySize int64
	Retry       retry.Policy
}

// Fetcher retrieves page metadata. Fetch never fails: every error degrades
// to fallback metadata with the placeholder title.
type Fetcher struct {
	client      *http.Client
	maxBodySize int64
	retry       retry.Policy
	logger      *slog.Logger
}

// New creates a Fetcher with the given limits.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	return &Fetcher{
		client:      &http.Client{Timeout: cfg.Timeout},
		maxBodySize: cfg.MaxBodySize,
		retry:       cfg.Retry,
		logger:      logger.With("component", "scraper"),
	}
}

// Fetch downloads url and extracts title, description and preview image.
// Transient network failures are retried; status and size violations are
// definitive. Exhausted or definitive failures return fallback metadata.
func (f *Fetcher) Fetch(ctx context.Context, url string) types.PageMetadata {
	var body []byte
	err := retry.Do(ctx, f.logger, f.retry, "fetch "+url, func(ctx context.Context) error {
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		f.logger.Warn("metadata fetch failed, using fallback", "url", url, "err", err)
		return fallbackMetadata()
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		f.logger.Warn("html parse failed, using fallback", "url", url, "err", err)
		return fallbackMetadata()
	}

	meta := extract(doc)
	f.logger.Info("metadata fetched", "url", url, "title", meta.Title)
	return meta
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, retry.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if resp.ContentLength > f.maxBodySize {
		return nil, retry.Permanent(fmt.Errorf("declared content length %d exceeds limit %d", resp.ContentLength, f.maxBodySize))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, retry.Permanent(fmt.Errorf("body exceeds limit %d", f.maxBodySize))
	}
	return body, nil
}

// extract applies the fallback chain: og:title, then <title>, then the
// placeholder; og:description, then <meta name="description">.
func extract(doc *goquery.Document) types.PageMetadata {
	var meta types.PageMetadata

	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && v != "" {
		meta.Title = v
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok && v != "" {
		meta.Description = v
	}
	if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && v != "" {
		meta.Image = v
	}

	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if meta.Description == "" {
		if v, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
			meta.Description = v
		}
	}
	if meta.Title == "" {
		meta.Title = FallbackTitle
	}
	return meta
}

func fallbackMetadata() types.PageMetadata {
	return types.PageMetadata{Title: FallbackTitle}
}
