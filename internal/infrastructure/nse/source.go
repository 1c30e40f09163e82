package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"IPOAlertBot/internal/config"
	"IPOAlertBot/internal/normalize"
	"IPOAlertBot/internal/ports"
)

// Source fetches the current public-issue list from the exchange API. The
// endpoint refuses cookieless clients, so each fetch first warms up a
// session against the site root.
type Source struct {
	baseURL     string
	apiPath     string
	warmupDelay time.Duration
	client      *http.Client
}

var _ ports.OfferingSource = (*Source)(nil)

// NewSource builds a client from configuration; pass nil to use a default
// HTTP client with a cookie jar.
func NewSource(cfg config.SourceConfig, client *http.Client) *Source {
	if client == nil {
		jar, _ := cookiejar.New(nil)
		timeout := cfg.FetchTimeout.Std()
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout, Jar: jar}
	}

	return &Source{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiPath:     cfg.APIPath,
		warmupDelay: cfg.WarmupDelay.Std(),
		client:      client,
	}
}

// FetchCurrent returns the raw entries of every currently listed issue.
// Any transport or decode failure aborts the whole reconciliation pass.
func (s *Source) FetchCurrent(ctx context.Context) ([]normalize.RawEntry, error) {
	if err := s.warmup(ctx); err != nil {
		return nil, fmt.Errorf("warm up session: %w", err)
	}

	if s.warmupDelay > 0 {
		select {
		case <-time.After(s.warmupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+s.apiPath, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("source returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var entries []normalize.RawEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}

	return entries, nil
}

func (s *Source) warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request root: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.Body.Close()
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
