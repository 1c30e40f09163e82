package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"IPOAlertBot/internal/config"
)

func TestFetchCurrentWarmsUpThenFetches(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		if r.URL.Path == "/api/ipo-current-issue" {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("missing accept header")
			}
			_, _ = w.Write([]byte(`[
				{"companyName":"Beta Ltd","issueSize":"700 Cr","issueStartDate":"01-Jan-2025","issueEndDate":"03-Jan-2025","status":"Open"},
				{"companyName":"Tiny Corp","issueSize":"120 Cr","status":"Open"}
			]`))
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	source := NewSource(config.SourceConfig{
		BaseURL: server.URL,
		APIPath: "/api/ipo-current-issue",
	}, server.Client())

	entries, err := source.FetchCurrent(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrent: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].CompanyName != "Beta Ltd" || entries[0].IssueSize != "700 Cr" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 {
		t.Fatalf("expected warm-up plus fetch, got %v", paths)
	}
	if paths[0] != "/" {
		t.Fatalf("warm-up must hit the site root first, got %s", paths[0])
	}
}

func TestFetchCurrentFailsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/ipo-current-issue" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	source := NewSource(config.SourceConfig{
		BaseURL: server.URL,
		APIPath: "/api/ipo-current-issue",
	}, server.Client())

	if _, err := source.FetchCurrent(context.Background()); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}

func TestFetchCurrentFailsOnMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/ipo-current-issue" {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	source := NewSource(config.SourceConfig{
		BaseURL: server.URL,
		APIPath: "/api/ipo-current-issue",
	}, server.Client())

	if _, err := source.FetchCurrent(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}
