package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nsyc/page-analyzer/models"
)

func testConfig() models.AnalysisConfig {
	cfg := models.DefaultConfig()
	cfg.Timeout = 5
	return cfg
}

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "page-analyzer") {
			t.Errorf("unexpected User-Agent: %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := New()
	defer f.Close()

	resp, err := f.Get(context.Background(), server.URL, testConfig())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "hello") {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if resp.Elapsed <= 0 {
		t.Error("Elapsed should be positive")
	}
}

func TestGetStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	f := New()
	defer f.Close()

	_, err := f.Get(context.Background(), server.URL, testConfig())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", statusErr.Code)
	}
	if statusErr.Error() != "HTTP 404" {
		t.Errorf("Error() = %q, want %q", statusErr.Error(), "HTTP 404")
	}
}

func TestGetContentTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 20_000)))
	}))
	defer server.Close()

	f := New()
	defer f.Close()

	cfg := testConfig()
	cfg.MaxContentLength = 10_000

	_, err := f.Get(context.Background(), server.URL, cfg)
	if !errors.Is(err, ErrContentTooLarge) {
		t.Fatalf("Get() error = %v, want ErrContentTooLarge", err)
	}
}

func TestGetTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	f := New()
	defer f.Close()

	cfg := testConfig()
	cfg.Timeout = 1

	_, err := f.Get(context.Background(), server.URL, cfg)
	if !IsTimeout(err) {
		t.Fatalf("Get() error = %v, want timeout", err)
	}
}

func TestGetRedirectsDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	f := New()
	defer f.Close()

	cfg := testConfig()
	cfg.FollowRedirects = false

	_, err := f.Get(context.Background(), server.URL, cfg)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusFound {
		t.Errorf("Code = %d, want 302", statusErr.Code)
	}
}

func TestGetRedirectsFollowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		w.Write([]byte("landed"))
	}))
	defer server.Close()

	f := New()
	defer f.Close()

	resp, err := f.Get(context.Background(), server.URL, testConfig())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(resp.Body) != "landed" {
		t.Errorf("body = %q, want %q", resp.Body, "landed")
	}
	if !strings.HasSuffix(resp.FinalURL, "/final") {
		t.Errorf("FinalURL = %q, want suffix /final", resp.FinalURL)
	}
}
