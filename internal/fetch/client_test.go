package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestClientFetch tests fetching page bodies.
func TestClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body as text", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte(`<html><body>héllo</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		client, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatal(err)
		}

		body, err := client.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The declared charset is ignored
		if body != `<html><body>héllo</body></html>` {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("sends user agent and headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotLang string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotLang = r.Header.Get("Accept-Language")
			_, _ = w.Write([]byte(`ok`)) //nolint:errcheck
		}))
		defer server.Close()

		client, err := NewClient(
			WithHTTPClient(server.Client()),
			WithUserAgent("TestBot/1.0"),
			WithHeaders(map[string]string{"Accept-Language": "en"}),
		)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := client.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotUA != "TestBot/1.0" {
			t.Errorf("expected user agent 'TestBot/1.0', got %q", gotUA)
		}
		if gotLang != "en" {
			t.Errorf("expected Accept-Language 'en', got %q", gotLang)
		}
	})

	t.Run("strips UTF-8 byte order mark", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("\xef\xbb\xbf<html></html>")) //nolint:errcheck
		}))
		defer server.Close()

		client, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatal(err)
		}

		body, err := client.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "<html></html>" {
			t.Errorf("expected BOM to be stripped, got %q", body)
		}
	})

	t.Run("non-success status is a transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		client, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.Fetch(context.Background(), server.URL+"/missing")
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if transportErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", transportErr.StatusCode)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("invalid UTF-8 is a transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte{'<', 0xff, 0xfe, '>'}) //nolint:errcheck
		}))
		defer server.Close()

		client, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrInvalidUTF8) {
			t.Errorf("expected ErrInvalidUTF8, got %v", err)
		}
	})

	t.Run("body over limit is rejected", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("0123456789")) //nolint:errcheck
		}))
		defer server.Close()

		client, err := NewClient(WithHTTPClient(server.Client()), WithMaxBodySize(5))
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("body at limit is accepted", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("01234")) //nolint:errcheck
		}))
		defer server.Close()

		client, err := NewClient(WithHTTPClient(server.Client()), WithMaxBodySize(5))
		if err != nil {
			t.Fatal(err)
		}

		body, err := client.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "01234" {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("connection failure is a transport error without status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := NewClient(WithTimeout(5 * time.Second))
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.Fetch(context.Background(), url)
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if transportErr.StatusCode != 0 {
			t.Errorf("expected no status, got %d", transportErr.StatusCode)
		}
	})
}

// TestNewClient tests client construction.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatal(err)
		}
		if client.userAgent != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", client.userAgent)
		}
		if client.httpClient.Timeout != 0 {
			t.Errorf("expected no timeout, got %v", client.httpClient.Timeout)
		}
	})

	t.Run("accepts valid SOCKS5 proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithSOCKS5Proxy("127.0.0.1:9050"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.httpClient.Transport.(*http.Transport)
		if !ok {
			t.Fatal("expected *http.Transport")
		}
		if transport.Proxy != nil {
			t.Error("expected environment proxy to be disabled")
		}
	})

	t.Run("rejects malformed proxy", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient(WithSOCKS5Proxy("localhost"))
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"host and port", "127.0.0.1:9050", true},
		{"hostname", "localhost:9150", true},
		{"ipv6", "[::1]:9050", true},
		{"missing port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"port zero", "127.0.0.1:0", false},
		{"port too large", "127.0.0.1:65536", false},
		{"non numeric port", "127.0.0.1:tor", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}
