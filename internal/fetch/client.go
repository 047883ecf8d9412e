package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "refcrawl (+https://github.com/nao1215/refcrawl)"

// Client fetches page bodies over HTTP.
// It implements the crawler's Fetcher interface.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// headers are added to every request.
	headers map[string]string

	// maxBodySize limits the response body size. 0 means no limit.
	maxBodySize int64

	// timeout bounds each request. 0 means no timeout.
	timeout time.Duration

	// proxyAddress is an optional SOCKS5 proxy in "host:port" format.
	proxyAddress string

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc for requests. It takes precedence over
// WithTimeout and WithSOCKS5Proxy, which only shape the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithMaxBodySize limits the response body size. Larger bodies fail with
// ErrBodyTooLarge instead of being truncated, so a partial page never ends
// up in the cache.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithTimeout bounds each request. The default is no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithSOCKS5Proxy routes requests through the SOCKS5 proxy at address.
func WithSOCKS5Proxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. It fails only when the proxy address is malformed.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		transport, err := newTransport(c.proxyAddress)
		if err != nil {
			return nil, err
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
		}
	}

	return c, nil
}

// Fetch performs a GET request for pageURL and returns the body as text.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &TransportError{URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	c.logger.Info("open HTTP request", "url", pageURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &TransportError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status),
		}
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return "", &TransportError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	text, err := DecodeUTF8(body)
	if err != nil {
		return "", &TransportError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("fetched page", "url", pageURL, "bytes", len(body))
	return text, nil
}

// readBody reads r, enforcing maxBodySize when set.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBodySize <= 0 {
		return io.ReadAll(r)
	}

	body, err := io.ReadAll(io.LimitReader(r, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, c.maxBodySize)
	}
	return body, nil
}

// DecodeUTF8 converts body to text, dropping a leading byte order mark.
// It does not look at any declared charset.
func DecodeUTF8(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", ErrInvalidUTF8
	}

	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(decoded), nil
}
