// Package http provides the blocking HTTP client used for probing.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/PentesterFlow/webete/internal/errors"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "webete/1.0"

// BasicAuth is a username/password pair sent on every request.
type BasicAuth struct {
	Username string
	Password string
}

// Config holds configuration for the client.
type Config struct {
	Timeout           time.Duration // zero means no timeout
	UserAgent         string
	Headers           map[string]string
	SkipTLSVerify     bool
	RequestsPerSecond float64 // zero means unlimited
	MaxBodySize       int64
	// Cookies keeps cookies set by earlier responses. Off by default so
	// every request is independent.
	Cookies bool
}

// DefaultConfig returns defaults: no timeout, no pacing.
func DefaultConfig() Config {
	return Config{
		UserAgent:   DefaultUserAgent,
		MaxBodySize: 32 << 20,
	}
}

// Client issues sequential GET requests.
type Client struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	limiter     *rate.Limiter
	maxBodySize int64

	mu   sync.RWMutex
	auth *BasicAuth
}

// Response is the outcome of one GET.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// NewClient creates a new client.
func NewClient(config Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.SkipTLSVerify,
		},
	}

	var jar http.CookieJar
	if config.Cookies {
		// cookiejar.New never returns an error.
		jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultConfig().MaxBodySize
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   userAgent,
		headers:     config.Headers,
		limiter:     rate.NewLimiter(limit, 1),
		maxBodySize: maxBody,
	}
}

// SetBasicAuth attaches credentials to every following request. A nil value
// removes them.
func (c *Client) SetBasicAuth(auth *BasicAuth) {
	c.mu.Lock()
	c.auth = auth
	c.mu.Unlock()
}

// Get performs a blocking GET and reads the whole body. Any status code is a
// successful return; transport failures and bodies larger than MaxBodySize
// produce an error.
func (c *Client) Get(ctx context.Context, targetURL string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Categorize(err, targetURL)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.New(errors.Unknown, targetURL, "request_creation", "failed to create request", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	c.mu.RLock()
	if c.auth != nil {
		req.SetBasicAuth(c.auth.Username, c.auth.Password)
	}
	c.mu.RUnlock()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Categorize(err, targetURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, errors.NewNetworkError(targetURL, "body_read", err)
	}
	if int64(len(body)) > c.maxBodySize {
		e := errors.New(errors.TooLarge, targetURL, "body_read",
			fmt.Sprintf("body exceeds %d bytes", c.maxBodySize), nil)
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	return &Response{
		URL:         targetURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
