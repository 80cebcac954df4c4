// SPDX-License-Identifier: MPL-2.0

// Package registry looks up the latest published version of an npm package.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the public npm registry.
	DefaultBaseURL = "https://registry.npmjs.org"
	// DefaultUserAgent is sent when no other User-Agent is configured.
	DefaultUserAgent = "cc-switch/1.0"

	// maxResponseBytes limits packument size; large packages with many
	// versions run to a few MiB.
	maxResponseBytes = 10 << 20

	latestPath = "dist-tags.latest"
)

var (
	errTooLarge   = errors.New("registry response exceeds size limit")
	errNotJSON    = errors.New("registry response is not JSON")
	errNoLatest   = errors.New("registry response has no dist-tags.latest string")
	errBadPackage = errors.New("package name is empty")
)

type (
	// Client queries an npm-compatible registry. Construct with NewClient.
	Client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
		logger     *log.Logger
	}

	// Option configures a Client.
	Option func(*Client)

	// statusError is logged for non-2xx responses.
	statusError struct {
		code int
	}
)

func (e *statusError) Error() string {
	return fmt.Sprintf("registry returned HTTP %d", e.code)
}

// WithHTTPClient sets the HTTP client, including its timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBaseURL overrides the registry base URL.
func WithBaseURL(base string) Option {
	return func(cl *Client) {
		if base != "" {
			cl.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithLogger sets the logger that receives the reason for each failed lookup.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a registry client for DefaultBaseURL.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchLatest returns the "latest" dist-tag of pkg. Any failure, including
// transport errors, non-2xx responses, malformed JSON or a missing tag,
// yields ("", false); the reason is only logged.
func (c *Client) FetchLatest(ctx context.Context, pkg string) (string, bool) {
	version, err := c.latest(ctx, pkg)
	if err != nil {
		c.logger.Debug("latest version unavailable", "package", pkg, "err", err)
		return "", false
	}
	return version, true
}

func (c *Client) latest(ctx context.Context, pkg string) (string, error) {
	if strings.TrimSpace(pkg) == "" {
		return "", errBadPackage
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, PackageURL(c.baseURL, pkg), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return "", errTooLarge
	}

	return parseLatest(body)
}

func parseLatest(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errNotJSON
	}
	latest := gjson.GetBytes(body, latestPath)
	if latest.Type != gjson.String || latest.Str == "" {
		return "", errNoLatest
	}
	return latest.Str, nil
}

// PackageURL returns the packument URL for pkg. The slash of a scoped name
// is escaped, so "@scope/name" becomes "<base>/@scope%2Fname".
func PackageURL(base, pkg string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(pkg)
}
