package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Common errors.
var (
	ErrRangeNotSupported   = errors.New("http: server does not support range requests")
	ErrRangeNotSatisfiable = errors.New("http: requested range not satisfiable")
	ErrNotFound            = errors.New("http: resource not found")
	ErrForbidden           = errors.New("http: access forbidden")
	ErrUnauthorized        = errors.New("http: unauthorized")
	ErrServerError         = errors.New("http: server error")
	ErrRateLimited         = errors.New("http: rate limited")
)

// Options configures the HTTP client.
type Options struct {
	// Timeout for individual requests. Bounds a hung connection; retry
	// scheduling across requests is the caller's concern.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 4
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 4,
	}
}

// ResourceInfo contains metadata about a remote resource.
type ResourceInfo struct {
	Size            int64
	ETag            string
	AcceptsRanges   bool
	ContentType     string
	ContentEncoding string
	LastModified    time.Time
}

// Body is a streaming response body. Offset is the byte position the body
// actually starts at, which may be 0 when the server ignored a Range header.
type Body struct {
	io.ReadCloser
	Offset          int64
	ETag            string
	ContentType     string
	ContentEncoding string
}

// Client issues single-shot streaming requests against a remote resource.
// It performs no retries of its own: every error is returned classified
// (see IsTransient) so the caller's scheduler can decide.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		// Transparent gzip would decompress behind our back and break
		// byte-offset accounting; decompression is a pipeline stage.
		DisableCompression: true,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// Head probes the resource for metadata, in particular whether the server
// honors byte ranges (Accept-Ranges: bytes).
func (c *Client) Head(ctx context.Context, url string) (*ResourceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyNetErr(err)
	}
	resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode, resp.Status); err != nil {
		return nil, err
	}

	info := &ResourceInfo{
		Size:            resp.ContentLength,
		ETag:            cleanETag(resp.Header.Get("ETag")),
		AcceptsRanges:   resp.Header.Get("Accept-Ranges") == "bytes",
		ContentType:     resp.Header.Get("Content-Type"),
		ContentEncoding: resp.Header.Get("Content-Encoding"),
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			info.LastModified = t
		}
	}

	return info, nil
}

// Open starts a streaming GET. When offset > 0 the request carries an
// open-ended Range header (bytes=offset-); a 200 response without a
// Content-Range header means the server ignored it, and Open returns
// ErrRangeNotSupported so the caller can degrade to a full re-fetch.
func (c *Client) Open(ctx context.Context, url string, offset int64) (*Body, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyNetErr(err)
	}

	if err := checkStatusCode(resp.StatusCode, resp.Status); err != nil {
		resp.Body.Close()
		return nil, err
	}

	body := &Body{
		ReadCloser:      resp.Body,
		ETag:            cleanETag(resp.Header.Get("ETag")),
		ContentType:     resp.Header.Get("Content-Type"),
		ContentEncoding: resp.Header.Get("Content-Encoding"),
	}

	if offset > 0 {
		cr := resp.Header.Get("Content-Range")
		if resp.StatusCode != http.StatusPartialContent && cr == "" {
			resp.Body.Close()
			return nil, ErrRangeNotSupported
		}
		if cr != "" {
			start, _, _, err := ParseContentRange(cr)
			if err != nil {
				resp.Body.Close()
				return nil, fmt.Errorf("parse Content-Range: %w", err)
			}
			body.Offset = start
		} else {
			body.Offset = offset
		}
	}

	return body, nil
}

// IsTransient reports whether err is worth retrying: network failures,
// truncated bodies, 5xx responses, and rate limiting. Client errors,
// unsatisfiable ranges, and context cancellation are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrServerError) || errors.Is(err, ErrRateLimited) {
		return true
	}
	// A body cut off mid-transfer surfaces as an unexpected EOF.
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int, status string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusRequestedRangeNotSatisfiable:
		return ErrRangeNotSatisfiable
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, status)
	case code >= 500:
		return fmt.Errorf("%w: %d %s", ErrServerError, code, status)
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}

// classifyNetErr keeps context errors recognizable through the wrapping that
// net/http applies to them.
func classifyNetErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return err
}

// cleanETag removes quotes and a weak-validator prefix from an ETag value.
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}

// ParseContentRange parses a Content-Range header value.
// Returns start, end, total bytes. Total may be -1 if unknown.
func ParseContentRange(header string) (start, end, total int64, err error) {
	// Format: bytes start-end/total or bytes start-end/*
	header = strings.TrimPrefix(header, "bytes ")
	parts := strings.Split(header, "/")
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %s", header)
	}

	rangeParts := strings.Split(parts[0], "-")
	if len(rangeParts) != 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %s", header)
	}

	start, err = strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid start byte: %w", err)
	}

	end, err = strconv.ParseInt(rangeParts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid end byte: %w", err)
	}

	if parts[1] == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid total bytes: %w", err)
		}
	}

	return start, end, total, nil
}
