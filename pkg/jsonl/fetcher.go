package jsonl

import (
	"context"
	"io"

	fetchhttp "github.com/danielshawellis/stream-jsonl/internal/http"
)

// ResourceInfo is the metadata the stream needs from a capability probe.
type ResourceInfo struct {
	Size            int64
	ETag            string
	AcceptsRanges   bool
	ContentType     string
	ContentEncoding string
}

// Body is a streaming response body starting at Offset.
type Body struct {
	io.ReadCloser
	Offset          int64
	ETag            string
	ContentType     string
	ContentEncoding string
}

// Fetcher is the narrow transport seam the stream pulls bytes through. The
// default implementation wraps this module's HTTP client; substitute one via
// WithFetcher to stream from anything that can serve ranged byte streams.
//
// Open must honor offset by starting the returned body at that byte, or
// return an error the implementation classifies as non-transient when it
// cannot (the HTTP implementation returns ErrRangeNotSupported, and the
// stream degrades to a full re-fetch).
type Fetcher interface {
	Head(ctx context.Context, url string) (*ResourceInfo, error)
	Open(ctx context.Context, url string, offset int64) (*Body, error)
}

// httpFetcher adapts internal/http.Client to the Fetcher seam.
type httpFetcher struct {
	client *fetchhttp.Client
}

func newHTTPFetcher(opts fetchhttp.Options) *httpFetcher {
	return &httpFetcher{client: fetchhttp.NewClient(opts)}
}

func (f *httpFetcher) Head(ctx context.Context, url string) (*ResourceInfo, error) {
	info, err := f.client.Head(ctx, url)
	if err != nil {
		return nil, err
	}
	return &ResourceInfo{
		Size:            info.Size,
		ETag:            info.ETag,
		AcceptsRanges:   info.AcceptsRanges,
		ContentType:     info.ContentType,
		ContentEncoding: info.ContentEncoding,
	}, nil
}

func (f *httpFetcher) Open(ctx context.Context, url string, offset int64) (*Body, error) {
	body, err := f.client.Open(ctx, url, offset)
	if err != nil {
		return nil, err
	}
	return &Body{
		ReadCloser:      body.ReadCloser,
		Offset:          body.Offset,
		ETag:            body.ETag,
		ContentType:     body.ContentType,
		ContentEncoding: body.ContentEncoding,
	}, nil
}
