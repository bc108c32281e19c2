package jsonl

import (
	"time"

	fetchhttp "github.com/danielshawellis/stream-jsonl/internal/http"
)

// Options configures a stream.
type Options struct {
	// Start is the location to resume from. The zero value streams the
	// resource from the beginning.
	Start FileLocation

	// Backoff is the retry schedule for transient fetch failures.
	Backoff Backoff

	// Compression selects payload handling. Default: CompressionAuto.
	Compression Compression

	// ETag, when set, pins the expected resource version: any response with
	// a different ETag fails with ErrSourceChanged. When empty the first
	// observed ETag is pinned automatically for the life of the stream.
	ETag string

	// HTTP configures the default HTTP fetcher. Ignored when Fetcher is set.
	HTTP fetchhttp.Options

	// Fetcher overrides the transport. Default: this module's HTTP client.
	Fetcher Fetcher

	// ChunkSize is the read buffer size for network reads.
	// Default: 32KB
	ChunkSize int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Backoff:   DefaultBackoff(),
		HTTP:      fetchhttp.DefaultOptions(),
		ChunkSize: 32 * 1024,
	}
}

// Option is a functional option for configuring a stream.
type Option func(*Options)

// WithStartLocation resumes the stream from a previously observed location.
func WithStartLocation(loc FileLocation) Option {
	return func(o *Options) {
		o.Start = loc
	}
}

// WithBackoff sets the retry schedule for transient fetch failures.
func WithBackoff(b Backoff) Option {
	return func(o *Options) {
		o.Backoff = b
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(o *Options) {
		o.Backoff.InitialDelay = d
	}
}

// WithMaxDelay caps the delay between consecutive retries.
func WithMaxDelay(d time.Duration) Option {
	return func(o *Options) {
		o.Backoff.MaxDelay = d
	}
}

// WithMaxRetryTime bounds the total wall-clock time of one retry episode.
func WithMaxRetryTime(d time.Duration) Option {
	return func(o *Options) {
		o.Backoff.MaxRetryTime = d
	}
}

// WithCompression fixes the payload handling instead of auto-detecting.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithETag pins the expected resource version for source-change detection.
func WithETag(etag string) Option {
	return func(o *Options) {
		o.ETag = etag
	}
}

// WithHTTPOptions configures the default HTTP fetcher.
func WithHTTPOptions(opts fetchhttp.Options) Option {
	return func(o *Options) {
		o.HTTP = opts
	}
}

// WithFetcher substitutes the transport used to pull bytes.
func WithFetcher(f Fetcher) Option {
	return func(o *Options) {
		o.Fetcher = f
	}
}

// WithChunkSize sets the read buffer size for network reads.
func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}
