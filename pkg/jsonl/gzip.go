package jsonl

import (
	"errors"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Compression selects how the resource's payload is interpreted.
type Compression int

const (
	// CompressionAuto detects gzip from response headers, a .gz URL suffix,
	// or the gzip magic bytes at the start of the body.
	CompressionAuto Compression = iota
	// CompressionNone treats the payload as plain text.
	CompressionNone
	// CompressionGzip always decompresses the payload as gzip.
	CompressionGzip
)

// gzip magic bytes, per RFC 1952.
var gzipMagic = []byte{0x1f, 0x8b}

// sniffGzip decides whether a resource is gzip-compressed, in a fixed
// precedence order so detection is deterministic: Content-Encoding, then
// Content-Type, then a .gz URL suffix, then the magic bytes of the first
// chunk. The first chunk is only consulted when the request started at byte
// 0, since a ranged body does not begin at the gzip header.
func sniffGzip(url, contentType, contentEncoding string, head []byte, atStart bool) bool {
	if strings.Contains(contentEncoding, "gzip") {
		return true
	}
	switch mediaType(contentType) {
	case "application/gzip", "application/x-gzip":
		return true
	}
	if strings.HasSuffix(strings.SplitN(url, "?", 2)[0], ".gz") {
		return true
	}
	return atStart && len(head) >= 2 && head[0] == gzipMagic[0] && head[1] == gzipMagic[1]
}

// mediaType strips parameters from a Content-Type value.
func mediaType(contentType string) string {
	return strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
}

// isGzipCorruption reports whether err is malformed gzip data rather than a
// transport failure. Corrupt compressed data is never retried: a partially
// decompressed block cannot be resumed, and re-fetching the same bytes would
// reproduce the same failure.
func isGzipCorruption(err error) bool {
	if errors.Is(err, gzip.ErrHeader) || errors.Is(err, gzip.ErrChecksum) {
		return true
	}
	var corrupt flate.CorruptInputError
	return errors.As(err, &corrupt)
}
