// Package jsonl streams newline-delimited JSON records from a remote HTTP
// resource, optionally gzip-compressed, surviving transient network failures
// and resuming from a precise byte/line position.
//
// # Pipeline
//
// One pull-driven pipeline per stream: range-aware fetch, optional gzip
// decompression, line framing with a carry buffer across chunk boundaries,
// per-record JSON decoding, and location tracking. Each consumer pull drives
// exactly one step; there is exactly one in-flight request at a time, and
// records are yielded in strict ascending (byte offset, line) order.
//
// # Usage
//
//	s, err := jsonl.Open(ctx, "https://example.com/events.jsonl")
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	for s.Next() {
//		rec := s.Record()
//		var event Event
//		if err := rec.Decode(&event); err != nil {
//			return err
//		}
//		checkpoint(rec.Location)
//	}
//	return s.Err()
//
// # Resumption
//
// The only state a caller must persist is the last observed [FileLocation].
// A new stream opened with [WithStartLocation] continues where the previous
// one left off. For plain resources on servers that honor byte ranges, the
// stream seeks directly to the recorded byte offset. For gzip-compressed
// resources, or when the server ignores Range headers, it re-fetches from
// byte zero and discards lines up to the recorded line number: the line
// counter, not the byte offset, is the authoritative resume key in that
// mode. At most the boundary line is duplicated across a resume.
//
// A resumed stream detects gzip from response headers or a .gz URL suffix
// only: a ranged body starts mid-file, so there are no magic bytes left to
// sniff. A resource identifiable as gzip solely by its payload must be
// resumed with WithCompression(CompressionGzip); without it the ranged
// request lands inside the compressed stream and fails with
// ErrInvalidRecord.
//
// # Failures
//
// Transient failures (connection resets, truncated bodies, 5xx responses,
// rate limits) are retried with exponential backoff until the [Backoff]
// wall-clock budget is spent. Everything else ends the stream with a
// [*StreamError] carrying the last safe restart location: malformed JSON and
// corrupt gzip data are not transient, and a changed source ETag means the
// remote bytes can no longer be spliced together.
//
// Empty lines advance the location counters but yield no record.
package jsonl
