package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/klauspost/compress/gzip"

	fetchhttp "github.com/danielshawellis/stream-jsonl/internal/http"
)

// Record is one decoded JSONL line. Location is the position immediately
// after the line was fully consumed: resuming from it skips everything up to
// and including this record.
type Record struct {
	Value    json.RawMessage
	Location FileLocation
}

// Decode unmarshals the record's value into v.
func (r Record) Decode(v any) error {
	return json.Unmarshal(r.Value, v)
}

// streamState tracks where the pipeline is suspended.
type streamState int

const (
	stateIdle streamState = iota
	stateFetching
	stateBackoff
	stateFraming
	stateDone
	stateFailed
)

// Stream lazily produces Records from a remote JSONL resource, surviving
// transient network failures and supporting byte/line resumption.
//
// A Stream is a pull-driven scanner in the style of bufio.Scanner:
//
//	s, err := jsonl.Open(ctx, url)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	for s.Next() {
//		rec := s.Record()
//		// process rec.Value, checkpoint rec.Location
//	}
//	if err := s.Err(); err != nil {
//		// *StreamError carries the restart location
//	}
//
// A Stream is not restartable in place: once it ends, resumption means
// opening a new stream with WithStartLocation. It is not safe for concurrent
// use; exactly one network request is in flight at any time.
type Stream struct {
	ctx     context.Context
	url     string
	opts    Options
	fetcher Fetcher

	state  streamState
	framer *framer
	body   *Body         // network body, nil between connections
	text   io.Reader     // post-decompression byte stream
	gz     *gzip.Reader  // set in gzip mode
	buf    []byte

	gzipMode  bool
	modeKnown bool
	rangeOK   bool
	probed    bool
	etag      string

	// skipTo discards replayed lines up to and including this line number
	// after a restart-from-zero (gzip resume, or ranges unsupported).
	skipTo  int64
	pos     FileLocation // after the last line delivered to the caller
	pending []line
	ioErr   error // read error deferred until pending lines are served
	eof     bool

	ep      *episode
	lastErr error
	retries int64

	rec Record
	err error
}

// Open prepares a stream over the JSONL resource at url. No I/O happens
// until the first call to Next.
func Open(ctx context.Context, url string, options ...Option) (*Stream, error) {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	if url == "" {
		return nil, errors.New("jsonl: url is required")
	}
	if opts.Backoff.InitialDelay < 0 || opts.Backoff.MaxDelay < 0 || opts.Backoff.MaxRetryTime < 0 {
		return nil, errors.New("jsonl: backoff durations must be non-negative")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = newHTTPFetcher(opts.HTTP)
	}

	s := &Stream{
		ctx:     ctx,
		url:     url,
		opts:    opts,
		fetcher: fetcher,
		state:   stateIdle,
		framer:  newFramer(opts.Start),
		rangeOK: true, // optimistic; degraded on first refusal
		skipTo:  opts.Start.Line,
		pos:     opts.Start,
		etag:    opts.ETag,
		buf:     make([]byte, opts.ChunkSize),
	}

	switch opts.Compression {
	case CompressionGzip:
		s.gzipMode = true
		s.modeKnown = true
	case CompressionNone:
		s.modeKnown = true
	}

	return s, nil
}

// Next advances to the next record. It returns false when the stream ends,
// either cleanly or with an error; consult Err to distinguish. Next blocks
// while waiting on network data or a backoff delay.
func (s *Stream) Next() bool {
	for {
		if s.state == stateDone || s.state == stateFailed {
			return false
		}
		if err := s.ctx.Err(); err != nil {
			s.fail(err)
			return false
		}

		for len(s.pending) > 0 {
			ln := s.pending[0]
			s.pending = s.pending[1:]

			if ln.loc.Line <= s.skipTo {
				continue // replayed line, already delivered before the restart
			}
			if len(ln.data) == 0 {
				// Empty lines advance the counters but carry no record.
				s.pos = ln.loc
				continue
			}
			if !json.Valid(ln.data) {
				// Resume point is the boundary before the bad line, so the
				// caller can inspect or explicitly skip it.
				s.fail(newStreamError(ln.start, fmt.Errorf("%w: line %d", ErrInvalidRecord, ln.loc.Line)))
				return false
			}

			s.pos = ln.loc
			s.rec = Record{Value: json.RawMessage(ln.data), Location: ln.loc}
			return true
		}

		if s.eof {
			s.state = stateDone
			s.teardown()
			return false
		}

		if err := s.step(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.fail(err)
			} else {
				s.fail(newStreamError(s.pos, err))
			}
			return false
		}
	}
}

// Record returns the record produced by the last successful call to Next.
func (s *Stream) Record() Record {
	return s.rec
}

// Err returns the terminal error of the stream, nil after a clean end.
// Fatal pipeline failures are a *StreamError; a cancelled context surfaces
// as the context's own error.
func (s *Stream) Err() error {
	return s.err
}

// Location returns the position after the last line delivered to the caller.
// This is the safe restart point even when the caller abandons the stream
// between records: lines already framed but not yet yielded are excluded.
func (s *Stream) Location() FileLocation {
	return s.pos
}

// ETag returns the pinned resource version: the ETag supplied via WithETag,
// or the first one observed on the wire. Empty when the server sends none.
func (s *Stream) ETag() string {
	return s.etag
}

// Retries reports how many transient failures the stream has retried so far.
// Read it between calls to Next; like the rest of the stream it is not safe
// for concurrent use.
func (s *Stream) Retries() int64 {
	return s.retries
}

// Close releases the network connection and decompression state. The stream
// ends as if cancelled; Close is idempotent and safe after Next returns
// false.
func (s *Stream) Close() error {
	if s.state != stateDone && s.state != stateFailed {
		s.state = stateDone
	}
	s.teardown()
	return nil
}

// All returns the remaining records as a Go 1.23 range-over-func sequence.
// On a terminal error the final pair carries the error; the caller still
// owns Close.
func (s *Stream) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for s.Next() {
			if !yield(s.rec, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(Record{}, err)
		}
	}
}

// step performs one pull through the pipeline: connect if disconnected,
// otherwise read one chunk and frame it. A nil return with no new pending
// lines means the caller should step again.
func (s *Stream) step() error {
	if s.ioErr != nil {
		err := s.ioErr
		s.ioErr = nil
		return s.handleReadError(err)
	}

	if s.body == nil {
		return s.connect()
	}

	s.state = stateFraming
	n, err := s.text.Read(s.buf)
	if n > 0 {
		s.ep = nil // progress resets the retry budget
		s.pending = append(s.pending, s.framer.feed(s.buf[:n])...)
	}
	if err == nil {
		return nil
	}
	if err == io.EOF {
		if ln, ok := s.framer.finish(); ok {
			s.pending = append(s.pending, ln)
		}
		s.eof = true
		s.teardown()
		return nil
	}

	if len(s.pending) > 0 {
		// Serve already-framed lines before dealing with the failure.
		s.ioErr = err
		return nil
	}
	return s.handleReadError(err)
}

// handleReadError classifies a mid-body failure. Transient failures arm a
// retry episode and leave reconnection to the next step; everything else is
// fatal at the last full line boundary.
func (s *Stream) handleReadError(err error) error {
	// Partial trailing bytes are not a safe line; drop them so the reported
	// location stays at the previous boundary and the reconnect re-requests
	// them.
	s.framer.discard()
	s.teardown()

	if isGzipCorruption(err) {
		return fmt.Errorf("decompress: %w", err)
	}
	if !fetchhttp.IsTransient(err) {
		return err
	}

	s.noteTransient(err)
	return nil
}

// connect (re)establishes the byte stream, applying backoff when inside a
// retry episode and range/replay positioning rules.
func (s *Stream) connect() error {
	for {
		if s.ep != nil {
			if s.opts.Backoff.Exhausted(s.ep.startedAt, time.Now()) {
				return fmt.Errorf("%w: %w", ErrRetryExhausted, s.lastErr)
			}
			s.state = stateBackoff
			if err := s.sleep(s.opts.Backoff.Delay(s.ep.attempt)); err != nil {
				return err
			}
			s.ep.attempt++
		}

		s.state = stateFetching

		// A resumed stream probes range support once before the first GET.
		if !s.opts.Start.IsZero() && !s.probed {
			if err := s.probe(); err != nil {
				if fetchhttp.IsTransient(err) {
					s.noteTransient(err)
					continue
				}
				return err
			}
		}

		offset := s.requestOffset()
		if offset == 0 && !s.framer.location().IsZero() {
			// Restarting from byte zero: replay and discard everything the
			// framer has already accounted for.
			s.skipTo = s.framer.location().Line
			s.framer = newFramer(FileLocation{})
		}

		body, err := s.fetcher.Open(s.ctx, s.url, offset)
		if err != nil {
			switch {
			case errors.Is(err, fetchhttp.ErrRangeNotSatisfiable):
				// Resuming exactly at the end of the resource.
				s.eof = true
				return nil
			case errors.Is(err, fetchhttp.ErrRangeNotSupported):
				s.rangeOK = false
				continue
			case fetchhttp.IsTransient(err):
				s.noteTransient(err)
				continue
			default:
				return err
			}
		}

		if body.Offset != offset {
			body.Close()
			if body.Offset == 0 && offset > 0 {
				s.rangeOK = false
				continue
			}
			return fmt.Errorf("server returned range starting at %d, requested %d", body.Offset, offset)
		}

		if s.etag == "" {
			s.etag = body.ETag
		} else if body.ETag != "" && body.ETag != s.etag {
			body.Close()
			return fmt.Errorf("%w: etag %q, expected %q", ErrSourceChanged, body.ETag, s.etag)
		}

		if err := s.attach(body, offset == 0); err != nil {
			if fetchhttp.IsTransient(err) {
				s.noteTransient(err)
				continue
			}
			return err
		}
		return nil
	}
}

// attach wires the response body into the pipeline, resolving compression on
// first contact.
func (s *Stream) attach(body *Body, atStart bool) error {
	br := bufio.NewReaderSize(body, s.opts.ChunkSize)

	if !s.modeKnown {
		head, _ := br.Peek(2)
		s.gzipMode = sniffGzip(s.url, body.ContentType, body.ContentEncoding, head, atStart)
		s.modeKnown = true
	}

	if !s.gzipMode {
		s.body = body
		s.text = br
		return nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		if err == io.EOF {
			// Empty resource in gzip mode: zero records, clean end.
			body.Close()
			s.eof = true
			return nil
		}
		body.Close()
		if isGzipCorruption(err) {
			return fmt.Errorf("decompress: %w", err)
		}
		return err
	}

	s.body = body
	s.gz = gz
	s.text = gz
	return nil
}

// probe performs the HEAD capability check for a resumed stream. A server
// that rejects HEAD outright simply degrades to the replay path.
func (s *Stream) probe() error {
	info, err := s.fetcher.Head(s.ctx, s.url)
	s.probed = true
	if err != nil {
		if fetchhttp.IsTransient(err) {
			s.probed = false
			return err
		}
		s.rangeOK = false
		return nil
	}

	s.rangeOK = info.AcceptsRanges
	if s.etag == "" {
		s.etag = info.ETag
	} else if info.ETag != "" && info.ETag != s.etag {
		return fmt.Errorf("%w: etag %q, expected %q", ErrSourceChanged, info.ETag, s.etag)
	}

	if !s.modeKnown {
		if sniffGzip(s.url, info.ContentType, info.ContentEncoding, nil, false) {
			s.gzipMode = true
		}
		// Whatever the headers say is final for a mid-file resume: a ranged
		// body never starts with the gzip magic, so there is nothing left
		// to sniff.
		s.modeKnown = true
	}

	return nil
}

// requestOffset returns the transport byte offset for the next request.
// Gzip streams always restart at zero: a compressed resource cannot be
// entered mid-block, so the line counter is the authoritative resume key.
func (s *Stream) requestOffset() int64 {
	if s.gzipMode || !s.rangeOK {
		return 0
	}
	return s.framer.location().ByteOffset
}

// noteTransient arms (or extends) the current retry episode and counts the
// failure toward Retries.
func (s *Stream) noteTransient(err error) {
	if s.ep == nil {
		s.ep = &episode{startedAt: time.Now()}
	}
	s.lastErr = err
	s.retries++
}

// sleep waits out a backoff delay, honoring cancellation.
func (s *Stream) sleep(d time.Duration) error {
	if d <= 0 {
		return s.ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Stream) fail(err error) {
	s.err = err
	s.state = stateFailed
	s.teardown()
}

// teardown releases the connection and decompression state.
func (s *Stream) teardown() {
	if s.gz != nil {
		s.gz.Close()
		s.gz = nil
	}
	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
	s.text = nil
}
