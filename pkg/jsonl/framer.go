package jsonl

import "bytes"

// line is one framed line plus the locations at its boundaries: start is the
// position before the line's first byte, loc the position after its
// terminator.
type line struct {
	data  []byte
	start FileLocation
	loc   FileLocation
}

// framer slices an incoming byte stream into lines on \n boundaries,
// tolerating \r\n. Bytes that do not yet form a complete line are retained in
// a carry buffer across chunks, so callers may feed chunks split at arbitrary
// byte positions.
//
// The framer owns the stream's location counters: ByteOffset advances by the
// full consumed length of each line including its terminator, Line by one per
// line. Replaying the same bytes from the same starting location always
// reproduces the same sequence of locations, which is what makes resumption
// correct.
type framer struct {
	carry []byte
	loc   FileLocation
}

// newFramer returns a framer whose counters start at loc. Pass the zero
// FileLocation when reading from the beginning of the resource.
func newFramer(loc FileLocation) *framer {
	return &framer{loc: loc}
}

// feed appends p to the carry buffer and returns all complete lines now
// available, each with the location after its terminator. Line data is copied
// out of the carry buffer and safe to retain.
func (f *framer) feed(p []byte) []line {
	f.carry = append(f.carry, p...)

	var lines []line
	for {
		i := bytes.IndexByte(f.carry, '\n')
		if i < 0 {
			break
		}

		seg := f.carry[:i]
		if n := len(seg); n > 0 && seg[n-1] == '\r' {
			seg = seg[:n-1]
		}

		start := f.loc
		f.loc.ByteOffset += int64(i + 1)
		f.loc.Line++
		lines = append(lines, line{
			data:  append([]byte(nil), seg...),
			start: start,
			loc:   f.loc,
		})

		f.carry = f.carry[i+1:]
	}

	// Avoid holding on to the consumed prefix of a large chunk.
	if len(f.carry) == 0 {
		f.carry = nil
	}

	return lines
}

// finish terminates the stream cleanly. A non-empty carry buffer is the final
// line of a resource without a trailing newline; it is emitted and counted.
func (f *framer) finish() (line, bool) {
	if len(f.carry) == 0 {
		return line{}, false
	}

	seg := f.carry
	if n := len(seg); n > 0 && seg[n-1] == '\r' {
		seg = seg[:n-1]
	}

	start := f.loc
	f.loc.ByteOffset += int64(len(f.carry))
	f.loc.Line++
	out := line{data: append([]byte(nil), seg...), start: start, loc: f.loc}
	f.carry = nil

	return out, true
}

// discard drops the carry buffer without advancing the location. Used when
// the upstream failed mid-line: the partial bytes are not a safe line, and
// the reported location stays at the previous full line boundary so a
// reconnect re-requests them.
func (f *framer) discard() {
	f.carry = nil
}

// location returns the position after the last fully consumed line.
func (f *framer) location() FileLocation {
	return f.loc
}
