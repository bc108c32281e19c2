package jsonl

import "fmt"

// FileLocation is a restart point in a JSONL resource. It is the only state a
// caller needs to persist to resume an interrupted stream: pass the last
// observed location back via WithStartLocation on the next call.
//
// ByteOffset counts bytes of the text stream as fed to the line framer,
// including line terminators. For plain resources this is identical to the
// transport byte stream, so it doubles as an HTTP range offset. Line is a
// 1-based count of fully consumed lines.
//
// Both counters are monotonically non-decreasing over the life of one stream.
type FileLocation struct {
	ByteOffset int64 `json:"byteOffset"`
	Line       int64 `json:"line"`
}

// IsZero reports whether the location is the start of the resource.
func (l FileLocation) IsZero() bool {
	return l.ByteOffset == 0 && l.Line == 0
}

// String returns a compact human-readable form, e.g. "byte 17, line 2".
func (l FileLocation) String() string {
	return fmt.Sprintf("byte %d, line %d", l.ByteOffset, l.Line)
}
