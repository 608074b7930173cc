package verify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidRange = errors.New("invalid range")

// ByteRange is a single parsed "bytes=" range.
// End is -1 for an open-ended range; SuffixLength is set for "bytes=-N".
type ByteRange struct {
	Start        int64
	End          int64
	SuffixLength int64
}

func (r ByteRange) String() string {
	switch {
	case r.SuffixLength > 0:
		return fmt.Sprintf("bytes=-%d", r.SuffixLength)
	case r.End < 0:
		return fmt.Sprintf("bytes=%d-", r.Start)
	default:
		return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
	}
}

// ParseRange parses a Range header value holding exactly one byte range.
// Multi-range values are rejected: both modes must be compared on one window.
func ParseRange(s string) (ByteRange, error) {
	const b = "bytes="
	if len(s) < len(b) || !strings.EqualFold(s[:len(b)], b) {
		return ByteRange{}, fmt.Errorf("%w %q: missing %q prefix", ErrInvalidRange, s, b)
	}

	spec := strings.TrimSpace(s[len(b):])
	if strings.Contains(spec, ",") {
		return ByteRange{}, fmt.Errorf("%w %q: multiple ranges", ErrInvalidRange, s)
	}

	i := strings.Index(spec, "-")
	if i < 0 {
		return ByteRange{}, fmt.Errorf("%w %q", ErrInvalidRange, s)
	}
	start, end := strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i+1:])

	// strconv accepts a leading sign, a byte position does not
	if !digitsOnly(start) || !digitsOnly(end) {
		return ByteRange{}, fmt.Errorf("%w %q: positions must be decimal digits", ErrInvalidRange, s)
	}

	if start == "" {
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, fmt.Errorf("%w %q: bad suffix length", ErrInvalidRange, s)
		}
		return ByteRange{End: -1, SuffixLength: n}, nil
	}

	first, err := strconv.ParseInt(start, 10, 64)
	if err != nil || first < 0 {
		return ByteRange{}, fmt.Errorf("%w %q: bad start", ErrInvalidRange, s)
	}
	if end == "" {
		return ByteRange{Start: first, End: -1}, nil
	}

	last, err := strconv.ParseInt(end, 10, 64)
	if err != nil || first > last {
		return ByteRange{}, fmt.Errorf("%w %q: bad end", ErrInvalidRange, s)
	}

	return ByteRange{Start: first, End: last}, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
