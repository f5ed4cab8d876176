// Package bytesutil provides bounds-checked search and copy helpers over
// byte buffers used by the archive codec and the APNG chunk walker.
package bytesutil

import (
	"bytes"
	"errors"
)

// ErrOutOfRange is returned when a copy would read or write past a buffer.
var ErrOutOfRange = errors.New("bytesutil: out of range")

// IndexByte returns the index of the first c in b at or after start, or -1.
func IndexByte(b []byte, c byte, start int) int {
	if start < 0 {
		start = 0
	}
	if start >= len(b) {
		return -1
	}
	i := bytes.IndexByte(b[start:], c)
	if i < 0 {
		return -1
	}
	return start + i
}

// Index returns the index of the first exact match of pattern in b at or
// after start, or -1.
func Index(b, pattern []byte, start int) int {
	if start < 0 {
		start = 0
	}
	if start > len(b)-len(pattern) {
		return -1
	}
	i := bytes.Index(b[start:], pattern)
	if i < 0 {
		return -1
	}
	return start + i
}

// Expand returns a zero-filled buffer of length n holding a copy of b.
func Expand(b []byte, n int) ([]byte, error) {
	if len(b) > n {
		return nil, ErrOutOfRange
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// CopyBlock returns a copy of b[start:start+n].
func CopyBlock(b []byte, start, n int) ([]byte, error) {
	if start < 0 || n < 0 || start > len(b)-n {
		return nil, ErrOutOfRange
	}
	out := make([]byte, n)
	copy(out, b[start:start+n])
	return out, nil
}

// TrimNUL returns b up to (not including) its first NUL byte.
func TrimNUL(b []byte) []byte {
	if i := IndexByte(b, 0, 0); i >= 0 {
		return b[:i]
	}
	return b
}
