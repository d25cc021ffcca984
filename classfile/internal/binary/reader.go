package binary

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// Reader errors. They reach callers wrapped in a *ParseError.
var (
	ErrTruncated     = errors.New("unexpected end of data")
	ErrInvalidMUTF8  = errors.New("invalid modified UTF-8")
	ErrNegativeCount = errors.New("negative byte count")
)

// Reader reads big-endian class-file primitives from a byte slice and tracks
// the absolute position of every read for error reporting.
type Reader struct {
	s    cryptobyte.String
	base int
	size int
}

// NewReader creates a Reader over data. Positions start at zero.
func NewReader(data []byte) *Reader {
	return &Reader{s: cryptobyte.String(data), size: len(data)}
}

// Position returns the absolute byte position of the next read.
func (r *Reader) Position() int {
	return r.base + r.size - len(r.s)
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.s)
}

// Empty reports whether all bytes have been consumed.
func (r *Reader) Empty() bool {
	return r.s.Empty()
}

// ReadU1 reads an unsigned byte.
func (r *Reader) ReadU1() (uint8, error) {
	var v uint8
	if !r.s.ReadUint8(&v) {
		return 0, r.wrapError(ErrTruncated)
	}
	return v, nil
}

// ReadU2 reads a big-endian uint16.
func (r *Reader) ReadU2() (uint16, error) {
	var v uint16
	if !r.s.ReadUint16(&v) {
		return 0, r.wrapError(ErrTruncated)
	}
	return v, nil
}

// ReadU4 reads a big-endian uint32.
func (r *Reader) ReadU4() (uint32, error) {
	var v uint32
	if !r.s.ReadUint32(&v) {
		return 0, r.wrapError(ErrTruncated)
	}
	return v, nil
}

// ReadU8 reads a big-endian uint64 stored as two u4 halves.
func (r *Reader) ReadU8() (uint64, error) {
	if r.Len() < 8 {
		return 0, r.wrapError(ErrTruncated)
	}
	var hi, lo uint32
	r.s.ReadUint32(&hi)
	r.s.ReadUint32(&lo)
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadI4 reads a big-endian two's complement int32.
func (r *Reader) ReadI4() (int32, error) {
	v, err := r.ReadU4()
	return int32(v), err
}

// ReadI8 reads a big-endian two's complement int64.
func (r *Reader) ReadI8() (int64, error) {
	v, err := r.ReadU8()
	return int64(v), err
}

// ReadF4 reads an IEEE 754 single-precision value.
func (r *Reader) ReadF4() (float32, error) {
	v, err := r.ReadU4()
	return math.Float32frombits(v), err
}

// ReadF8 reads an IEEE 754 double-precision value.
func (r *Reader) ReadF8() (float64, error) {
	v, err := r.ReadU8()
	return math.Float64frombits(v), err
}

// ReadBytes reads exactly n bytes. The result is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.wrapError(ErrNegativeCount)
	}
	var v []byte
	if !r.s.ReadBytes(&v, n) {
		return nil, r.wrapError(ErrTruncated)
	}
	out := make([]byte, n)
	copy(out, v)
	return out, nil
}

// Bounded consumes the next n bytes and returns a Reader limited to them.
// Reads on the returned Reader can never reach past those n bytes.
func (r *Reader) Bounded(n int) (*Reader, error) {
	if n < 0 {
		return nil, r.wrapError(ErrNegativeCount)
	}
	start := r.Position()
	var sub cryptobyte.String
	if !r.s.ReadBytes((*[]byte)(&sub), n) {
		return nil, r.wrapError(ErrTruncated)
	}
	return &Reader{s: sub, base: start, size: n}, nil
}

// ReadMUTF8 reads a u2 length-prefixed modified UTF-8 string.
func (r *Reader) ReadMUTF8() (string, error) {
	start := r.Position()
	var data cryptobyte.String
	if !r.s.ReadUint16LengthPrefixed(&data) {
		return "", r.wrapError(ErrTruncated)
	}
	s, err := DecodeMUTF8(data)
	if err != nil {
		return "", &ParseError{Position: start, Err: err}
	}
	return s, nil
}

// ReadRemaining reads all remaining bytes. The result is a copy.
func (r *Reader) ReadRemaining() []byte {
	out, _ := r.ReadBytes(r.Len())
	return out
}

func (r *Reader) wrapError(err error) error {
	return &ParseError{Position: r.Position(), Err: err}
}

// ParseError represents an error during binary parsing with position information.
type ParseError struct {
	Err      error
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classfile: at offset %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
