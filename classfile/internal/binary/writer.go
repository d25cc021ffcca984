package binary

import (
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// Writer provides buffered writing utilities for class-file encoding.
type Writer struct {
	b *cryptobyte.Builder
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{b: cryptobyte.NewBuilder(nil)}
}

// Bytes returns the written bytes, or the first error recorded while writing.
func (w *Writer) Bytes() ([]byte, error) {
	return w.b.Bytes()
}

// Byte writes a single byte.
func (w *Writer) Byte(v uint8) {
	w.b.AddUint8(v)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.b.AddBytes(data)
}

// WriteU2 writes a big-endian uint16.
func (w *Writer) WriteU2(v uint16) {
	w.b.AddUint16(v)
}

// WriteU4 writes a big-endian uint32.
func (w *Writer) WriteU4(v uint32) {
	w.b.AddUint32(v)
}

// WriteU8 writes a big-endian uint64 as two u4 halves.
func (w *Writer) WriteU8(v uint64) {
	w.b.AddUint32(uint32(v >> 32))
	w.b.AddUint32(uint32(v))
}

// WriteI4 writes a two's complement int32.
func (w *Writer) WriteI4(v int32) {
	w.WriteU4(uint32(v))
}

// WriteI8 writes a two's complement int64.
func (w *Writer) WriteI8(v int64) {
	w.WriteU8(uint64(v))
}

// WriteF4 writes an IEEE 754 single-precision value, preserving NaN payloads.
func (w *Writer) WriteF4(v float32) {
	w.WriteU4(math.Float32bits(v))
}

// WriteF8 writes an IEEE 754 double-precision value, preserving NaN payloads.
func (w *Writer) WriteF8(v float64) {
	w.WriteU8(math.Float64bits(v))
}

// WriteMUTF8 writes s as a u2 length-prefixed modified UTF-8 string.
// Strings longer than 65535 encoded bytes make Bytes fail.
func (w *Writer) WriteMUTF8(s string) {
	w.b.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(EncodeMUTF8(s))
	})
}
