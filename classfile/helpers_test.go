package classfile

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/classfile/errors"
)

// fixture assembles class-file bytes for tests.
type fixture struct {
	b []byte
}

func (f *fixture) u1(vs ...uint8) *fixture {
	f.b = append(f.b, vs...)
	return f
}

func (f *fixture) u2(vs ...uint16) *fixture {
	for _, v := range vs {
		f.b = append(f.b, byte(v>>8), byte(v))
	}
	return f
}

func (f *fixture) u4(v uint32) *fixture {
	f.b = append(f.b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return f
}

// utf8 appends a Utf8 constant with an ASCII value.
func (f *fixture) utf8(s string) *fixture {
	f.u1(uint8(TagUtf8)).u2(uint16(len(s)))
	f.b = append(f.b, s...)
	return f
}

func (f *fixture) raw(b ...byte) *fixture {
	f.b = append(f.b, b...)
	return f
}

func (f *fixture) bytes() []byte {
	return f.b
}

func mustPool(t *testing.T, data []byte) *ConstantPool {
	t.Helper()
	p, err := DecodeConstantPool(data)
	if err != nil {
		t.Fatalf("DecodeConstantPool: %v", err)
	}
	return p
}

// mustIntern wraps an interning call: mustIntern(t)(pool.Utf8Info("x")).
func mustIntern(t *testing.T) func(uint16, error) uint16 {
	t.Helper()
	return func(idx uint16, err error) uint16 {
		t.Helper()
		if err != nil {
			t.Fatalf("intern: %v", err)
		}
		return idx
	}
}

func wantKind(t *testing.T, err error, kind errors.Kind) *errors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", e.Kind, kind, err)
	}
	return e
}
