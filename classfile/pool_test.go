package classfile

import (
	"bytes"
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

func TestConstantPoolInternIdempotent(t *testing.T) {
	p := NewConstantPool()

	tests := []struct {
		name   string
		intern func() (uint16, error)
	}{
		{"utf8", func() (uint16, error) { return p.Utf8Info("hello") }},
		{"class", func() (uint16, error) { return p.ClassInfo("java/lang/String") }},
		{"string", func() (uint16, error) { return p.StringInfo("hello") }},
		{"integer", func() (uint16, error) { return p.IntegerInfo(42) }},
		{"long", func() (uint16, error) { return p.LongInfo(42) }},
		{"float", func() (uint16, error) { return p.FloatInfo(1.5) }},
		{"double", func() (uint16, error) { return p.DoubleInfo(1.5) }},
		{"name and type", func() (uint16, error) { return p.NameAndTypeInfo("run", "()V") }},
		{"module", func() (uint16, error) { return p.ModuleInfo("java.base") }},
		{"package", func() (uint16, error) { return p.PackageInfo("java/lang") }},
	}

	seen := make(map[uint16]string)
	for _, tt := range tests {
		first := mustIntern(t)(tt.intern())
		second := mustIntern(t)(tt.intern())
		if first != second {
			t.Errorf("%s: interned twice got %d then %d", tt.name, first, second)
		}
		if other, ok := seen[first]; ok {
			t.Errorf("%s: index %d already used by %s", tt.name, first, other)
		}
		seen[first] = tt.name
	}
}

func TestConstantPoolWideEntries(t *testing.T) {
	p := NewConstantPool()
	l := mustIntern(t)(p.LongInfo(7))
	i := mustIntern(t)(p.IntegerInfo(7))
	d := mustIntern(t)(p.DoubleInfo(7))

	if l != 1 || i != 3 || d != 4 {
		t.Errorf("indices = %d, %d, %d, want 1, 3, 4", l, i, d)
	}
	if p.Count() != 6 {
		t.Errorf("Count = %d, want 6", p.Count())
	}
	_, err := p.Entry(2)
	wantKind(t, err, errors.KindOutOfBounds)
}

func TestConstantPoolFloatBits(t *testing.T) {
	p := NewConstantPool()
	pos := mustIntern(t)(p.FloatInfo(0))
	neg := mustIntern(t)(p.FloatInfo(float32(math.Copysign(0, -1))))
	if pos == neg {
		t.Error("+0.0 and -0.0 share an entry")
	}

	nan := math.NaN()
	a := mustIntern(t)(p.DoubleInfo(nan))
	b := mustIntern(t)(p.DoubleInfo(nan))
	if a != b {
		t.Errorf("NaN interned to %d and %d", a, b)
	}
}

// poolFixture is a pool with:
//
//	#1 Utf8 "Foo"
//	#2 Class #1
//	#3 Long 7 (and unusable #4)
//	#5 Integer 42
//	#6 String #1
//	#7 NameAndType #1 #8
//	#8 Utf8 "()V"
func poolFixture() []byte {
	f := &fixture{}
	f.u2(9)
	f.utf8("Foo")
	f.u1(uint8(TagClass)).u2(1)
	f.u1(uint8(TagLong)).u4(0).u4(7)
	f.u1(uint8(TagInteger)).u4(42)
	f.u1(uint8(TagString)).u2(1)
	f.u1(uint8(TagNameAndType)).u2(1, 8)
	f.utf8("()V")
	return f.bytes()
}

func TestDecodeConstantPool(t *testing.T) {
	data := poolFixture()
	p := mustPool(t, data)

	if p.Count() != 9 {
		t.Errorf("Count = %d, want 9", p.Count())
	}
	if name, err := p.ClassName(2); err != nil || name != "Foo" {
		t.Errorf("ClassName(2) = %q, %v", name, err)
	}
	if v, err := p.Long(3); err != nil || v != 7 {
		t.Errorf("Long(3) = %d, %v", v, err)
	}
	if v, err := p.Integer(5); err != nil || v != 42 {
		t.Errorf("Integer(5) = %d, %v", v, err)
	}
	if s, err := p.String(6); err != nil || s != "Foo" {
		t.Errorf("String(6) = %q, %v", s, err)
	}
	if n, d, err := p.NameAndType(7); err != nil || n != "Foo" || d != "()V" {
		t.Errorf("NameAndType(7) = %q %q, %v", n, d, err)
	}
	if p.Tag(2) != TagClass || p.Tag(4) != 0 {
		t.Errorf("Tag(2) = %v, Tag(4) = %v", p.Tag(2), p.Tag(4))
	}

	out, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("re-encoded pool differs:\n got %x\nwant %x", out, data)
	}
}

func TestDecodedPoolIsPreIndexed(t *testing.T) {
	p := mustPool(t, poolFixture())
	count := p.Count()

	if idx := mustIntern(t)(p.ClassInfo("Foo")); idx != 2 {
		t.Errorf("ClassInfo(Foo) = %d, want 2", idx)
	}
	if idx := mustIntern(t)(p.LongInfo(7)); idx != 3 {
		t.Errorf("LongInfo(7) = %d, want 3", idx)
	}
	if idx := mustIntern(t)(p.StringInfo("Foo")); idx != 6 {
		t.Errorf("StringInfo(Foo) = %d, want 6", idx)
	}
	if p.Count() != count {
		t.Errorf("Count grew from %d to %d", count, p.Count())
	}
}

func TestConstantPoolLookupErrors(t *testing.T) {
	p := mustPool(t, poolFixture())

	tests := []struct {
		name string
		err  func() error
		kind errors.Kind
	}{
		{"index zero", func() error { _, err := p.Utf8(0); return err }, errors.KindOutOfBounds},
		{"past end", func() error { _, err := p.Utf8(9); return err }, errors.KindOutOfBounds},
		{"second slot of long", func() error { _, err := p.Entry(4); return err }, errors.KindOutOfBounds},
		{"utf8 is not class", func() error { _, err := p.ClassName(1); return err }, errors.KindTypeMismatch},
		{"class is not utf8", func() error { _, err := p.Utf8(2); return err }, errors.KindTypeMismatch},
		{"integer is not float", func() error { _, err := p.Float(5); return err }, errors.KindTypeMismatch},
		{"long is not double", func() error { _, err := p.Double(3); return err }, errors.KindTypeMismatch},
		{"utf8 is not module", func() error { _, err := p.ModuleName(1); return err }, errors.KindTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantKind(t, tt.err(), tt.kind)
		})
	}
}

func TestDecodeConstantPoolErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind errors.Kind
	}{
		{"empty", nil, errors.KindTruncated},
		{"zero count", (&fixture{}).u2(0).bytes(), errors.KindInvalidData},
		{"unknown tag", (&fixture{}).u2(2).u1(2).bytes(), errors.KindInvalidTag},
		{"truncated entry", (&fixture{}).u2(2).u1(uint8(TagInteger)).u2(0).bytes(), errors.KindTruncated},
		{"long in last slot", (&fixture{}).u2(2).u1(uint8(TagLong)).u4(0).u4(1).bytes(), errors.KindOutOfBounds},
		{"raw nul in utf8", (&fixture{}).u2(2).u1(uint8(TagUtf8)).u2(1).u1(0).bytes(), errors.KindInvalidUTF8},
		{"trailing bytes", (&fixture{}).u2(1).u1(0).bytes(), errors.KindLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConstantPool(tt.data)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestConstantPoolModifiedUTF8(t *testing.T) {
	p := NewConstantPool()
	s := "nul\x00 and \U0001F600"
	idx := mustIntern(t)(p.Utf8Info(s))

	data, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// 2-byte NUL and a 6-byte surrogate pair, no raw zero byte
	if bytes.Contains(data[5:], []byte{0}) {
		t.Errorf("encoded string contains a raw NUL: %x", data)
	}

	decoded := mustPool(t, data)
	got, err := decoded.Utf8(idx)
	if err != nil || got != s {
		t.Errorf("Utf8 = %q, %v, want %q", got, err, s)
	}
}

func TestConstantPoolClone(t *testing.T) {
	p := mustPool(t, poolFixture())
	c := p.Clone()

	idx := mustIntern(t)(c.Utf8Info("only in clone"))
	if idx != uint16(p.Count()) {
		t.Errorf("new index = %d, want %d", idx, p.Count())
	}
	if _, err := p.Utf8(idx); err == nil {
		t.Error("original pool sees the clone's entry")
	}
	if c.Count() != p.Count()+1 {
		t.Errorf("clone Count = %d, want %d", c.Count(), p.Count()+1)
	}
}

func TestConstantPoolUtf8Length(t *testing.T) {
	p := NewConstantPool()
	longest := strings.Repeat("a", 65535)
	idx := mustIntern(t)(p.Utf8Info(longest))
	if again := mustIntern(t)(p.Utf8Info(longest)); again != idx {
		t.Errorf("re-interned index = %d, want %d", again, idx)
	}

	// each NUL takes two bytes once encoded
	_, err := p.Utf8Info(strings.Repeat("\x00", 32768))
	wantKind(t, err, errors.KindOverflow)
	var e *errors.Error
	if stderrors.As(err, &e) && e.Value != 65536 {
		t.Errorf("Value = %v, want encoded length 65536", e.Value)
	}
	if p.Count() != 2 {
		t.Errorf("Count = %d, want 2", p.Count())
	}
}

func TestConstantPoolOverflow(t *testing.T) {
	p := NewConstantPool()
	_, err := p.Utf8Info(strings.Repeat("a", 65536))
	wantKind(t, err, errors.KindOverflow)

	for i := 1; i < 65535; i++ {
		mustIntern(t)(p.IntegerInfo(int32(i)))
	}
	if p.Count() != 65535 {
		t.Fatalf("Count = %d, want 65535", p.Count())
	}
	_, err = p.IntegerInfo(-1)
	wantKind(t, err, errors.KindOverflow)
	if idx := mustIntern(t)(p.IntegerInfo(1)); idx != 1 {
		t.Errorf("existing entry after overflow = %d, want 1", idx)
	}
}

func TestConstantPoolInvalidUTF8Offset(t *testing.T) {
	data := (&fixture{}).u2(2).u1(uint8(TagUtf8)).u2(2).u1(0xC0).u1(0x41).bytes()
	_, err := DecodeConstantPool(data)
	wantKind(t, err, errors.KindInvalidUTF8)

	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Offset != 3 {
		t.Errorf("Offset = %d, want 3", e.Offset)
	}
	if len(e.Path) == 0 || e.Path[0] != "constant_pool" {
		t.Errorf("Path = %v, want constant_pool prefix", e.Path)
	}
	if !stderrors.Is(err, binary.ErrInvalidMUTF8) {
		t.Error("error should unwrap to ErrInvalidMUTF8")
	}
}
