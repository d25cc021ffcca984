package classfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

func TestTargetInfoLengths(t *testing.T) {
	tests := []struct {
		targetType uint8
		info       []byte
		index      int
	}{
		{0x00, []byte{2}, 2},
		{0x01, []byte{1}, 1},
		{0x10, []byte{0x01, 0x02}, 0x0102},
		{0x11, []byte{3, 4}, 3},
		{0x12, []byte{5, 6}, 5},
		{0x13, []byte{}, TargetIndexNone},
		{0x14, []byte{}, TargetIndexNone},
		{0x15, []byte{}, TargetIndexNone},
		{0x16, []byte{7}, 7},
		{0x17, []byte{0, 9}, 9},
		{0x40, []byte{0, 0}, TargetIndexNone},
		{0x41, []byte{0, 2, 0, 1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6}, TargetIndexNone},
		{0x42, []byte{0, 1}, 1},
		{0x43, []byte{0, 10}, TargetIndexNone},
		{0x44, []byte{0, 11}, TargetIndexNone},
		{0x45, []byte{0, 12}, TargetIndexNone},
		{0x46, []byte{0, 13}, TargetIndexNone},
		{0x47, []byte{0, 14, 1}, 1},
		{0x48, []byte{0, 15, 2}, 2},
		{0x49, []byte{0, 16, 3}, 3},
		{0x4A, []byte{0, 17, 4}, 4},
		{0x4B, []byte{0, 18, 5}, 5},
	}

	if len(targetTypes) != len(tests) {
		t.Fatalf("targetTypes has %d entries, test covers %d", len(targetTypes), len(tests))
	}

	pool := NewConstantPool()
	typ := mustIntern(t)(pool.Utf8Info("LAnno;"))

	for _, tt := range tests {
		t.Run(TargetName(tt.targetType), func(t *testing.T) {
			data := (&fixture{}).u1(tt.targetType).raw(tt.info...).u1(0).u2(typ, 0).bytes()
			r := binary.NewReader(data)
			ta, err := readTypeAnnotation(r, pool)
			if err != nil {
				t.Fatalf("decode 0x%02x: %v", tt.targetType, err)
			}
			if !r.Empty() {
				t.Errorf("decode 0x%02x left %d bytes", tt.targetType, r.Len())
			}
			if len(ta.TargetInfo) != len(tt.info) {
				t.Errorf("target_info length = %d, want %d", len(ta.TargetInfo), len(tt.info))
			}
			if got := ta.TargetIndex(); got != tt.index {
				t.Errorf("TargetIndex = %d, want %d", got, tt.index)
			}

			w := binary.NewWriter()
			if err := ta.encode(w, pool); err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := w.Bytes()
			if err != nil {
				t.Fatalf("Bytes: %v", err)
			}
			if diff := cmp.Diff(data, out); diff != "" {
				t.Errorf("re-encoded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocalVarTargetInfoIsTwoPlusSixN(t *testing.T) {
	pool := NewConstantPool()
	typ := mustIntern(t)(pool.Utf8Info("LAnno;"))

	for n := 0; n < 4; n++ {
		f := (&fixture{}).u1(0x40).u2(uint16(n))
		for i := 0; i < n; i++ {
			f.u2(uint16(i), 1, uint16(i+1))
		}
		data := f.u1(0).u2(typ, 0).bytes()

		ta, err := readTypeAnnotation(binary.NewReader(data), pool)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(ta.TargetInfo) != 2+6*n {
			t.Errorf("n=%d: target_info length = %d, want %d", n, len(ta.TargetInfo), 2+6*n)
		}
	}
}

func TestIllegalTargetType(t *testing.T) {
	pool := NewConstantPool()
	for _, tt := range []uint8{0x02, 0x0F, 0x18, 0x3F, 0x4C, 0x80, 0xFF} {
		data := (&fixture{}).u1(tt).u1(0, 0, 0, 0, 0, 0).bytes()
		_, err := readTypeAnnotation(binary.NewReader(data), pool)
		wantKind(t, err, errors.KindInvalidTag)
		if TargetName(tt) != "" {
			t.Errorf("TargetName(0x%02x) = %q, want empty", tt, TargetName(tt))
		}
	}
}

func TestLocalVarTableLengthDisagreesWithAttribute(t *testing.T) {
	pool := NewConstantPool()
	name := mustIntern(t)(pool.Utf8Info(AttrRuntimeVisibleTypeAnnotations))
	typ := mustIntern(t)(pool.Utf8Info("LAnno;"))

	// table_length claims 3 rows but the attribute only holds one.
	payload := (&fixture{}).u2(1).u1(0x40).u2(3).u2(0, 5, 1).u1(0).u2(typ, 0).bytes()
	table := (&fixture{}).u2(1).u2(name).u4(uint32(len(payload))).raw(payload...).bytes()
	_, err := DecodeAttributes(table, pool)
	wantKind(t, err, errors.KindTruncated)

	// table_length claims zero rows; the unread row is left over.
	payload = (&fixture{}).u2(1).u1(0x40).u2(0).u1(0).u2(typ, 0).u2(0, 5, 1).bytes()
	table = (&fixture{}).u2(1).u2(name).u4(uint32(len(payload))).raw(payload...).bytes()
	_, err = DecodeAttributes(table, pool)
	wantKind(t, err, errors.KindLengthMismatch)
}

func TestTypeAnnotationEncodeChecksTargetInfo(t *testing.T) {
	tests := []struct {
		name string
		ta   TypeAnnotation
		kind errors.Kind
	}{
		{"fixed size too long", TypeAnnotation{TargetType: 0x16, TargetInfo: []byte{1, 2}}, errors.KindLengthMismatch},
		{"fixed size missing", TypeAnnotation{TargetType: 0x47}, errors.KindLengthMismatch},
		{"localvar rows short", TypeAnnotation{TargetType: 0x40, TargetInfo: []byte{0, 1, 0, 0}}, errors.KindLengthMismatch},
		{"localvar missing length", TypeAnnotation{TargetType: 0x41}, errors.KindLengthMismatch},
		{"illegal target type", TypeAnnotation{TargetType: 0x18}, errors.KindInvalidTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ta.Type = "LAnno;"
			attr := &RuntimeVisibleTypeAnnotationsAttribute{Annotations: []TypeAnnotation{tt.ta}}
			_, err := EncodeAttribute(attr, NewConstantPool())
			e := wantKind(t, err, tt.kind)
			if e.Phase != errors.PhaseEncode {
				t.Errorf("Phase = %s, want encode", e.Phase)
			}
		})
	}
}

func TestTypeAnnotationSupertypeExtends(t *testing.T) {
	ta := TypeAnnotation{TargetType: 0x10, TargetInfo: []byte{0xFF, 0xFF}}
	if ta.TargetIndex() != TargetIndexExtends {
		t.Errorf("TargetIndex = %d, want %d", ta.TargetIndex(), TargetIndexExtends)
	}
}

func TestTypeAnnotationPathAndValues(t *testing.T) {
	want := &RuntimeInvisibleTypeAnnotationsAttribute{Annotations: []TypeAnnotation{{
		TargetType: 0x47,
		TargetInfo: []byte{0, 12, 0},
		TypePath: []TypePathEntry{
			{Kind: TypePathArray},
			{Kind: TypePathTypeArgument, ArgumentIndex: 1},
			{Kind: TypePathWildcard},
		},
		Annotation: Annotation{
			Type:   "LRange;",
			Values: []ElementPair{{Name: "min", Value: LongValue(0)}, {Name: "max", Value: LongValue(10)}},
		},
	}}}

	pool := NewConstantPool()
	data, err := EncodeAttributes([]Attribute{want}, pool)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	attrs, err := DecodeAttributes(data, pool)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(Attribute(want), attrs[0], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
