package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
		excludes []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseEncode,
				Kind:     KindTypeMismatch,
				Path:     []string{"field count", "ConstantValue"},
				GoType:   "bool",
				Expected: "int32, int64, float32, float64 or string",
				Detail:   "no constant pool kind",
				Offset:   NoOffset,
			},
			contains: []string{"[encode]", "type_mismatch", "field count.ConstantValue", "Go type bool", "expected int32", "no constant pool kind"},
			excludes: []string{"offset"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindOutOfBounds,
				Offset: NoOffset,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with offset",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindTruncated,
				Offset: 42,
			},
			contains: []string{"[decode]", "truncated", "(offset 42)"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindInvalidData,
				Detail: "bad magic",
				Offset: NoOffset,
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[decode]", "invalid_data", "bad magic", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(msg, s) {
					t.Errorf("error message %q should not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindInvalidTag,
		Path:  []string{"RuntimeVisibleAnnotations"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindInvalidTag}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseEncode, Kind: KindInvalidTag}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseDecode, Kind: KindTruncated}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindInvalidTag}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindOutOfBounds).
		Path("Code", "exception_table").
		Expected("Class").
		Offset(17).
		Index(9).
		Value(9).
		Cause(cause).
		Detail("index %d past %d", 9, 8).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindOutOfBounds {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
	}
	if len(err.Path) != 2 || err.Path[0] != "Code" || err.Path[1] != "exception_table" {
		t.Errorf("Path = %v, want [Code exception_table]", err.Path)
	}
	if err.Expected != "Class" {
		t.Errorf("Expected = %v, want 'Class'", err.Expected)
	}
	if err.Offset != 17 || err.Index != 9 {
		t.Errorf("Offset=%d Index=%d", err.Offset, err.Index)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "index 9 past 8" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestBuilderDefaultsToNoOffset(t *testing.T) {
	err := New(PhaseEncode, KindOverflow).Build()
	if err.Offset != NoOffset {
		t.Errorf("Offset = %d, want %d", err.Offset, NoOffset)
	}
}

func TestWithPath(t *testing.T) {
	t.Run("prepends to structured error", func(t *testing.T) {
		base := InvalidTag(PhaseDecode, []string{"value"}, 12, "element value tag", 'x')
		err := WithPath(PhaseDecode, WithPath(PhaseDecode, base, "RuntimeVisibleAnnotations"), "method run")

		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("expected *Error, got %T", err)
		}
		want := []string{"method run", "RuntimeVisibleAnnotations", "value"}
		if strings.Join(e.Path, "|") != strings.Join(want, "|") {
			t.Errorf("Path = %v, want %v", e.Path, want)
		}
	})

	t.Run("wraps plain error", func(t *testing.T) {
		plain := errors.New("boom")
		err := WithPath(PhaseEncode, plain, "Code")

		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if e.Phase != PhaseEncode || e.Kind != KindInvalidData {
			t.Errorf("got phase=%s kind=%s", e.Phase, e.Kind)
		}
		if !errors.Is(err, plain) {
			t.Error("wrapped error should unwrap to cause")
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if err := WithPath(PhaseDecode, nil, "x"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Truncated", func(t *testing.T) {
		err := Truncated(PhaseDecode, []string{"Code"}, 30, errors.New("eof"))
		if err.Kind != KindTruncated || err.Offset != 30 {
			t.Errorf("Kind=%v Offset=%d", err.Kind, err.Offset)
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		err := LengthMismatch(PhaseDecode, []string{"Signature"}, 10, 4, 2)
		if err.Kind != KindLengthMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindLengthMismatch)
		}
		if !strings.Contains(err.Detail, "payload size mismatch") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("InvalidTag", func(t *testing.T) {
		err := InvalidTag(PhaseDecode, nil, 3, "target_type", 0x18)
		if err.Kind != KindInvalidTag {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidTag)
		}
		if !strings.Contains(err.Detail, "0x18") {
			t.Errorf("Detail = %q, should name the byte", err.Detail)
		}
	})

	t.Run("PoolIndex", func(t *testing.T) {
		err := PoolIndex(PhaseDecode, 70, 12)
		if err.Kind != KindOutOfBounds || err.Index != 70 {
			t.Errorf("Kind=%v Index=%d", err.Kind, err.Index)
		}
	})

	t.Run("PoolTag", func(t *testing.T) {
		err := PoolTag(PhaseDecode, 4, "Integer", "Utf8")
		if err.Kind != KindTypeMismatch || err.Expected != "Utf8" {
			t.Errorf("Kind=%v Expected=%s", err.Kind, err.Expected)
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseEncode, []string{"ConstantValue"}, "bool", "constant")
		if err.GoType != "bool" {
			t.Errorf("GoType = %v", err.GoType)
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		cause := errors.New("bad byte")
		err := InvalidUTF8(PhaseDecode, []string{"SourceFile"}, 9, cause)
		if err.Kind != KindInvalidUTF8 || err.Offset != 9 {
			t.Errorf("Kind=%v Offset=%d", err.Kind, err.Offset)
		}
		if !errors.Is(err, cause) {
			t.Error("InvalidUTF8 should unwrap to its cause")
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"interfaces"}, 70000, "u2")
		if err.Kind != KindOverflow || err.Value != 70000 {
			t.Errorf("Kind=%v Value=%v", err.Kind, err.Value)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseEncode, "nil attribute")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("Load", func(t *testing.T) {
		err := Load("read Foo.class", errors.New("missing"))
		if err.Phase != PhaseLoad {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseLoad)
		}
	})
}
