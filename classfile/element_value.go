package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// ElementValue is the value of an annotation element (JVMS §4.7.16.1). The
// tag written to the class file is derived from the Go type.
//
// B, C, S and Z values share the Integer pool entry with I values; decoding
// narrows the int to the element's type and encoding widens it back.
type ElementValue interface {
	Tag() byte
	encode(w *binary.Writer, pool *ConstantPool) error
}

type (
	// ByteValue is a byte constant (tag B).
	ByteValue int8
	// CharValue is a char constant (tag C).
	CharValue uint16
	// ShortValue is a short constant (tag S).
	ShortValue int16
	// BoolValue is a boolean constant (tag Z).
	BoolValue bool
	// IntValue is an int constant (tag I).
	IntValue int32
	// LongValue is a long constant (tag J).
	LongValue int64
	// FloatValue is a float constant (tag F).
	FloatValue float32
	// DoubleValue is a double constant (tag D).
	DoubleValue float64
	// StringValue is a String constant (tag s).
	StringValue string
	// ArrayValue is an array of element values (tag [). Arrays may nest.
	ArrayValue []ElementValue
)

// EnumValue is an enum constant (tag e): the enum's type descriptor and the
// constant's simple name.
type EnumValue struct {
	Type string
	Name string
}

// ClassValue is a class literal (tag c) given by its return descriptor,
// such as "Ljava/lang/String;" or "V".
type ClassValue struct {
	Descriptor string
}

// AnnotationValue is a nested annotation (tag @).
type AnnotationValue struct {
	Annotation Annotation
}

func (ByteValue) Tag() byte       { return TagByteValue }
func (CharValue) Tag() byte       { return TagCharValue }
func (ShortValue) Tag() byte      { return TagShortValue }
func (BoolValue) Tag() byte       { return TagBoolValue }
func (IntValue) Tag() byte        { return TagIntValue }
func (LongValue) Tag() byte       { return TagLongValue }
func (FloatValue) Tag() byte      { return TagFloatValue }
func (DoubleValue) Tag() byte     { return TagDoubleValue }
func (StringValue) Tag() byte     { return TagStringValue }
func (EnumValue) Tag() byte       { return TagEnumValue }
func (ClassValue) Tag() byte      { return TagClassValue }
func (AnnotationValue) Tag() byte { return TagAnnotationValue }
func (ArrayValue) Tag() byte      { return TagArrayValue }

func (v ByteValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.IntegerInfo, int32(v))
}

func (v CharValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.IntegerInfo, int32(v))
}

func (v ShortValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.IntegerInfo, int32(v))
}

func (v BoolValue) encode(w *binary.Writer, pool *ConstantPool) error {
	var i int32
	if v {
		i = 1
	}
	return writeConst(w, pool.IntegerInfo, i)
}

func (v IntValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.IntegerInfo, int32(v))
}

func (v LongValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.LongInfo, int64(v))
}

func (v FloatValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.FloatInfo, float32(v))
}

func (v DoubleValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeConst(w, pool.DoubleInfo, float64(v))
}

func (v StringValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeUtf8(w, pool, string(v))
}

func (v EnumValue) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeUtf8(w, pool, v.Type); err != nil {
		return err
	}
	return writeUtf8(w, pool, v.Name)
}

func (v ClassValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeUtf8(w, pool, v.Descriptor)
}

func (v AnnotationValue) encode(w *binary.Writer, pool *ConstantPool) error {
	return v.Annotation.encode(w, pool)
}

func (v ArrayValue) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(v), "num_values"); err != nil {
		return err
	}
	for i, e := range v {
		if err := writeElementValue(w, e, pool); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

// DecodeElementValue decodes one tagged element value. All of data must be
// consumed.
func DecodeElementValue(data []byte, pool *ConstantPool) (ElementValue, error) {
	r := binary.NewReader(data)
	v, err := readElementValue(r, pool)
	if err != nil {
		return nil, decodeError(err, "element_value")
	}
	if !r.Empty() {
		return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Path("element_value").
			Offset(r.Position()).
			Detail("%d trailing bytes after element value", r.Len()).
			Build()
	}
	return v, nil
}

// EncodeElementValue encodes v with its tag byte.
func EncodeElementValue(v ElementValue, pool *ConstantPool) ([]byte, error) {
	w := binary.NewWriter()
	if err := writeElementValue(w, v, pool); err != nil {
		return nil, err
	}
	return finish(w, "element_value")
}

// ElementValueLength returns the encoded size of v in bytes.
func ElementValueLength(v ElementValue, pool *ConstantPool) (int, error) {
	b, err := EncodeElementValue(v, pool)
	return len(b), err
}

func writeElementValue(w *binary.Writer, v ElementValue, pool *ConstantPool) error {
	if v == nil {
		return errors.Unsupported(errors.PhaseEncode, "nil element value")
	}
	w.Byte(v.Tag())
	return v.encode(w, pool)
}

func readElementValue(r *binary.Reader, pool *ConstantPool) (ElementValue, error) {
	offset := r.Position()
	tag, err := r.ReadU1()
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagByteValue, TagCharValue, TagShortValue, TagBoolValue, TagIntValue:
		v, err := readConst(r, pool.Integer)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagByteValue:
			return ByteValue(int8(v)), nil
		case TagCharValue:
			return CharValue(uint16(v)), nil
		case TagShortValue:
			return ShortValue(int16(v)), nil
		case TagBoolValue:
			return BoolValue(v != 0), nil
		default:
			return IntValue(v), nil
		}
	case TagLongValue:
		v, err := readConst(r, pool.Long)
		return LongValue(v), err
	case TagFloatValue:
		v, err := readConst(r, pool.Float)
		return FloatValue(v), err
	case TagDoubleValue:
		v, err := readConst(r, pool.Double)
		return DoubleValue(v), err
	case TagStringValue:
		v, err := readUtf8(r, pool)
		return StringValue(v), err
	case TagEnumValue:
		typ, err := readUtf8(r, pool)
		if err != nil {
			return nil, err
		}
		name, err := readUtf8(r, pool)
		if err != nil {
			return nil, err
		}
		return EnumValue{Type: typ, Name: name}, nil
	case TagClassValue:
		desc, err := readUtf8(r, pool)
		if err != nil {
			return nil, err
		}
		return ClassValue{Descriptor: desc}, nil
	case TagAnnotationValue:
		a, err := readAnnotation(r, pool)
		if err != nil {
			return nil, err
		}
		return AnnotationValue{Annotation: a}, nil
	case TagArrayValue:
		count, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		values := make(ArrayValue, count)
		for i := range values {
			if values[i], err = readElementValue(r, pool); err != nil {
				return nil, decodeError(err, fmt.Sprintf("[%d]", i))
			}
		}
		return values, nil
	default:
		return nil, errors.InvalidTag(errors.PhaseDecode, nil, offset, "element value tag", int(tag))
	}
}

// readConst reads a u2 pool index and resolves it with lookup.
func readConst[T any](r *binary.Reader, lookup func(uint16) (T, error)) (T, error) {
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := lookup(idx)
	return v, atOffset(err, offset)
}

// writeConst interns v with intern and writes the u2 index.
func writeConst[T any](w *binary.Writer, intern func(T) (uint16, error), v T) error {
	idx, err := intern(v)
	if err != nil {
		return err
	}
	w.WriteU2(idx)
	return nil
}
