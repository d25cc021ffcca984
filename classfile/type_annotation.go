package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// Target index sentinels.
const (
	// TargetIndexNone is returned by TargetIndex for targets that carry no
	// index (fields, return and receiver types, local variables, offsets).
	TargetIndexNone = -1
	// TargetIndexExtends is the supertype index of the superclass in a
	// supertype (0x10) target.
	TargetIndexExtends = 65535
)

// Type path kinds (JVMS §4.7.20.2).
const (
	TypePathArray        uint8 = 0
	TypePathNested       uint8 = 1
	TypePathWildcard     uint8 = 2
	TypePathTypeArgument uint8 = 3
)

// TypeAnnotation is a type_annotation structure (JVMS §4.7.20).
//
// TargetInfo holds the target_info bytes exactly as they appear in the class
// file. For local variable targets (0x40, 0x41) that includes the u2
// table_length, so the slice is 2+6n bytes long.
type TypeAnnotation struct {
	TargetType uint8
	TargetInfo []byte
	TypePath   []TypePathEntry
	Annotation
}

// TypePathEntry is one step of a type_path.
type TypePathEntry struct {
	Kind          uint8
	ArgumentIndex uint8
}

type targetIndexRule uint8

const (
	indexNone  targetIndexRule = iota
	indexByte0                 // u1 at offset 0
	indexU2                    // u2 at offset 0
	indexByte2                 // u1 at offset 2
)

// localVarTable marks a target_info sized by its leading table_length.
const localVarTable = -1

type targetSpec struct {
	name  string
	size  int
	index targetIndexRule
}

// targetTypes drives decoding, encoding and TargetIndex alike.
var targetTypes = map[uint8]targetSpec{
	0x00: {"type_parameter_target (class)", 1, indexByte0},
	0x01: {"type_parameter_target (method)", 1, indexByte0},
	0x10: {"supertype_target", 2, indexU2},
	0x11: {"type_parameter_bound_target (class)", 2, indexByte0},
	0x12: {"type_parameter_bound_target (method)", 2, indexByte0},
	0x13: {"empty_target (field)", 0, indexNone},
	0x14: {"empty_target (return)", 0, indexNone},
	0x15: {"empty_target (receiver)", 0, indexNone},
	0x16: {"formal_parameter_target", 1, indexByte0},
	0x17: {"throws_target", 2, indexU2},
	0x40: {"localvar_target", localVarTable, indexNone},
	0x41: {"localvar_target (resource)", localVarTable, indexNone},
	0x42: {"catch_target", 2, indexU2},
	0x43: {"offset_target (instanceof)", 2, indexNone},
	0x44: {"offset_target (new)", 2, indexNone},
	0x45: {"offset_target (::new)", 2, indexNone},
	0x46: {"offset_target (::method)", 2, indexNone},
	0x47: {"type_argument_target (cast)", 3, indexByte2},
	0x48: {"type_argument_target (constructor)", 3, indexByte2},
	0x49: {"type_argument_target (method)", 3, indexByte2},
	0x4A: {"type_argument_target (::new)", 3, indexByte2},
	0x4B: {"type_argument_target (::method)", 3, indexByte2},
}

// TargetName describes a target_type, or returns "" if it is not legal.
func TargetName(targetType uint8) string {
	return targetTypes[targetType].name
}

// TargetIndex returns the index encoded in TargetInfo: the type parameter,
// supertype, formal parameter, throws, exception table or type argument
// index, depending on TargetType. It returns TargetIndexNone when the target
// has no index or TargetInfo is too short.
func (t *TypeAnnotation) TargetIndex() int {
	spec, ok := targetTypes[t.TargetType]
	if !ok {
		return TargetIndexNone
	}
	info := t.TargetInfo
	switch spec.index {
	case indexByte0:
		if len(info) >= 1 {
			return int(info[0])
		}
	case indexU2:
		if len(info) >= 2 {
			return int(info[0])<<8 | int(info[1])
		}
	case indexByte2:
		if len(info) >= 3 {
			return int(info[2])
		}
	}
	return TargetIndexNone
}

// targetInfoSize returns the expected length of info for spec.
func targetInfoSize(spec targetSpec, info []byte) int {
	if spec.size != localVarTable {
		return spec.size
	}
	if len(info) < 2 {
		return 2
	}
	n := int(info[0])<<8 | int(info[1])
	return 2 + 6*n
}

func readTypeAnnotation(r *binary.Reader, pool *ConstantPool) (TypeAnnotation, error) {
	offset := r.Position()
	targetType, err := r.ReadU1()
	if err != nil {
		return TypeAnnotation{}, err
	}
	spec, ok := targetTypes[targetType]
	if !ok {
		return TypeAnnotation{}, errors.InvalidTag(errors.PhaseDecode, nil, offset, "target_type", int(targetType))
	}

	t := TypeAnnotation{TargetType: targetType}
	if spec.size == localVarTable {
		n, err := r.ReadU2()
		if err != nil {
			return TypeAnnotation{}, decodeError(err, spec.name)
		}
		table, err := r.ReadBytes(6 * int(n))
		if err != nil {
			return TypeAnnotation{}, decodeError(err, spec.name)
		}
		t.TargetInfo = append([]byte{byte(n >> 8), byte(n)}, table...)
	} else {
		if t.TargetInfo, err = r.ReadBytes(spec.size); err != nil {
			return TypeAnnotation{}, decodeError(err, spec.name)
		}
	}

	pathLen, err := r.ReadU1()
	if err != nil {
		return TypeAnnotation{}, decodeError(err, "type_path")
	}
	t.TypePath = make([]TypePathEntry, pathLen)
	for i := range t.TypePath {
		kind, err := r.ReadU1()
		if err != nil {
			return TypeAnnotation{}, decodeError(err, "type_path")
		}
		arg, err := r.ReadU1()
		if err != nil {
			return TypeAnnotation{}, decodeError(err, "type_path")
		}
		t.TypePath[i] = TypePathEntry{Kind: kind, ArgumentIndex: arg}
	}

	if t.Type, err = readUtf8(r, pool); err != nil {
		return TypeAnnotation{}, err
	}
	if err := t.readValues(r, pool); err != nil {
		return TypeAnnotation{}, decodeError(err, t.Type)
	}
	return t, nil
}

func (t *TypeAnnotation) encode(w *binary.Writer, pool *ConstantPool) error {
	spec, ok := targetTypes[t.TargetType]
	if !ok {
		return errors.InvalidTag(errors.PhaseEncode, nil, errors.NoOffset, "target_type", int(t.TargetType))
	}
	if want := targetInfoSize(spec, t.TargetInfo); len(t.TargetInfo) != want {
		return errors.New(errors.PhaseEncode, errors.KindLengthMismatch).
			Path(spec.name).
			Value(len(t.TargetInfo)).
			Detail("target_info is %d bytes, target_type 0x%02x needs %d", len(t.TargetInfo), t.TargetType, want).
			Build()
	}
	w.Byte(t.TargetType)
	w.WriteBytes(t.TargetInfo)

	if err := writeCount1(w, len(t.TypePath), "path_length"); err != nil {
		return err
	}
	for _, p := range t.TypePath {
		w.Byte(p.Kind)
		w.Byte(p.ArgumentIndex)
	}
	return t.Annotation.encode(w, pool)
}

func readTypeAnnotations(r *binary.Reader, pool *ConstantPool) ([]TypeAnnotation, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	anns := make([]TypeAnnotation, count)
	for i := range anns {
		if anns[i], err = readTypeAnnotation(r, pool); err != nil {
			return nil, decodeError(err, fmt.Sprintf("type_annotation %d", i))
		}
	}
	return anns, nil
}

func writeTypeAnnotations(w *binary.Writer, pool *ConstantPool, anns []TypeAnnotation) error {
	if err := writeCount(w, len(anns), "num_annotations"); err != nil {
		return err
	}
	for i := range anns {
		if err := anns[i].encode(w, pool); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, fmt.Sprintf("type_annotation %d", i))
		}
	}
	return nil
}

// RuntimeVisibleTypeAnnotationsAttribute holds type annotations retained at
// run time.
type RuntimeVisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

// RuntimeInvisibleTypeAnnotationsAttribute holds type annotations not
// retained at run time.
type RuntimeInvisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

func (*RuntimeVisibleTypeAnnotationsAttribute) Name() string {
	return AttrRuntimeVisibleTypeAnnotations
}

func (*RuntimeInvisibleTypeAnnotationsAttribute) Name() string {
	return AttrRuntimeInvisibleTypeAnnotations
}

func (a *RuntimeVisibleTypeAnnotationsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeTypeAnnotations(w, pool, a.Annotations)
}

func (a *RuntimeInvisibleTypeAnnotationsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeTypeAnnotations(w, pool, a.Annotations)
}

func decodeRuntimeVisibleTypeAnnotations(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	anns, err := readTypeAnnotations(r, pool)
	if err != nil {
		return nil, err
	}
	return &RuntimeVisibleTypeAnnotationsAttribute{Annotations: anns}, nil
}

func decodeRuntimeInvisibleTypeAnnotations(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	anns, err := readTypeAnnotations(r, pool)
	if err != nil {
		return nil, err
	}
	return &RuntimeInvisibleTypeAnnotationsAttribute{Annotations: anns}, nil
}
