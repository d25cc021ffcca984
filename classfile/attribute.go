package classfile

import (
	stderrors "errors"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// Attribute is one entry of an attribute table (JVMS §4.7). Every attribute
// name the registry knows decodes to its own record type; any other name
// decodes to *UnrecognizedAttribute.
type Attribute interface {
	// Name returns the attribute name written to the constant pool.
	Name() string

	// encode writes the payload, interning constants into pool.
	encode(w *binary.Writer, pool *ConstantPool) error
}

type attributeDecoder func(r *binary.Reader, pool *ConstantPool) (Attribute, error)

// attributeDecoders maps attribute names to payload decoders. It is filled in
// init because Code and Record decode nested attribute tables through it.
var attributeDecoders map[string]attributeDecoder

func init() {
	attributeDecoders = map[string]attributeDecoder{
		AttrConstantValue:                        decodeConstantValue,
		AttrCode:                                 decodeCode,
		AttrStackMapTable:                        decodeStackMapTable,
		AttrExceptions:                           decodeExceptions,
		AttrInnerClasses:                         decodeInnerClasses,
		AttrEnclosingMethod:                      decodeEnclosingMethod,
		AttrSynthetic:                            decodeSynthetic,
		AttrSignature:                            decodeSignature,
		AttrSourceFile:                           decodeSourceFile,
		AttrSourceDebugExtension:                 decodeSourceDebugExtension,
		AttrLineNumberTable:                      decodeLineNumberTable,
		AttrLocalVariableTable:                   decodeLocalVariableTable,
		AttrLocalVariableTypeTable:               decodeLocalVariableTypeTable,
		AttrDeprecated:                           decodeDeprecated,
		AttrRuntimeVisibleAnnotations:            decodeRuntimeVisibleAnnotations,
		AttrRuntimeInvisibleAnnotations:          decodeRuntimeInvisibleAnnotations,
		AttrRuntimeVisibleParameterAnnotations:   decodeRuntimeVisibleParameterAnnotations,
		AttrRuntimeInvisibleParameterAnnotations: decodeRuntimeInvisibleParameterAnnotations,
		AttrRuntimeVisibleTypeAnnotations:        decodeRuntimeVisibleTypeAnnotations,
		AttrRuntimeInvisibleTypeAnnotations:      decodeRuntimeInvisibleTypeAnnotations,
		AttrAnnotationDefault:                    decodeAnnotationDefault,
		AttrBootstrapMethods:                     decodeBootstrapMethods,
		AttrMethodParameters:                     decodeMethodParameters,
		AttrModule:                               decodeModule,
		AttrModulePackages:                       decodeModulePackages,
		AttrModuleMainClass:                      decodeModuleMainClass,
		AttrNestHost:                             decodeNestHost,
		AttrNestMembers:                          decodeNestMembers,
		AttrRecord:                               decodeRecord,
		AttrPermittedSubclasses:                  decodePermittedSubclasses,
	}
}

// IsKnownAttribute reports whether name decodes to a typed record.
func IsKnownAttribute(name string) bool {
	_, ok := attributeDecoders[name]
	return ok
}

// UnrecognizedAttribute keeps the payload of an attribute the registry does
// not know. It is written back unchanged.
type UnrecognizedAttribute struct {
	AttrName string
	Data     []byte
}

func (a *UnrecognizedAttribute) Name() string { return a.AttrName }

func (a *UnrecognizedAttribute) encode(w *binary.Writer, _ *ConstantPool) error {
	w.WriteBytes(a.Data)
	return nil
}

// DecodeAttributes decodes an attribute table (attributes_count followed by
// its entries). All of data must be consumed.
func DecodeAttributes(data []byte, pool *ConstantPool) ([]Attribute, error) {
	r := binary.NewReader(data)
	attrs, err := readAttributes(r, pool)
	if err != nil {
		return nil, err
	}
	if !r.Empty() {
		return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Path("attributes").
			Offset(r.Position()).
			Detail("%d trailing bytes after attribute table", r.Len()).
			Build()
	}
	return attrs, nil
}

// EncodeAttributes encodes an attribute table, interning names and values
// into pool.
func EncodeAttributes(attrs []Attribute, pool *ConstantPool) ([]byte, error) {
	w := binary.NewWriter()
	if err := writeAttributes(w, attrs, pool); err != nil {
		return nil, err
	}
	return finish(w, "attributes")
}

// EncodeAttribute encodes the payload of a single attribute, without the
// name index and length header.
func EncodeAttribute(a Attribute, pool *ConstantPool) ([]byte, error) {
	if a == nil {
		return nil, errors.Unsupported(errors.PhaseEncode, "nil attribute")
	}
	w := binary.NewWriter()
	if err := a.encode(w, pool); err != nil {
		return nil, errors.WithPath(errors.PhaseEncode, err, a.Name())
	}
	return finish(w, a.Name())
}

// AttributeLength returns attribute_length for a: the size of the payload
// EncodeAttribute produces. It interns into pool exactly as encoding does.
func AttributeLength(a Attribute, pool *ConstantPool) (int, error) {
	payload, err := EncodeAttribute(a, pool)
	if err != nil {
		return 0, err
	}
	return len(payload), nil
}

func readAttributes(r *binary.Reader, pool *ConstantPool) ([]Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, decodeError(err, "attributes_count")
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := readAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func readAttribute(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	offset := r.Position()
	nameIndex, err := r.ReadU2()
	if err != nil {
		return nil, decodeError(err, "attribute_name_index")
	}
	name, err := pool.Utf8(nameIndex)
	if err != nil {
		return nil, errors.WithPath(errors.PhaseDecode, atOffset(err, offset), "attribute_name_index")
	}
	length, err := r.ReadU4()
	if err != nil {
		return nil, decodeError(err, name)
	}
	if uint64(length) > uint64(r.Len()) {
		return nil, errors.New(errors.PhaseDecode, errors.KindTruncated).
			Path(name).
			Offset(offset).
			Value(length).
			Detail("attribute_length %d exceeds the %d bytes remaining", length, r.Len()).
			Build()
	}
	payload, err := r.Bounded(int(length))
	if err != nil {
		return nil, decodeError(err, name)
	}

	decode, ok := attributeDecoders[name]
	if !ok {
		Logger().Debug("preserving unrecognized attribute",
			zap.String("name", name),
			zap.Uint32("length", length),
			zap.Int("offset", offset))
		return &UnrecognizedAttribute{AttrName: name, Data: payload.ReadRemaining()}, nil
	}

	a, err := decode(payload, pool)
	if err != nil {
		return nil, decodeError(err, name)
	}
	if !payload.Empty() {
		return nil, errors.LengthMismatch(errors.PhaseDecode, []string{name}, offset, int(length), int(length)-payload.Len())
	}
	return a, nil
}

func writeAttributes(w *binary.Writer, attrs []Attribute, pool *ConstantPool) error {
	if err := writeCount(w, len(attrs), "attributes_count"); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := writeAttribute(w, a, pool); err != nil {
			return err
		}
	}
	return nil
}

func writeAttribute(w *binary.Writer, a Attribute, pool *ConstantPool) error {
	if a == nil {
		return errors.Unsupported(errors.PhaseEncode, "nil attribute")
	}
	nameIndex, err := pool.Utf8Info(a.Name())
	if err != nil {
		return errors.WithPath(errors.PhaseEncode, err, a.Name())
	}
	payload, err := EncodeAttribute(a, pool)
	if err != nil {
		return err
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return errors.Overflow(errors.PhaseEncode, []string{a.Name()}, len(payload), "attribute_length (u4)")
	}
	w.WriteU2(nameIndex)
	w.WriteU4(uint32(len(payload)))
	w.WriteBytes(payload)
	return nil
}

// finish returns the bytes of w, reporting a length prefix overflow recorded
// by the writer as an encode error.
func finish(w *binary.Writer, segment string) ([]byte, error) {
	b, err := w.Bytes()
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Path(segment).
			Cause(err).
			Detail("encoded data exceeds its length prefix").
			Build()
	}
	return b, nil
}

// decodeError prefixes err with segment. A bare reader failure becomes a
// structured truncation or modified UTF-8 error carrying the failing offset;
// an error that is already structured keeps its path and gains segment.
func decodeError(err error, segment string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return errors.WithPath(errors.PhaseDecode, e, segment)
	}
	var pe *binary.ParseError
	if stderrors.As(err, &pe) {
		if stderrors.Is(pe.Err, binary.ErrInvalidMUTF8) {
			return errors.InvalidUTF8(errors.PhaseDecode, []string{segment}, pe.Position, err)
		}
		return errors.Truncated(errors.PhaseDecode, []string{segment}, pe.Position, err)
	}
	return errors.WithPath(errors.PhaseDecode, err, segment)
}

// atOffset fills in the offset of a structured error that has none.
func atOffset(err error, offset int) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Offset == errors.NoOffset {
		e.Offset = offset
	}
	return err
}

func writeCount(w *binary.Writer, n int, what string) error {
	if n > math.MaxUint16 {
		return errors.Overflow(errors.PhaseEncode, []string{what}, n, "u2 count")
	}
	w.WriteU2(uint16(n))
	return nil
}

func writeCount1(w *binary.Writer, n int, what string) error {
	if n > math.MaxUint8 {
		return errors.Overflow(errors.PhaseEncode, []string{what}, n, "u1 count")
	}
	w.Byte(uint8(n))
	return nil
}

// Pool reference helpers. Optional references use index 0 for "absent",
// represented as the empty string.

func readUtf8(r *binary.Reader, pool *ConstantPool) (string, error) {
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil {
		return "", err
	}
	s, err := pool.Utf8(idx)
	return s, atOffset(err, offset)
}

func readOptionalUtf8(r *binary.Reader, pool *ConstantPool) (string, error) {
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil || idx == 0 {
		return "", err
	}
	s, err := pool.Utf8(idx)
	return s, atOffset(err, offset)
}

func readClass(r *binary.Reader, pool *ConstantPool) (string, error) {
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil {
		return "", err
	}
	s, err := pool.ClassName(idx)
	return s, atOffset(err, offset)
}

func readOptionalClass(r *binary.Reader, pool *ConstantPool) (string, error) {
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil || idx == 0 {
		return "", err
	}
	s, err := pool.ClassName(idx)
	return s, atOffset(err, offset)
}

func readClassList(r *binary.Reader, pool *ConstantPool) ([]string, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	names := make([]string, count)
	for i := range names {
		if names[i], err = readClass(r, pool); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func writeUtf8(w *binary.Writer, pool *ConstantPool, s string) error {
	idx, err := pool.Utf8Info(s)
	if err != nil {
		return err
	}
	w.WriteU2(idx)
	return nil
}

func writeOptionalUtf8(w *binary.Writer, pool *ConstantPool, s string) error {
	if s == "" {
		w.WriteU2(0)
		return nil
	}
	return writeUtf8(w, pool, s)
}

func writeClass(w *binary.Writer, pool *ConstantPool, name string) error {
	idx, err := pool.ClassInfo(name)
	if err != nil {
		return err
	}
	w.WriteU2(idx)
	return nil
}

func writeOptionalClass(w *binary.Writer, pool *ConstantPool, name string) error {
	if name == "" {
		w.WriteU2(0)
		return nil
	}
	return writeClass(w, pool, name)
}

func writeClassList(w *binary.Writer, pool *ConstantPool, names []string, what string) error {
	if err := writeCount(w, len(names), what); err != nil {
		return err
	}
	for _, name := range names {
		if err := writeClass(w, pool, name); err != nil {
			return err
		}
	}
	return nil
}
