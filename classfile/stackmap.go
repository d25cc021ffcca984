package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// Verification type tags (JVMS §4.7.4).
const (
	ItemTop               uint8 = 0
	ItemInteger           uint8 = 1
	ItemFloat             uint8 = 2
	ItemDouble            uint8 = 3
	ItemLong              uint8 = 4
	ItemNull              uint8 = 5
	ItemUninitializedThis uint8 = 6
	ItemObject            uint8 = 7
	ItemUninitialized     uint8 = 8
)

// Frame type boundaries.
const (
	frameSameMax             = 63
	frameSameLocals1Max      = 127
	frameReservedMax         = 246
	frameSameLocals1Extended = 247
	frameChopMax             = 250
	frameSameExtended        = 251
	frameAppendMax           = 254
	frameFull                = 255
)

// StackMapTableAttribute holds the stack map frames of a Code attribute.
type StackMapTableAttribute struct {
	Frames []StackMapFrame
}

// StackMapFrame is one stack_map_frame. FrameType selects the layout:
//
//	0-63     same_frame; offset delta is FrameType
//	64-127   same_locals_1_stack_item_frame; one Stack entry
//	247      same_locals_1_stack_item_frame_extended; OffsetDelta, one Stack entry
//	248-250  chop_frame; OffsetDelta
//	251      same_frame_extended; OffsetDelta
//	252-254  append_frame; OffsetDelta, FrameType-251 Locals
//	255      full_frame; OffsetDelta, Locals, Stack
//
// Types 128-246 are reserved.
type StackMapFrame struct {
	FrameType   uint8
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

// VerificationType is a verification_type_info. Class is set for
// ItemObject and Offset for ItemUninitialized.
type VerificationType struct {
	Tag    uint8
	Class  string
	Offset uint16
}

// Delta returns the offset delta of the frame, whichever way it is stored.
func (f *StackMapFrame) Delta() uint16 {
	switch {
	case f.FrameType <= frameSameMax:
		return uint16(f.FrameType)
	case f.FrameType <= frameSameLocals1Max:
		return uint16(f.FrameType - 64)
	default:
		return f.OffsetDelta
	}
}

func (*StackMapTableAttribute) Name() string { return AttrStackMapTable }

func decodeStackMapTable(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	frames := make([]StackMapFrame, count)
	for i := range frames {
		if frames[i], err = readFrame(r, pool); err != nil {
			return nil, decodeError(err, fmt.Sprintf("frame %d", i))
		}
	}
	return &StackMapTableAttribute{Frames: frames}, nil
}

func readFrame(r *binary.Reader, pool *ConstantPool) (StackMapFrame, error) {
	offset := r.Position()
	ft, err := r.ReadU1()
	if err != nil {
		return StackMapFrame{}, err
	}
	f := StackMapFrame{FrameType: ft}

	switch {
	case ft <= frameSameMax:
		return f, nil
	case ft <= frameSameLocals1Max:
		v, err := readVerificationType(r, pool)
		if err != nil {
			return f, err
		}
		f.Stack = []VerificationType{v}
		return f, nil
	case ft <= frameReservedMax:
		return f, errors.InvalidTag(errors.PhaseDecode, nil, offset, "reserved stack map frame type", int(ft))
	}

	if f.OffsetDelta, err = r.ReadU2(); err != nil {
		return f, err
	}
	switch {
	case ft == frameSameLocals1Extended:
		v, err := readVerificationType(r, pool)
		if err != nil {
			return f, err
		}
		f.Stack = []VerificationType{v}
	case ft <= frameSameExtended:
		// chop_frame and same_frame_extended carry only the delta.
	case ft <= frameAppendMax:
		if f.Locals, err = readVerificationTypes(r, pool, int(ft)-frameSameExtended); err != nil {
			return f, err
		}
	default:
		n, err := r.ReadU2()
		if err != nil {
			return f, err
		}
		if f.Locals, err = readVerificationTypes(r, pool, int(n)); err != nil {
			return f, err
		}
		if n, err = r.ReadU2(); err != nil {
			return f, err
		}
		if f.Stack, err = readVerificationTypes(r, pool, int(n)); err != nil {
			return f, err
		}
	}
	return f, nil
}

func readVerificationTypes(r *binary.Reader, pool *ConstantPool, n int) ([]VerificationType, error) {
	types := make([]VerificationType, n)
	for i := range types {
		var err error
		if types[i], err = readVerificationType(r, pool); err != nil {
			return nil, err
		}
	}
	return types, nil
}

func readVerificationType(r *binary.Reader, pool *ConstantPool) (VerificationType, error) {
	offset := r.Position()
	tag, err := r.ReadU1()
	if err != nil {
		return VerificationType{}, err
	}
	v := VerificationType{Tag: tag}
	switch tag {
	case ItemObject:
		v.Class, err = readClass(r, pool)
	case ItemUninitialized:
		v.Offset, err = r.ReadU2()
	default:
		if tag > ItemUninitialized {
			err = errors.InvalidTag(errors.PhaseDecode, nil, offset, "verification type", int(tag))
		}
	}
	return v, err
}

func (a *StackMapTableAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Frames), "number_of_entries"); err != nil {
		return err
	}
	for i := range a.Frames {
		if err := a.Frames[i].encode(w, pool); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, fmt.Sprintf("frame %d", i))
		}
	}
	return nil
}

func (f *StackMapFrame) encode(w *binary.Writer, pool *ConstantPool) error {
	ft := f.FrameType
	if ft > frameSameLocals1Max && ft <= frameReservedMax {
		return errors.InvalidTag(errors.PhaseEncode, nil, errors.NoOffset, "reserved stack map frame type", int(ft))
	}
	w.Byte(ft)

	switch {
	case ft <= frameSameMax:
		return nil
	case ft <= frameSameLocals1Max:
		return f.encodeSingleStack(w, pool)
	}

	w.WriteU2(f.OffsetDelta)
	switch {
	case ft == frameSameLocals1Extended:
		return f.encodeSingleStack(w, pool)
	case ft <= frameSameExtended:
		return nil
	case ft <= frameAppendMax:
		if want := int(ft) - frameSameExtended; len(f.Locals) != want {
			return errors.InvalidData(errors.PhaseEncode, nil,
				fmt.Sprintf("append frame type %d needs %d locals, have %d", ft, want, len(f.Locals)))
		}
		return writeVerificationTypes(w, pool, f.Locals)
	default:
		if err := writeCount(w, len(f.Locals), "number_of_locals"); err != nil {
			return err
		}
		if err := writeVerificationTypes(w, pool, f.Locals); err != nil {
			return err
		}
		if err := writeCount(w, len(f.Stack), "number_of_stack_items"); err != nil {
			return err
		}
		return writeVerificationTypes(w, pool, f.Stack)
	}
}

func (f *StackMapFrame) encodeSingleStack(w *binary.Writer, pool *ConstantPool) error {
	if len(f.Stack) != 1 {
		return errors.InvalidData(errors.PhaseEncode, nil,
			fmt.Sprintf("frame type %d needs exactly one stack item, have %d", f.FrameType, len(f.Stack)))
	}
	return writeVerificationTypes(w, pool, f.Stack)
}

func writeVerificationTypes(w *binary.Writer, pool *ConstantPool, types []VerificationType) error {
	for _, v := range types {
		w.Byte(v.Tag)
		switch v.Tag {
		case ItemObject:
			if err := writeClass(w, pool, v.Class); err != nil {
				return err
			}
		case ItemUninitialized:
			w.WriteU2(v.Offset)
		default:
			if v.Tag > ItemUninitialized {
				return errors.InvalidTag(errors.PhaseEncode, nil, errors.NoOffset, "verification type", int(v.Tag))
			}
		}
	}
	return nil
}
