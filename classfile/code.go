package classfile

import (
	"math"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// CodeAttribute holds the bytecode of a method. The instructions are kept as
// raw bytes; Attributes is a nested attribute table decoded through the same
// registry as any other.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// ExceptionHandler is one exception_table entry. CatchType is empty for a
// handler that catches everything.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType string
}

func (*CodeAttribute) Name() string { return AttrCode }

// Attribute returns the first nested attribute with the given name.
func (a *CodeAttribute) Attribute(name string) Attribute {
	return findAttribute(a.Attributes, name)
}

func decodeCode(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	a := &CodeAttribute{}
	var err error
	if a.MaxStack, err = r.ReadU2(); err != nil {
		return nil, err
	}
	if a.MaxLocals, err = r.ReadU2(); err != nil {
		return nil, err
	}
	codeLen, err := r.ReadU4()
	if err != nil {
		return nil, err
	}
	if uint64(codeLen) > uint64(r.Len()) {
		return nil, errors.New(errors.PhaseDecode, errors.KindTruncated).
			Path("code").
			Offset(r.Position()).
			Value(codeLen).
			Detail("code_length %d exceeds the %d bytes remaining", codeLen, r.Len()).
			Build()
	}
	if a.Code, err = r.ReadBytes(int(codeLen)); err != nil {
		return nil, err
	}

	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	a.ExceptionTable = make([]ExceptionHandler, count)
	for i := range a.ExceptionTable {
		h := &a.ExceptionTable[i]
		if h.StartPC, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if h.EndPC, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if h.HandlerPC, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if h.CatchType, err = readOptionalClass(r, pool); err != nil {
			return nil, decodeError(err, "exception_table")
		}
	}

	if a.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *CodeAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	w.WriteU2(a.MaxStack)
	w.WriteU2(a.MaxLocals)
	if uint64(len(a.Code)) > math.MaxUint32 {
		return errors.Overflow(errors.PhaseEncode, []string{"code"}, len(a.Code), "code_length (u4)")
	}
	w.WriteU4(uint32(len(a.Code)))
	w.WriteBytes(a.Code)

	if err := writeCount(w, len(a.ExceptionTable), "exception_table_length"); err != nil {
		return err
	}
	for _, h := range a.ExceptionTable {
		w.WriteU2(h.StartPC)
		w.WriteU2(h.EndPC)
		w.WriteU2(h.HandlerPC)
		if err := writeOptionalClass(w, pool, h.CatchType); err != nil {
			return err
		}
	}
	return writeAttributes(w, a.Attributes, pool)
}
