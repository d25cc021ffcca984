package classfile

import (
	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// RecordAttribute lists the components of a record class.
type RecordAttribute struct {
	Components []RecordComponent
}

// RecordComponent is one record_component_info. Attributes typically carry
// Signature and annotation attributes.
type RecordComponent struct {
	Name       string
	Descriptor string
	Attributes []Attribute
}

func (*RecordAttribute) Name() string { return AttrRecord }

func decodeRecord(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	components := make([]RecordComponent, count)
	for i := range components {
		c := &components[i]
		if c.Name, err = readUtf8(r, pool); err != nil {
			return nil, err
		}
		if c.Descriptor, err = readUtf8(r, pool); err != nil {
			return nil, err
		}
		if c.Attributes, err = readAttributes(r, pool); err != nil {
			return nil, decodeError(err, c.Name)
		}
	}
	return &RecordAttribute{Components: components}, nil
}

func (a *RecordAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Components), "components_count"); err != nil {
		return err
	}
	for _, c := range a.Components {
		if err := writeUtf8(w, pool, c.Name); err != nil {
			return err
		}
		if err := writeUtf8(w, pool, c.Descriptor); err != nil {
			return err
		}
		if err := writeAttributes(w, c.Attributes, pool); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, c.Name)
		}
	}
	return nil
}
