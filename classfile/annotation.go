package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// Annotation is an annotation structure (JVMS §4.7.16): the annotation
// interface's field descriptor and its element-value pairs in class-file
// order.
type Annotation struct {
	Type   string
	Values []ElementPair
}

// ElementPair is one element_value_pair of an annotation.
type ElementPair struct {
	Name  string
	Value ElementValue
}

// Value returns the value of the named element.
func (a Annotation) Value(name string) (ElementValue, bool) {
	for _, p := range a.Values {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func readAnnotation(r *binary.Reader, pool *ConstantPool) (Annotation, error) {
	typ, err := readUtf8(r, pool)
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{Type: typ}
	if err := a.readValues(r, pool); err != nil {
		return Annotation{}, decodeError(err, typ)
	}
	return a, nil
}

// readValues reads num_element_value_pairs and the pairs that follow. It is
// the tail shared by annotations and type annotations.
func (a *Annotation) readValues(r *binary.Reader, pool *ConstantPool) error {
	count, err := r.ReadU2()
	if err != nil {
		return err
	}
	a.Values = make([]ElementPair, count)
	for i := range a.Values {
		name, err := readUtf8(r, pool)
		if err != nil {
			return err
		}
		v, err := readElementValue(r, pool)
		if err != nil {
			return decodeError(err, name)
		}
		a.Values[i] = ElementPair{Name: name, Value: v}
	}
	return nil
}

func (a *Annotation) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeUtf8(w, pool, a.Type); err != nil {
		return err
	}
	if err := a.encodeValues(w, pool); err != nil {
		return errors.WithPath(errors.PhaseEncode, err, a.Type)
	}
	return nil
}

func (a *Annotation) encodeValues(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Values), "num_element_value_pairs"); err != nil {
		return err
	}
	for _, p := range a.Values {
		if err := writeUtf8(w, pool, p.Name); err != nil {
			return err
		}
		if err := writeElementValue(w, p.Value, pool); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, p.Name)
		}
	}
	return nil
}

func readAnnotations(r *binary.Reader, pool *ConstantPool) ([]Annotation, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	anns := make([]Annotation, count)
	for i := range anns {
		if anns[i], err = readAnnotation(r, pool); err != nil {
			return nil, err
		}
	}
	return anns, nil
}

func writeAnnotations(w *binary.Writer, pool *ConstantPool, anns []Annotation) error {
	if err := writeCount(w, len(anns), "num_annotations"); err != nil {
		return err
	}
	for i := range anns {
		if err := anns[i].encode(w, pool); err != nil {
			return err
		}
	}
	return nil
}

func readParameterAnnotations(r *binary.Reader, pool *ConstantPool) ([][]Annotation, error) {
	count, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	params := make([][]Annotation, count)
	for i := range params {
		if params[i], err = readAnnotations(r, pool); err != nil {
			return nil, decodeError(err, fmt.Sprintf("parameter %d", i))
		}
	}
	return params, nil
}

func writeParameterAnnotations(w *binary.Writer, pool *ConstantPool, params [][]Annotation) error {
	if err := writeCount1(w, len(params), "num_parameters"); err != nil {
		return err
	}
	for i, anns := range params {
		if err := writeAnnotations(w, pool, anns); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, fmt.Sprintf("parameter %d", i))
		}
	}
	return nil
}

// RuntimeVisibleAnnotationsAttribute holds annotations retained at run time.
type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

// RuntimeInvisibleAnnotationsAttribute holds annotations not retained at run
// time.
type RuntimeInvisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

// RuntimeVisibleParameterAnnotationsAttribute holds run-time visible
// annotations per formal parameter.
type RuntimeVisibleParameterAnnotationsAttribute struct {
	Parameters [][]Annotation
}

// RuntimeInvisibleParameterAnnotationsAttribute holds invisible annotations
// per formal parameter.
type RuntimeInvisibleParameterAnnotationsAttribute struct {
	Parameters [][]Annotation
}

// AnnotationDefaultAttribute holds the default value of an annotation
// interface element.
type AnnotationDefaultAttribute struct {
	Value ElementValue
}

func (*RuntimeVisibleAnnotationsAttribute) Name() string   { return AttrRuntimeVisibleAnnotations }
func (*RuntimeInvisibleAnnotationsAttribute) Name() string { return AttrRuntimeInvisibleAnnotations }
func (*RuntimeVisibleParameterAnnotationsAttribute) Name() string {
	return AttrRuntimeVisibleParameterAnnotations
}
func (*RuntimeInvisibleParameterAnnotationsAttribute) Name() string {
	return AttrRuntimeInvisibleParameterAnnotations
}
func (*AnnotationDefaultAttribute) Name() string { return AttrAnnotationDefault }

func (a *RuntimeVisibleAnnotationsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeAnnotations(w, pool, a.Annotations)
}

func (a *RuntimeInvisibleAnnotationsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeAnnotations(w, pool, a.Annotations)
}

func (a *RuntimeVisibleParameterAnnotationsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeParameterAnnotations(w, pool, a.Parameters)
}

func (a *RuntimeInvisibleParameterAnnotationsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeParameterAnnotations(w, pool, a.Parameters)
}

func (a *AnnotationDefaultAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeElementValue(w, a.Value, pool)
}

func decodeRuntimeVisibleAnnotations(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	anns, err := readAnnotations(r, pool)
	if err != nil {
		return nil, err
	}
	return &RuntimeVisibleAnnotationsAttribute{Annotations: anns}, nil
}

func decodeRuntimeInvisibleAnnotations(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	anns, err := readAnnotations(r, pool)
	if err != nil {
		return nil, err
	}
	return &RuntimeInvisibleAnnotationsAttribute{Annotations: anns}, nil
}

func decodeRuntimeVisibleParameterAnnotations(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	params, err := readParameterAnnotations(r, pool)
	if err != nil {
		return nil, err
	}
	return &RuntimeVisibleParameterAnnotationsAttribute{Parameters: params}, nil
}

func decodeRuntimeInvisibleParameterAnnotations(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	params, err := readParameterAnnotations(r, pool)
	if err != nil {
		return nil, err
	}
	return &RuntimeInvisibleParameterAnnotationsAttribute{Parameters: params}, nil
}

func decodeAnnotationDefault(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	v, err := readElementValue(r, pool)
	if err != nil {
		return nil, err
	}
	return &AnnotationDefaultAttribute{Value: v}, nil
}
