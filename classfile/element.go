package classfile

// ElementInfo is the part shared by classes, fields and methods: access
// flags and an attribute table.
type ElementInfo struct {
	AccessFlags uint16
	Attributes  []Attribute
}

func findAttribute(attrs []Attribute, name string) Attribute {
	for _, a := range attrs {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// FindAttribute returns the first attribute in attrs of type T.
//
//	sig, ok := FindAttribute[*SignatureAttribute](m.Attributes)
func FindAttribute[T Attribute](attrs []Attribute) (T, bool) {
	for _, a := range attrs {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Attribute returns the first attribute with the given name, or nil.
func (e *ElementInfo) Attribute(name string) Attribute {
	return findAttribute(e.Attributes, name)
}

// HasAttribute reports whether the element carries an attribute named name.
func (e *ElementInfo) HasAttribute(name string) bool {
	return e.Attribute(name) != nil
}

// HasFlag reports whether all bits of flag are set in AccessFlags.
func (e *ElementInfo) HasFlag(flag uint16) bool {
	return e.AccessFlags&flag == flag
}

// Signature returns the generic signature, or "" if there is none.
func (e *ElementInfo) Signature() string {
	if a, ok := FindAttribute[*SignatureAttribute](e.Attributes); ok {
		return a.Signature
	}
	return ""
}

// Deprecated reports whether the element carries a Deprecated attribute.
func (e *ElementInfo) Deprecated() bool {
	return e.HasAttribute(AttrDeprecated)
}

// Synthetic reports whether the element is synthetic, by flag or attribute.
func (e *ElementInfo) Synthetic() bool {
	return e.HasFlag(AccSynthetic) || e.HasAttribute(AttrSynthetic)
}

// Annotations returns the run-time visible annotations followed by the
// invisible ones.
func (e *ElementInfo) Annotations() []Annotation {
	var anns []Annotation
	if a, ok := FindAttribute[*RuntimeVisibleAnnotationsAttribute](e.Attributes); ok {
		anns = append(anns, a.Annotations...)
	}
	if a, ok := FindAttribute[*RuntimeInvisibleAnnotationsAttribute](e.Attributes); ok {
		anns = append(anns, a.Annotations...)
	}
	return anns
}

// TypeAnnotations returns the run-time visible type annotations followed by
// the invisible ones.
func (e *ElementInfo) TypeAnnotations() []TypeAnnotation {
	var anns []TypeAnnotation
	if a, ok := FindAttribute[*RuntimeVisibleTypeAnnotationsAttribute](e.Attributes); ok {
		anns = append(anns, a.Annotations...)
	}
	if a, ok := FindAttribute[*RuntimeInvisibleTypeAnnotationsAttribute](e.Attributes); ok {
		anns = append(anns, a.Annotations...)
	}
	return anns
}

// FieldInfo is a field_info structure.
type FieldInfo struct {
	Name       string
	Descriptor string
	ElementInfo
}

// ConstantValue returns the field's constant value, if it has one.
func (f *FieldInfo) ConstantValue() (any, bool) {
	if a, ok := FindAttribute[*ConstantValueAttribute](f.Attributes); ok {
		return a.Value, true
	}
	return nil, false
}

// MethodInfo is a method_info structure.
type MethodInfo struct {
	Name       string
	Descriptor string
	ElementInfo
}

// Code returns the method's Code attribute, or nil for abstract and native
// methods.
func (m *MethodInfo) Code() *CodeAttribute {
	a, _ := FindAttribute[*CodeAttribute](m.Attributes)
	return a
}

// Exceptions returns the checked exceptions the method declares.
func (m *MethodInfo) Exceptions() []string {
	if a, ok := FindAttribute[*ExceptionsAttribute](m.Attributes); ok {
		return a.Exceptions
	}
	return nil
}

// ParameterAnnotations returns the annotations of parameter i, visible ones
// first.
func (m *MethodInfo) ParameterAnnotations(i int) []Annotation {
	if i < 0 {
		return nil
	}
	var anns []Annotation
	if a, ok := FindAttribute[*RuntimeVisibleParameterAnnotationsAttribute](m.Attributes); ok && i < len(a.Parameters) {
		anns = append(anns, a.Parameters[i]...)
	}
	if a, ok := FindAttribute[*RuntimeInvisibleParameterAnnotationsAttribute](m.Attributes); ok && i < len(a.Parameters) {
		anns = append(anns, a.Parameters[i]...)
	}
	return anns
}
