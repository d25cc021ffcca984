package classfile

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// ClassFile is a decoded class file. Pool is the constant pool it was
// decoded from; every other field holds resolved values.
type ClassFile struct {
	Pool       *ConstantPool
	ThisClass  string
	SuperClass string // empty for java/lang/Object and module-info
	Interfaces []string
	Fields     []FieldInfo
	Methods    []MethodInfo
	ElementInfo
	MinorVersion uint16
	MajorVersion uint16
}

// ReadFile loads and parses the class file at path.
func ReadFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return ParseClassFile(data)
}

// ParseClassFile decodes a complete class file. All of data must be consumed.
func ParseClassFile(data []byte) (*ClassFile, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU4()
	if err != nil {
		return nil, decodeError(err, "magic")
	}
	if magic != Magic {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path("magic").
			Offset(0).
			Value(magic).
			Detail("bad magic 0x%08X", magic).
			Build()
	}

	c := &ClassFile{}
	if c.MinorVersion, err = r.ReadU2(); err != nil {
		return nil, decodeError(err, "minor_version")
	}
	if c.MajorVersion, err = r.ReadU2(); err != nil {
		return nil, decodeError(err, "major_version")
	}
	if c.Pool, err = readConstantPool(r); err != nil {
		return nil, err
	}

	if err := c.readBody(r); err != nil {
		return nil, err
	}
	if !r.Empty() {
		return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Path(c.ThisClass).
			Offset(r.Position()).
			Detail("%d trailing bytes after class file", r.Len()).
			Build()
	}

	Logger().Debug("parsed class file",
		zap.String("class", c.ThisClass),
		zap.Uint16("major", c.MajorVersion),
		zap.Int("pool", c.Pool.Count()),
		zap.Int("fields", len(c.Fields)),
		zap.Int("methods", len(c.Methods)))
	return c, nil
}

func (c *ClassFile) readBody(r *binary.Reader) error {
	pool := c.Pool
	var err error
	if c.AccessFlags, err = r.ReadU2(); err != nil {
		return decodeError(err, "access_flags")
	}
	if c.ThisClass, err = readClass(r, pool); err != nil {
		return decodeError(err, "this_class")
	}
	if c.SuperClass, err = readOptionalClass(r, pool); err != nil {
		return decodeError(err, "super_class")
	}
	if c.Interfaces, err = readClassList(r, pool); err != nil {
		return decodeError(err, "interfaces")
	}

	count, err := r.ReadU2()
	if err != nil {
		return decodeError(err, "fields_count")
	}
	c.Fields = make([]FieldInfo, count)
	for i := range c.Fields {
		f := &c.Fields[i]
		if err := readMember(r, pool, &f.Name, &f.Descriptor, &f.ElementInfo); err != nil {
			return decodeError(err, memberPath("field", i, f.Name))
		}
	}

	if count, err = r.ReadU2(); err != nil {
		return decodeError(err, "methods_count")
	}
	c.Methods = make([]MethodInfo, count)
	for i := range c.Methods {
		m := &c.Methods[i]
		if err := readMember(r, pool, &m.Name, &m.Descriptor, &m.ElementInfo); err != nil {
			return decodeError(err, memberPath("method", i, m.Name+m.Descriptor))
		}
	}

	if c.Attributes, err = readAttributes(r, pool); err != nil {
		return decodeError(err, c.ThisClass)
	}
	return nil
}

func memberPath(kind string, i int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s %d", kind, i)
	}
	return kind + " " + name
}

// readMember reads the field_info and method_info layout.
func readMember(r *binary.Reader, pool *ConstantPool, name, descriptor *string, e *ElementInfo) error {
	var err error
	if e.AccessFlags, err = r.ReadU2(); err != nil {
		return err
	}
	if *name, err = readUtf8(r, pool); err != nil {
		return err
	}
	if *descriptor, err = readUtf8(r, pool); err != nil {
		return err
	}
	e.Attributes, err = readAttributes(r, pool)
	return err
}

// Encode encodes the class file against a copy of its own pool, so an
// unmodified ClassFile encodes to its original bytes. Constants needed by
// new or changed values are appended to the copy; c.Pool is not modified.
func (c *ClassFile) Encode() ([]byte, error) {
	if c.Pool == nil {
		return c.EncodeWith(NewConstantPool())
	}
	return c.EncodeWith(c.Pool.Clone())
}

// EncodeWith encodes the class file, interning every constant into pool.
// Passing NewConstantPool() produces a pool holding only what the class
// references.
func (c *ClassFile) EncodeWith(pool *ConstantPool) ([]byte, error) {
	body := binary.NewWriter()
	if err := c.writeBody(body, pool); err != nil {
		return nil, err
	}
	bodyBytes, err := finish(body, c.ThisClass)
	if err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.WriteU4(Magic)
	w.WriteU2(c.MinorVersion)
	w.WriteU2(c.MajorVersion)
	pool.encode(w)
	w.WriteBytes(bodyBytes)
	out, err := finish(w, "constant_pool")
	if err != nil {
		return nil, err
	}

	Logger().Debug("encoded class file",
		zap.String("class", c.ThisClass),
		zap.Int("pool", pool.Count()),
		zap.Int("size", len(out)))
	return out, nil
}

func (c *ClassFile) writeBody(w *binary.Writer, pool *ConstantPool) error {
	w.WriteU2(c.AccessFlags)
	if err := writeClass(w, pool, c.ThisClass); err != nil {
		return errors.WithPath(errors.PhaseEncode, err, "this_class")
	}
	if err := writeOptionalClass(w, pool, c.SuperClass); err != nil {
		return errors.WithPath(errors.PhaseEncode, err, "super_class")
	}
	if err := writeClassList(w, pool, c.Interfaces, "interfaces_count"); err != nil {
		return errors.WithPath(errors.PhaseEncode, err, "interfaces")
	}

	if err := writeCount(w, len(c.Fields), "fields_count"); err != nil {
		return err
	}
	for i := range c.Fields {
		f := &c.Fields[i]
		if err := writeMember(w, pool, f.Name, f.Descriptor, &f.ElementInfo); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, memberPath("field", i, f.Name))
		}
	}

	if err := writeCount(w, len(c.Methods), "methods_count"); err != nil {
		return err
	}
	for i := range c.Methods {
		m := &c.Methods[i]
		if err := writeMember(w, pool, m.Name, m.Descriptor, &m.ElementInfo); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, memberPath("method", i, m.Name+m.Descriptor))
		}
	}

	if err := writeAttributes(w, c.Attributes, pool); err != nil {
		return errors.WithPath(errors.PhaseEncode, err, c.ThisClass)
	}
	return nil
}

func writeMember(w *binary.Writer, pool *ConstantPool, name, descriptor string, e *ElementInfo) error {
	w.WriteU2(e.AccessFlags)
	if err := writeUtf8(w, pool, name); err != nil {
		return err
	}
	if err := writeUtf8(w, pool, descriptor); err != nil {
		return err
	}
	return writeAttributes(w, e.Attributes, pool)
}

// FindField returns the field with the given name, or nil.
func (c *ClassFile) FindField(name string) *FieldInfo {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// FindMethod returns the method with the given name and descriptor, or nil.
// An empty descriptor matches the first method with that name.
func (c *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.Name == name && (descriptor == "" || m.Descriptor == descriptor) {
			return m
		}
	}
	return nil
}

// SourceFile returns the name recorded in the SourceFile attribute.
func (c *ClassFile) SourceFile() string {
	if a, ok := FindAttribute[*SourceFileAttribute](c.Attributes); ok {
		return a.SourceFile
	}
	return ""
}

// IsModule reports whether the class file is a module descriptor.
func (c *ClassFile) IsModule() bool {
	return c.HasFlag(AccModule)
}
