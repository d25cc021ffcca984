package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// ConstantValueAttribute is the value of a constant field. Value is one of
// int32, int64, float32, float64 or string; int32 also carries boolean,
// byte, char and short constants.
type ConstantValueAttribute struct {
	Value any
}

// ExceptionsAttribute lists the checked exceptions a method may throw.
type ExceptionsAttribute struct {
	Exceptions []string
}

// InnerClassesAttribute describes the nested classes a class refers to.
type InnerClassesAttribute struct {
	Classes []InnerClass
}

// InnerClass is one InnerClasses entry. OuterClass and InnerName are empty
// for local and anonymous classes.
type InnerClass struct {
	InnerClass  string
	OuterClass  string
	InnerName   string
	AccessFlags uint16
}

// EnclosingMethodAttribute identifies the method enclosing a local or
// anonymous class. MethodName and MethodDescriptor are empty when the class
// is not enclosed by a method.
type EnclosingMethodAttribute struct {
	Class            string
	MethodName       string
	MethodDescriptor string
}

// SyntheticAttribute marks a member not present in source.
type SyntheticAttribute struct{}

// DeprecatedAttribute marks a deprecated element.
type DeprecatedAttribute struct{}

// SignatureAttribute holds a generic signature.
type SignatureAttribute struct {
	Signature string
}

// SourceFileAttribute names the source file a class was compiled from.
type SourceFileAttribute struct {
	SourceFile string
}

// SourceDebugExtensionAttribute holds uninterpreted debug information.
type SourceDebugExtensionAttribute struct {
	Data []byte
}

// LineNumberTableAttribute maps code offsets to source lines.
type LineNumberTableAttribute struct {
	Lines []LineNumber
}

// LineNumber is one LineNumberTable entry.
type LineNumber struct {
	StartPC    uint16
	LineNumber uint16
}

// LocalVariableTableAttribute describes local variables of a method.
type LocalVariableTableAttribute struct {
	Variables []LocalVariable
}

// LocalVariable is one LocalVariableTable entry.
type LocalVariable struct {
	StartPC    uint16
	Length     uint16
	Name       string
	Descriptor string
	Index      uint16
}

// LocalVariableTypeTableAttribute describes local variables with generic
// types.
type LocalVariableTypeTableAttribute struct {
	Variables []LocalVariableType
}

// LocalVariableType is one LocalVariableTypeTable entry.
type LocalVariableType struct {
	StartPC   uint16
	Length    uint16
	Name      string
	Signature string
	Index     uint16
}

// BootstrapMethodsAttribute holds the bootstrap methods of invokedynamic
// call sites and dynamic constants. References stay constant pool indices.
type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

// BootstrapMethod is one bootstrap_methods entry. MethodRef must index a
// MethodHandle entry and each argument a loadable constant.
type BootstrapMethod struct {
	MethodRef uint16
	Arguments []uint16
}

// MethodParametersAttribute describes formal parameters of a method.
type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

// MethodParameter is one MethodParameters entry. Name is empty for a
// parameter without a name.
type MethodParameter struct {
	Name        string
	AccessFlags uint16
}

// ModulePackagesAttribute lists the packages of a module.
type ModulePackagesAttribute struct {
	Packages []string
}

// ModuleMainClassAttribute names the main class of a module.
type ModuleMainClassAttribute struct {
	MainClass string
}

// NestHostAttribute names the nest host of a class.
type NestHostAttribute struct {
	HostClass string
}

// NestMembersAttribute lists the members of a nest.
type NestMembersAttribute struct {
	Classes []string
}

// PermittedSubclassesAttribute lists the permitted direct subclasses of a
// sealed class.
type PermittedSubclassesAttribute struct {
	Classes []string
}

func (*ConstantValueAttribute) Name() string          { return AttrConstantValue }
func (*ExceptionsAttribute) Name() string             { return AttrExceptions }
func (*InnerClassesAttribute) Name() string           { return AttrInnerClasses }
func (*EnclosingMethodAttribute) Name() string        { return AttrEnclosingMethod }
func (*SyntheticAttribute) Name() string              { return AttrSynthetic }
func (*DeprecatedAttribute) Name() string             { return AttrDeprecated }
func (*SignatureAttribute) Name() string              { return AttrSignature }
func (*SourceFileAttribute) Name() string             { return AttrSourceFile }
func (*SourceDebugExtensionAttribute) Name() string   { return AttrSourceDebugExtension }
func (*LineNumberTableAttribute) Name() string        { return AttrLineNumberTable }
func (*LocalVariableTableAttribute) Name() string     { return AttrLocalVariableTable }
func (*LocalVariableTypeTableAttribute) Name() string { return AttrLocalVariableTypeTable }
func (*BootstrapMethodsAttribute) Name() string       { return AttrBootstrapMethods }
func (*MethodParametersAttribute) Name() string       { return AttrMethodParameters }
func (*ModulePackagesAttribute) Name() string         { return AttrModulePackages }
func (*ModuleMainClassAttribute) Name() string        { return AttrModuleMainClass }
func (*NestHostAttribute) Name() string               { return AttrNestHost }
func (*NestMembersAttribute) Name() string            { return AttrNestMembers }
func (*PermittedSubclassesAttribute) Name() string    { return AttrPermittedSubclasses }

const constantValueTypes = "int32, int64, float32, float64 or string"

func decodeConstantValue(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	c, err := pool.Entry(idx)
	if err != nil {
		return nil, atOffset(err, offset)
	}
	switch c := c.(type) {
	case ConstantInteger:
		return &ConstantValueAttribute{Value: c.Value}, nil
	case ConstantLong:
		return &ConstantValueAttribute{Value: c.Value}, nil
	case ConstantFloat:
		return &ConstantValueAttribute{Value: c.Value}, nil
	case ConstantDouble:
		return &ConstantValueAttribute{Value: c.Value}, nil
	case ConstantString:
		s, err := pool.Utf8(c.StringIndex)
		if err != nil {
			return nil, atOffset(err, offset)
		}
		return &ConstantValueAttribute{Value: s}, nil
	default:
		return nil, atOffset(errors.PoolTag(errors.PhaseDecode, int(idx), c.Tag().String(), "Integer, Long, Float, Double or String"), offset)
	}
}

func (a *ConstantValueAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	switch v := a.Value.(type) {
	case int32:
		return writeConst(w, pool.IntegerInfo, v)
	case int64:
		return writeConst(w, pool.LongInfo, v)
	case float32:
		return writeConst(w, pool.FloatInfo, v)
	case float64:
		return writeConst(w, pool.DoubleInfo, v)
	case string:
		return writeConst(w, pool.StringInfo, v)
	default:
		return errors.TypeMismatch(errors.PhaseEncode, nil, fmt.Sprintf("%T", a.Value), constantValueTypes)
	}
}

func decodeExceptions(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	names, err := readClassList(r, pool)
	if err != nil {
		return nil, err
	}
	return &ExceptionsAttribute{Exceptions: names}, nil
}

func (a *ExceptionsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeClassList(w, pool, a.Exceptions, "number_of_exceptions")
}

func decodeInnerClasses(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	classes := make([]InnerClass, count)
	for i := range classes {
		c := &classes[i]
		if c.InnerClass, err = readClass(r, pool); err != nil {
			return nil, err
		}
		if c.OuterClass, err = readOptionalClass(r, pool); err != nil {
			return nil, err
		}
		if c.InnerName, err = readOptionalUtf8(r, pool); err != nil {
			return nil, err
		}
		if c.AccessFlags, err = r.ReadU2(); err != nil {
			return nil, err
		}
	}
	return &InnerClassesAttribute{Classes: classes}, nil
}

func (a *InnerClassesAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Classes), "number_of_classes"); err != nil {
		return err
	}
	for _, c := range a.Classes {
		if err := writeClass(w, pool, c.InnerClass); err != nil {
			return err
		}
		if err := writeOptionalClass(w, pool, c.OuterClass); err != nil {
			return err
		}
		if err := writeOptionalUtf8(w, pool, c.InnerName); err != nil {
			return err
		}
		w.WriteU2(c.AccessFlags)
	}
	return nil
}

func decodeEnclosingMethod(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	class, err := readClass(r, pool)
	if err != nil {
		return nil, err
	}
	a := &EnclosingMethodAttribute{Class: class}
	offset := r.Position()
	idx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	if idx != 0 {
		if a.MethodName, a.MethodDescriptor, err = pool.NameAndType(idx); err != nil {
			return nil, atOffset(err, offset)
		}
	}
	return a, nil
}

func (a *EnclosingMethodAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeClass(w, pool, a.Class); err != nil {
		return err
	}
	if a.MethodName == "" && a.MethodDescriptor == "" {
		w.WriteU2(0)
		return nil
	}
	idx, err := pool.NameAndTypeInfo(a.MethodName, a.MethodDescriptor)
	if err != nil {
		return err
	}
	w.WriteU2(idx)
	return nil
}

func decodeSynthetic(*binary.Reader, *ConstantPool) (Attribute, error) {
	return &SyntheticAttribute{}, nil
}

func (*SyntheticAttribute) encode(*binary.Writer, *ConstantPool) error { return nil }

func decodeDeprecated(*binary.Reader, *ConstantPool) (Attribute, error) {
	return &DeprecatedAttribute{}, nil
}

func (*DeprecatedAttribute) encode(*binary.Writer, *ConstantPool) error { return nil }

func decodeSignature(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	s, err := readUtf8(r, pool)
	if err != nil {
		return nil, err
	}
	return &SignatureAttribute{Signature: s}, nil
}

func (a *SignatureAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeUtf8(w, pool, a.Signature)
}

func decodeSourceFile(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	s, err := readUtf8(r, pool)
	if err != nil {
		return nil, err
	}
	return &SourceFileAttribute{SourceFile: s}, nil
}

func (a *SourceFileAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeUtf8(w, pool, a.SourceFile)
}

func decodeSourceDebugExtension(r *binary.Reader, _ *ConstantPool) (Attribute, error) {
	return &SourceDebugExtensionAttribute{Data: r.ReadRemaining()}, nil
}

func (a *SourceDebugExtensionAttribute) encode(w *binary.Writer, _ *ConstantPool) error {
	w.WriteBytes(a.Data)
	return nil
}

func decodeLineNumberTable(r *binary.Reader, _ *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	lines := make([]LineNumber, count)
	for i := range lines {
		if lines[i].StartPC, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if lines[i].LineNumber, err = r.ReadU2(); err != nil {
			return nil, err
		}
	}
	return &LineNumberTableAttribute{Lines: lines}, nil
}

func (a *LineNumberTableAttribute) encode(w *binary.Writer, _ *ConstantPool) error {
	if err := writeCount(w, len(a.Lines), "line_number_table_length"); err != nil {
		return err
	}
	for _, l := range a.Lines {
		w.WriteU2(l.StartPC)
		w.WriteU2(l.LineNumber)
	}
	return nil
}

// readLocalVariable reads the five u2 fields shared by LocalVariableTable and
// LocalVariableTypeTable entries.
func readLocalVariable(r *binary.Reader, pool *ConstantPool) (LocalVariable, error) {
	var v LocalVariable
	var err error
	if v.StartPC, err = r.ReadU2(); err != nil {
		return v, err
	}
	if v.Length, err = r.ReadU2(); err != nil {
		return v, err
	}
	if v.Name, err = readUtf8(r, pool); err != nil {
		return v, err
	}
	if v.Descriptor, err = readUtf8(r, pool); err != nil {
		return v, err
	}
	v.Index, err = r.ReadU2()
	return v, err
}

func writeLocalVariable(w *binary.Writer, pool *ConstantPool, v LocalVariable) error {
	w.WriteU2(v.StartPC)
	w.WriteU2(v.Length)
	if err := writeUtf8(w, pool, v.Name); err != nil {
		return err
	}
	if err := writeUtf8(w, pool, v.Descriptor); err != nil {
		return err
	}
	w.WriteU2(v.Index)
	return nil
}

func decodeLocalVariableTable(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	vars := make([]LocalVariable, count)
	for i := range vars {
		if vars[i], err = readLocalVariable(r, pool); err != nil {
			return nil, err
		}
	}
	return &LocalVariableTableAttribute{Variables: vars}, nil
}

func (a *LocalVariableTableAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Variables), "local_variable_table_length"); err != nil {
		return err
	}
	for _, v := range a.Variables {
		if err := writeLocalVariable(w, pool, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeLocalVariableTypeTable(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	vars := make([]LocalVariableType, count)
	for i := range vars {
		v, err := readLocalVariable(r, pool)
		if err != nil {
			return nil, err
		}
		vars[i] = LocalVariableType{
			StartPC:   v.StartPC,
			Length:    v.Length,
			Name:      v.Name,
			Signature: v.Descriptor,
			Index:     v.Index,
		}
	}
	return &LocalVariableTypeTableAttribute{Variables: vars}, nil
}

func (a *LocalVariableTypeTableAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Variables), "local_variable_type_table_length"); err != nil {
		return err
	}
	for _, v := range a.Variables {
		lv := LocalVariable{StartPC: v.StartPC, Length: v.Length, Name: v.Name, Descriptor: v.Signature, Index: v.Index}
		if err := writeLocalVariable(w, pool, lv); err != nil {
			return err
		}
	}
	return nil
}

// loadable reports whether tag may be a bootstrap method argument
// (JVMS §4.4, Table 4.4-C).
func loadable(tag ConstantTag) bool {
	switch tag {
	case TagInteger, TagFloat, TagLong, TagDouble, TagClass, TagString,
		TagMethodHandle, TagMethodType, TagDynamic:
		return true
	}
	return false
}

// checkBootstrapMethod verifies that the references of m resolve in pool.
func checkBootstrapMethod(m BootstrapMethod, pool *ConstantPool, phase errors.Phase) error {
	c, err := pool.Entry(m.MethodRef)
	if err != nil {
		return err
	}
	if c.Tag() != TagMethodHandle {
		return errors.PoolTag(phase, int(m.MethodRef), c.Tag().String(), TagMethodHandle.String())
	}
	for _, arg := range m.Arguments {
		c, err := pool.Entry(arg)
		if err != nil {
			return err
		}
		if !loadable(c.Tag()) {
			return errors.PoolTag(phase, int(arg), c.Tag().String(), "loadable constant")
		}
	}
	return nil
}

func decodeBootstrapMethods(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, count)
	for i := range methods {
		offset := r.Position()
		m := &methods[i]
		if m.MethodRef, err = r.ReadU2(); err != nil {
			return nil, err
		}
		n, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		m.Arguments = make([]uint16, n)
		for j := range m.Arguments {
			if m.Arguments[j], err = r.ReadU2(); err != nil {
				return nil, err
			}
		}
		if err := checkBootstrapMethod(*m, pool, errors.PhaseDecode); err != nil {
			return nil, errors.WithPath(errors.PhaseDecode, atOffset(err, offset), fmt.Sprintf("bootstrap_method %d", i))
		}
	}
	return &BootstrapMethodsAttribute{Methods: methods}, nil
}

// encode writes the indices unchanged. They must already resolve in pool.
func (a *BootstrapMethodsAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Methods), "num_bootstrap_methods"); err != nil {
		return err
	}
	for i, m := range a.Methods {
		if err := checkBootstrapMethod(m, pool, errors.PhaseEncode); err != nil {
			return errors.WithPath(errors.PhaseEncode, err, fmt.Sprintf("bootstrap_method %d", i))
		}
		w.WriteU2(m.MethodRef)
		if err := writeCount(w, len(m.Arguments), "num_bootstrap_arguments"); err != nil {
			return err
		}
		for _, arg := range m.Arguments {
			w.WriteU2(arg)
		}
	}
	return nil
}

func decodeMethodParameters(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	params := make([]MethodParameter, count)
	for i := range params {
		if params[i].Name, err = readOptionalUtf8(r, pool); err != nil {
			return nil, err
		}
		if params[i].AccessFlags, err = r.ReadU2(); err != nil {
			return nil, err
		}
	}
	return &MethodParametersAttribute{Parameters: params}, nil
}

func (a *MethodParametersAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount1(w, len(a.Parameters), "parameters_count"); err != nil {
		return err
	}
	for _, p := range a.Parameters {
		if err := writeOptionalUtf8(w, pool, p.Name); err != nil {
			return err
		}
		w.WriteU2(p.AccessFlags)
	}
	return nil
}

func decodeModulePackages(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	pkgs := make([]string, count)
	for i := range pkgs {
		if pkgs[i], err = readConst(r, pool.PackageName); err != nil {
			return nil, err
		}
	}
	return &ModulePackagesAttribute{Packages: pkgs}, nil
}

func (a *ModulePackagesAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeCount(w, len(a.Packages), "package_count"); err != nil {
		return err
	}
	for _, p := range a.Packages {
		if err := writeConst(w, pool.PackageInfo, p); err != nil {
			return err
		}
	}
	return nil
}

func decodeModuleMainClass(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	name, err := readClass(r, pool)
	if err != nil {
		return nil, err
	}
	return &ModuleMainClassAttribute{MainClass: name}, nil
}

func (a *ModuleMainClassAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeClass(w, pool, a.MainClass)
}

func decodeNestHost(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	name, err := readClass(r, pool)
	if err != nil {
		return nil, err
	}
	return &NestHostAttribute{HostClass: name}, nil
}

func (a *NestHostAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeClass(w, pool, a.HostClass)
}

func decodeNestMembers(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	names, err := readClassList(r, pool)
	if err != nil {
		return nil, err
	}
	return &NestMembersAttribute{Classes: names}, nil
}

func (a *NestMembersAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeClassList(w, pool, a.Classes, "number_of_classes")
}

func decodePermittedSubclasses(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	names, err := readClassList(r, pool)
	if err != nil {
		return nil, err
	}
	return &PermittedSubclassesAttribute{Classes: names}, nil
}

func (a *PermittedSubclassesAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	return writeClassList(w, pool, a.Classes, "number_of_classes")
}
