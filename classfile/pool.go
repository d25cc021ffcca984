package classfile

import (
	"math"

	"github.com/wippyai/classfile/classfile/internal/binary"
	"github.com/wippyai/classfile/errors"
)

// Constant is a constant pool entry. The set of implementations is closed.
type Constant interface {
	Tag() ConstantTag
	encode(w *binary.Writer)
}

// ConstantUtf8 holds a string, decoded from modified UTF-8.
type ConstantUtf8 struct {
	Value string
}

// ConstantInteger holds an int constant.
type ConstantInteger struct {
	Value int32
}

// ConstantFloat holds a float constant.
type ConstantFloat struct {
	Value float32
}

// ConstantLong holds a long constant. It occupies two pool slots.
type ConstantLong struct {
	Value int64
}

// ConstantDouble holds a double constant. It occupies two pool slots.
type ConstantDouble struct {
	Value float64
}

// ConstantClass references a class or interface by its internal name.
type ConstantClass struct {
	NameIndex uint16
}

// ConstantString references the Utf8 value of a string literal.
type ConstantString struct {
	StringIndex uint16
}

// ConstantFieldref references a field.
type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// ConstantMethodref references a class method.
type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// ConstantInterfaceMethodref references an interface method.
type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// ConstantNameAndType pairs a member name with its descriptor.
type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

// ConstantMethodHandle references a field or method for invokedynamic.
type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

// ConstantMethodType references a method descriptor.
type ConstantMethodType struct {
	DescriptorIndex uint16
}

// ConstantDynamic is a dynamically computed constant.
type ConstantDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// ConstantInvokeDynamic is a dynamically computed call site.
type ConstantInvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// ConstantModule names a module.
type ConstantModule struct {
	NameIndex uint16
}

// ConstantPackage names a package exported or opened by a module.
type ConstantPackage struct {
	NameIndex uint16
}

func (ConstantUtf8) Tag() ConstantTag               { return TagUtf8 }
func (ConstantInteger) Tag() ConstantTag            { return TagInteger }
func (ConstantFloat) Tag() ConstantTag              { return TagFloat }
func (ConstantLong) Tag() ConstantTag               { return TagLong }
func (ConstantDouble) Tag() ConstantTag             { return TagDouble }
func (ConstantClass) Tag() ConstantTag              { return TagClass }
func (ConstantString) Tag() ConstantTag             { return TagString }
func (ConstantFieldref) Tag() ConstantTag           { return TagFieldref }
func (ConstantMethodref) Tag() ConstantTag          { return TagMethodref }
func (ConstantInterfaceMethodref) Tag() ConstantTag { return TagInterfaceMethodref }
func (ConstantNameAndType) Tag() ConstantTag        { return TagNameAndType }
func (ConstantMethodHandle) Tag() ConstantTag       { return TagMethodHandle }
func (ConstantMethodType) Tag() ConstantTag         { return TagMethodType }
func (ConstantDynamic) Tag() ConstantTag            { return TagDynamic }
func (ConstantInvokeDynamic) Tag() ConstantTag      { return TagInvokeDynamic }
func (ConstantModule) Tag() ConstantTag             { return TagModule }
func (ConstantPackage) Tag() ConstantTag            { return TagPackage }

func (c ConstantUtf8) encode(w *binary.Writer)    { w.WriteMUTF8(c.Value) }
func (c ConstantInteger) encode(w *binary.Writer) { w.WriteI4(c.Value) }
func (c ConstantFloat) encode(w *binary.Writer)   { w.WriteF4(c.Value) }
func (c ConstantLong) encode(w *binary.Writer)    { w.WriteI8(c.Value) }
func (c ConstantDouble) encode(w *binary.Writer)  { w.WriteF8(c.Value) }
func (c ConstantClass) encode(w *binary.Writer)   { w.WriteU2(c.NameIndex) }
func (c ConstantString) encode(w *binary.Writer)  { w.WriteU2(c.StringIndex) }

func (c ConstantFieldref) encode(w *binary.Writer) {
	w.WriteU2(c.ClassIndex)
	w.WriteU2(c.NameAndTypeIndex)
}

func (c ConstantMethodref) encode(w *binary.Writer) {
	w.WriteU2(c.ClassIndex)
	w.WriteU2(c.NameAndTypeIndex)
}

func (c ConstantInterfaceMethodref) encode(w *binary.Writer) {
	w.WriteU2(c.ClassIndex)
	w.WriteU2(c.NameAndTypeIndex)
}

func (c ConstantNameAndType) encode(w *binary.Writer) {
	w.WriteU2(c.NameIndex)
	w.WriteU2(c.DescriptorIndex)
}

func (c ConstantMethodHandle) encode(w *binary.Writer) {
	w.Byte(c.ReferenceKind)
	w.WriteU2(c.ReferenceIndex)
}

func (c ConstantMethodType) encode(w *binary.Writer) { w.WriteU2(c.DescriptorIndex) }

func (c ConstantDynamic) encode(w *binary.Writer) {
	w.WriteU2(c.BootstrapMethodAttrIndex)
	w.WriteU2(c.NameAndTypeIndex)
}

func (c ConstantInvokeDynamic) encode(w *binary.Writer) {
	w.WriteU2(c.BootstrapMethodAttrIndex)
	w.WriteU2(c.NameAndTypeIndex)
}

func (c ConstantModule) encode(w *binary.Writer)  { w.WriteU2(c.NameIndex) }
func (c ConstantPackage) encode(w *binary.Writer) { w.WriteU2(c.NameIndex) }

// Float and Double entries are keyed by bit pattern: -0.0 and +0.0 compare
// equal as floats, and NaN never equals itself.
type floatKey uint32
type doubleKey uint64

func poolKey(c Constant) any {
	switch v := c.(type) {
	case ConstantFloat:
		return floatKey(math.Float32bits(v.Value))
	case ConstantDouble:
		return doubleKey(math.Float64bits(v.Value))
	default:
		return c
	}
}

func readConstant(r *binary.Reader, tag ConstantTag) (Constant, error) {
	switch tag {
	case TagUtf8:
		s, err := r.ReadMUTF8()
		return ConstantUtf8{Value: s}, err
	case TagInteger:
		v, err := r.ReadI4()
		return ConstantInteger{Value: v}, err
	case TagFloat:
		v, err := r.ReadF4()
		return ConstantFloat{Value: v}, err
	case TagLong:
		v, err := r.ReadI8()
		return ConstantLong{Value: v}, err
	case TagDouble:
		v, err := r.ReadF8()
		return ConstantDouble{Value: v}, err
	case TagClass:
		v, err := r.ReadU2()
		return ConstantClass{NameIndex: v}, err
	case TagString:
		v, err := r.ReadU2()
		return ConstantString{StringIndex: v}, err
	case TagMethodType:
		v, err := r.ReadU2()
		return ConstantMethodType{DescriptorIndex: v}, err
	case TagModule:
		v, err := r.ReadU2()
		return ConstantModule{NameIndex: v}, err
	case TagPackage:
		v, err := r.ReadU2()
		return ConstantPackage{NameIndex: v}, err
	case TagMethodHandle:
		kind, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		ref, err := r.ReadU2()
		return ConstantMethodHandle{ReferenceKind: kind, ReferenceIndex: ref}, err
	}

	a, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	b, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagFieldref:
		return ConstantFieldref{ClassIndex: a, NameAndTypeIndex: b}, nil
	case TagMethodref:
		return ConstantMethodref{ClassIndex: a, NameAndTypeIndex: b}, nil
	case TagInterfaceMethodref:
		return ConstantInterfaceMethodref{ClassIndex: a, NameAndTypeIndex: b}, nil
	case TagNameAndType:
		return ConstantNameAndType{NameIndex: a, DescriptorIndex: b}, nil
	case TagDynamic:
		return ConstantDynamic{BootstrapMethodAttrIndex: a, NameAndTypeIndex: b}, nil
	default:
		return ConstantInvokeDynamic{BootstrapMethodAttrIndex: a, NameAndTypeIndex: b}, nil
	}
}

func wide(tag ConstantTag) bool {
	return tag == TagLong || tag == TagDouble
}

func knownTag(tag ConstantTag) bool {
	_, ok := tagNames[tag]
	return ok
}

// ConstantPool is a class file's constant pool. Indices are 1-based; index 0
// and the slot after each Long or Double hold no entry.
//
// A pool belongs to one decode or encode pass and is not safe for concurrent
// use. Interning returns the first index already holding an equal value, so
// re-encoding a decoded structure against its own pool reproduces the
// original indices.
type ConstantPool struct {
	entries []Constant
	index   map[any]uint16
}

// NewConstantPool creates an empty pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		entries: []Constant{nil},
		index:   make(map[any]uint16),
	}
}

// DecodeConstantPool decodes a constant_pool_count followed by its entries.
// All of data must be consumed.
func DecodeConstantPool(data []byte) (*ConstantPool, error) {
	r := binary.NewReader(data)
	p, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	if !r.Empty() {
		return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Path("constant_pool").
			Offset(r.Position()).
			Detail("%d trailing bytes after constant pool", r.Len()).
			Build()
	}
	return p, nil
}

func readConstantPool(r *binary.Reader) (*ConstantPool, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, decodeError(err, "constant_pool_count")
	}
	if count == 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{"constant_pool_count"}, "constant_pool_count must be at least 1")
	}

	p := &ConstantPool{
		entries: make([]Constant, count),
		index:   make(map[any]uint16, count),
	}
	for i := 1; i < int(count); i++ {
		offset := r.Position()
		tag, err := r.ReadU1()
		if err != nil {
			return nil, decodeError(err, "constant_pool")
		}
		ct := ConstantTag(tag)
		if !knownTag(ct) {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidTag).
				Path("constant_pool").
				Offset(offset).
				Index(i).
				Value(int(tag)).
				Detail("unknown constant pool tag %d at index %d", tag, i).
				Build()
		}
		c, err := readConstant(r, ct)
		if err != nil {
			return nil, decodeError(err, "constant_pool")
		}
		p.entries[i] = c
		if _, seen := p.index[poolKey(c)]; !seen {
			p.index[poolKey(c)] = uint16(i)
		}
		if wide(ct) {
			i++
			if i >= int(count) {
				return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
					Path("constant_pool").
					Offset(offset).
					Index(i-1).
					Detail("%s at index %d needs two slots but the pool ends", ct, i-1).
					Build()
			}
		}
	}
	return p, nil
}

// Count returns constant_pool_count: one more than the highest index.
func (p *ConstantPool) Count() int {
	return len(p.entries)
}

// Clone returns an independent copy of the pool.
func (p *ConstantPool) Clone() *ConstantPool {
	c := &ConstantPool{
		entries: make([]Constant, len(p.entries)),
		index:   make(map[any]uint16, len(p.index)),
	}
	copy(c.entries, p.entries)
	for k, v := range p.index {
		c.index[k] = v
	}
	return c
}

// Encode returns the constant_pool_count and entries in class-file form.
func (p *ConstantPool) Encode() ([]byte, error) {
	w := binary.NewWriter()
	p.encode(w)
	return w.Bytes()
}

func (p *ConstantPool) encode(w *binary.Writer) {
	w.WriteU2(uint16(len(p.entries)))
	for _, c := range p.entries {
		if c == nil {
			continue
		}
		w.Byte(uint8(c.Tag()))
		c.encode(w)
	}
}

// Entry returns the entry at index. Index 0, indices past the end and the
// second slot of a Long or Double are errors.
func (p *ConstantPool) Entry(index uint16) (Constant, error) {
	if index == 0 || int(index) >= len(p.entries) {
		return nil, errors.PoolIndex(errors.PhaseDecode, int(index), len(p.entries))
	}
	c := p.entries[index]
	if c == nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Index(int(index)).
			Value(int(index)).
			Detail("constant pool index %d is the unusable second slot of a Long or Double", index).
			Build()
	}
	return c, nil
}

// Tag returns the tag at index, or 0 when index holds no entry.
func (p *ConstantPool) Tag(index uint16) ConstantTag {
	c, err := p.Entry(index)
	if err != nil {
		return 0
	}
	return c.Tag()
}

func entryOf[T Constant](p *ConstantPool, index uint16, want ConstantTag) (T, error) {
	var zero T
	c, err := p.Entry(index)
	if err != nil {
		return zero, err
	}
	v, ok := c.(T)
	if !ok {
		return zero, errors.PoolTag(errors.PhaseDecode, int(index), c.Tag().String(), want.String())
	}
	return v, nil
}

// Utf8 resolves a Utf8 entry.
func (p *ConstantPool) Utf8(index uint16) (string, error) {
	c, err := entryOf[ConstantUtf8](p, index, TagUtf8)
	return c.Value, err
}

// ClassName resolves a Class entry to its internal name.
func (p *ConstantPool) ClassName(index uint16) (string, error) {
	c, err := entryOf[ConstantClass](p, index, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.NameIndex)
}

// String resolves a String entry to its value.
func (p *ConstantPool) String(index uint16) (string, error) {
	c, err := entryOf[ConstantString](p, index, TagString)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.StringIndex)
}

// Integer resolves an Integer entry.
func (p *ConstantPool) Integer(index uint16) (int32, error) {
	c, err := entryOf[ConstantInteger](p, index, TagInteger)
	return c.Value, err
}

// Long resolves a Long entry.
func (p *ConstantPool) Long(index uint16) (int64, error) {
	c, err := entryOf[ConstantLong](p, index, TagLong)
	return c.Value, err
}

// Float resolves a Float entry.
func (p *ConstantPool) Float(index uint16) (float32, error) {
	c, err := entryOf[ConstantFloat](p, index, TagFloat)
	return c.Value, err
}

// Double resolves a Double entry.
func (p *ConstantPool) Double(index uint16) (float64, error) {
	c, err := entryOf[ConstantDouble](p, index, TagDouble)
	return c.Value, err
}

// NameAndType resolves a NameAndType entry to its name and descriptor.
func (p *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	c, err := entryOf[ConstantNameAndType](p, index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(c.NameIndex); err != nil {
		return "", "", err
	}
	descriptor, err = p.Utf8(c.DescriptorIndex)
	return name, descriptor, err
}

// ModuleName resolves a Module entry.
func (p *ConstantPool) ModuleName(index uint16) (string, error) {
	c, err := entryOf[ConstantModule](p, index, TagModule)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.NameIndex)
}

// PackageName resolves a Package entry.
func (p *ConstantPool) PackageName(index uint16) (string, error) {
	c, err := entryOf[ConstantPackage](p, index, TagPackage)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.NameIndex)
}

func (p *ConstantPool) intern(c Constant) (uint16, error) {
	key := poolKey(c)
	if idx, ok := p.index[key]; ok {
		return idx, nil
	}
	idx := len(p.entries)
	slots := 1
	if wide(c.Tag()) {
		slots = 2
	}
	if idx+slots > math.MaxUint16 {
		return 0, errors.Overflow(errors.PhaseEncode, []string{"constant_pool"}, idx+slots, "constant_pool_count (u2)")
	}
	p.entries = append(p.entries, c)
	if slots == 2 {
		p.entries = append(p.entries, nil)
	}
	p.index[key] = uint16(idx)
	return uint16(idx), nil
}

// Utf8Info interns s and returns its index.
func (p *ConstantPool) Utf8Info(s string) (uint16, error) {
	c := ConstantUtf8{Value: s}
	if idx, ok := p.index[poolKey(c)]; ok {
		return idx, nil
	}
	if n := binary.MUTF8Len(s); n > math.MaxUint16 {
		return 0, errors.Overflow(errors.PhaseEncode, []string{"constant_pool", "Utf8"}, n, "u2 string length")
	}
	return p.intern(c)
}

// ClassInfo interns a Class entry for the internal name and returns its index.
func (p *ConstantPool) ClassInfo(name string) (uint16, error) {
	n, err := p.Utf8Info(name)
	if err != nil {
		return 0, err
	}
	return p.intern(ConstantClass{NameIndex: n})
}

// StringInfo interns a String entry and returns its index.
func (p *ConstantPool) StringInfo(s string) (uint16, error) {
	n, err := p.Utf8Info(s)
	if err != nil {
		return 0, err
	}
	return p.intern(ConstantString{StringIndex: n})
}

// IntegerInfo interns an Integer entry and returns its index.
func (p *ConstantPool) IntegerInfo(v int32) (uint16, error) {
	return p.intern(ConstantInteger{Value: v})
}

// LongInfo interns a Long entry and returns its index.
func (p *ConstantPool) LongInfo(v int64) (uint16, error) {
	return p.intern(ConstantLong{Value: v})
}

// FloatInfo interns a Float entry and returns its index.
func (p *ConstantPool) FloatInfo(v float32) (uint16, error) {
	return p.intern(ConstantFloat{Value: v})
}

// DoubleInfo interns a Double entry and returns its index.
func (p *ConstantPool) DoubleInfo(v float64) (uint16, error) {
	return p.intern(ConstantDouble{Value: v})
}

// NameAndTypeInfo interns a NameAndType entry and returns its index.
func (p *ConstantPool) NameAndTypeInfo(name, descriptor string) (uint16, error) {
	n, err := p.Utf8Info(name)
	if err != nil {
		return 0, err
	}
	d, err := p.Utf8Info(descriptor)
	if err != nil {
		return 0, err
	}
	return p.intern(ConstantNameAndType{NameIndex: n, DescriptorIndex: d})
}

// ModuleInfo interns a Module entry and returns its index.
func (p *ConstantPool) ModuleInfo(name string) (uint16, error) {
	n, err := p.Utf8Info(name)
	if err != nil {
		return 0, err
	}
	return p.intern(ConstantModule{NameIndex: n})
}

// PackageInfo interns a Package entry and returns its index.
func (p *ConstantPool) PackageInfo(name string) (uint16, error) {
	n, err := p.Utf8Info(name)
	if err != nil {
		return 0, err
	}
	return p.intern(ConstantPackage{NameIndex: n})
}
