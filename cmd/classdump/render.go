package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/classfile/classfile"
)

type styles struct {
	title lipgloss.Style
	name  lipgloss.Style
	attr  lipgloss.Style
	anno  lipgloss.Style
	value lipgloss.Style
	dim   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		name:  lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		attr:  lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		anno:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD580")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{title: s, name: s, attr: s, anno: s, value: s, dim: s}
}

type renderer struct {
	out    io.Writer
	st     styles
	indent int
}

func (r *renderer) line(format string, args ...any) {
	fmt.Fprintf(r.out, "%s%s\n", strings.Repeat("  ", r.indent), fmt.Sprintf(format, args...))
}

func (r *renderer) nested(fn func()) {
	r.indent++
	fn()
	r.indent--
}

func (r *renderer) class(cf *classfile.ClassFile) {
	r.line("%s %s", r.st.title.Render("class"), r.st.name.Render(javaName(cf.ThisClass)))
	r.nested(func() {
		r.line("version: %d.%d", cf.MajorVersion, cf.MinorVersion)
		r.line("flags: 0x%04x", cf.AccessFlags)
		if cf.SuperClass != "" {
			r.line("extends %s", javaName(cf.SuperClass))
		}
		for _, iface := range cf.Interfaces {
			r.line("implements %s", javaName(iface))
		}
		r.attributes(cf.Attributes)
	})

	for i := range cf.Fields {
		f := &cf.Fields[i]
		r.line("")
		r.line("%s %s %s", r.st.title.Render("field"), r.st.name.Render(f.Name), r.st.dim.Render(f.Descriptor))
		r.nested(func() {
			r.line("flags: 0x%04x", f.AccessFlags)
			r.attributes(f.Attributes)
		})
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		r.line("")
		r.line("%s %s%s", r.st.title.Render("method"), r.st.name.Render(m.Name), r.st.dim.Render(m.Descriptor))
		r.nested(func() {
			r.line("flags: 0x%04x", m.AccessFlags)
			r.attributes(m.Attributes)
		})
	}
}

func (r *renderer) attributes(attrs []classfile.Attribute) {
	for _, a := range attrs {
		r.attribute(a)
	}
}

func (r *renderer) attribute(a classfile.Attribute) {
	head := r.st.attr.Render(a.Name())
	switch a := a.(type) {
	case *classfile.ConstantValueAttribute:
		r.line("%s: %s", head, r.st.value.Render(constantLiteral(a.Value)))
	case *classfile.SignatureAttribute:
		r.line("%s: %s", head, a.Signature)
	case *classfile.SourceFileAttribute:
		r.line("%s: %s", head, a.SourceFile)
	case *classfile.SyntheticAttribute, *classfile.DeprecatedAttribute:
		r.line("%s", head)
	case *classfile.ExceptionsAttribute:
		r.line("%s: throws %s", head, javaNames(a.Exceptions))
	case *classfile.NestHostAttribute:
		r.line("%s: %s", head, javaName(a.HostClass))
	case *classfile.NestMembersAttribute:
		r.line("%s: %s", head, javaNames(a.Classes))
	case *classfile.PermittedSubclassesAttribute:
		r.line("%s: %s", head, javaNames(a.Classes))
	case *classfile.ModuleMainClassAttribute:
		r.line("%s: %s", head, javaName(a.MainClass))
	case *classfile.ModulePackagesAttribute:
		r.line("%s: %s", head, strings.Join(a.Packages, ", "))
	case *classfile.EnclosingMethodAttribute:
		if a.MethodName == "" {
			r.line("%s: %s", head, javaName(a.Class))
		} else {
			r.line("%s: %s.%s%s", head, javaName(a.Class), a.MethodName, a.MethodDescriptor)
		}
	case *classfile.InnerClassesAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for _, c := range a.Classes {
				r.line("%s outer=%q name=%q flags=0x%04x", javaName(c.InnerClass), c.OuterClass, c.InnerName, c.AccessFlags)
			}
		})
	case *classfile.SourceDebugExtensionAttribute:
		r.line("%s: %d bytes", head, len(a.Data))
	case *classfile.LineNumberTableAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for _, l := range a.Lines {
				r.line("line %d: pc %d", l.LineNumber, l.StartPC)
			}
		})
	case *classfile.LocalVariableTableAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for _, v := range a.Variables {
				r.line("[%d] %s %s pc %d+%d", v.Index, v.Name, v.Descriptor, v.StartPC, v.Length)
			}
		})
	case *classfile.LocalVariableTypeTableAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for _, v := range a.Variables {
				r.line("[%d] %s %s pc %d+%d", v.Index, v.Name, v.Signature, v.StartPC, v.Length)
			}
		})
	case *classfile.MethodParametersAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for i, p := range a.Parameters {
				name := p.Name
				if name == "" {
					name = "arg" + strconv.Itoa(i)
				}
				r.line("%s flags=0x%04x", name, p.AccessFlags)
			}
		})
	case *classfile.BootstrapMethodsAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for i, m := range a.Methods {
				r.line("%d: #%d %v", i, m.MethodRef, m.Arguments)
			}
		})
	case *classfile.CodeAttribute:
		r.line("%s: stack=%d locals=%d code=%d bytes", head, a.MaxStack, a.MaxLocals, len(a.Code))
		r.nested(func() {
			for _, h := range a.ExceptionTable {
				catch := h.CatchType
				if catch == "" {
					catch = "any"
				}
				r.line("catch %s [%d, %d) -> %d", javaName(catch), h.StartPC, h.EndPC, h.HandlerPC)
			}
			r.attributes(a.Attributes)
		})
	case *classfile.StackMapTableAttribute:
		r.line("%s: %d frames", head, len(a.Frames))
		r.nested(func() {
			for _, f := range a.Frames {
				r.line("type %d delta %d locals=%d stack=%d", f.FrameType, f.Delta(), len(f.Locals), len(f.Stack))
			}
		})
	case *classfile.RuntimeVisibleAnnotationsAttribute:
		r.annotations(head, a.Annotations)
	case *classfile.RuntimeInvisibleAnnotationsAttribute:
		r.annotations(head, a.Annotations)
	case *classfile.RuntimeVisibleParameterAnnotationsAttribute:
		r.parameterAnnotations(head, a.Parameters)
	case *classfile.RuntimeInvisibleParameterAnnotationsAttribute:
		r.parameterAnnotations(head, a.Parameters)
	case *classfile.RuntimeVisibleTypeAnnotationsAttribute:
		r.typeAnnotations(head, a.Annotations)
	case *classfile.RuntimeInvisibleTypeAnnotationsAttribute:
		r.typeAnnotations(head, a.Annotations)
	case *classfile.AnnotationDefaultAttribute:
		r.line("%s: default %s", head, r.st.value.Render(formatElementValue(a.Value)))
	case *classfile.RecordAttribute:
		r.line("%s:", head)
		r.nested(func() {
			for _, c := range a.Components {
				r.line("%s %s", r.st.name.Render(c.Name), r.st.dim.Render(c.Descriptor))
				r.nested(func() { r.attributes(c.Attributes) })
			}
		})
	case *classfile.ModuleAttribute:
		r.module(head, a)
	case *classfile.UnrecognizedAttribute:
		r.line("%s: %s", head, r.st.dim.Render(fmt.Sprintf("%d opaque bytes", len(a.Data))))
	default:
		r.line("%s", head)
	}
}

func (r *renderer) annotations(head string, anns []classfile.Annotation) {
	r.line("%s:", head)
	r.nested(func() {
		for _, a := range anns {
			r.line("%s", r.st.anno.Render(formatAnnotation(a)))
		}
	})
}

func (r *renderer) parameterAnnotations(head string, params [][]classfile.Annotation) {
	r.line("%s:", head)
	r.nested(func() {
		for i, anns := range params {
			parts := make([]string, len(anns))
			for j, a := range anns {
				parts[j] = r.st.anno.Render(formatAnnotation(a))
			}
			r.line("parameter %d: %s", i, strings.Join(parts, " "))
		}
	})
}

func (r *renderer) typeAnnotations(head string, anns []classfile.TypeAnnotation) {
	r.line("%s:", head)
	r.nested(func() {
		for _, t := range anns {
			target := classfile.TargetName(t.TargetType)
			if idx := t.TargetIndex(); idx != classfile.TargetIndexNone {
				target = fmt.Sprintf("%s index=%d", target, idx)
			}
			path := ""
			if len(t.TypePath) > 0 {
				path = " path=" + formatTypePath(t.TypePath)
			}
			r.line("%s %s", r.st.anno.Render(formatAnnotation(t.Annotation)), r.st.dim.Render(fmt.Sprintf("[0x%02x %s%s]", t.TargetType, target, path)))
		}
	})
}

func (r *renderer) module(head string, m *classfile.ModuleAttribute) {
	r.line("%s: %s %s", head, r.st.name.Render(m.ModuleName), m.Version)
	r.nested(func() {
		for _, req := range m.Requires {
			r.line("requires %s %s", req.Module, req.Version)
		}
		for _, e := range m.Exports {
			r.line("exports %s%s", javaName(e.Package), moduleTargets(e.To))
		}
		for _, e := range m.Opens {
			r.line("opens %s%s", javaName(e.Package), moduleTargets(e.To))
		}
		for _, u := range m.Uses {
			r.line("uses %s", javaName(u))
		}
		for _, p := range m.Provides {
			r.line("provides %s with %s", javaName(p.Service), javaNames(p.With))
		}
	})
}

func moduleTargets(to []string) string {
	if len(to) == 0 {
		return ""
	}
	return " to " + strings.Join(to, ", ")
}

// pool prints one line per usable constant pool slot.
func (r *renderer) pool(p *classfile.ConstantPool) {
	r.line("%s (count %d)", r.st.title.Render("constant pool"), p.Count())
	r.nested(func() {
		for i := 1; i < p.Count(); i++ {
			c, err := p.Entry(uint16(i))
			if err != nil {
				continue
			}
			r.line("#%-4d %-18s %s", i, c.Tag(), describeConstant(p, c))
		}
	})
}

func describeConstant(p *classfile.ConstantPool, c classfile.Constant) string {
	switch c := c.(type) {
	case classfile.ConstantUtf8:
		return strconv.Quote(c.Value)
	case classfile.ConstantInteger:
		return strconv.FormatInt(int64(c.Value), 10)
	case classfile.ConstantFloat:
		return constantLiteral(c.Value)
	case classfile.ConstantLong:
		return constantLiteral(c.Value)
	case classfile.ConstantDouble:
		return constantLiteral(c.Value)
	case classfile.ConstantClass:
		return ref(p, c.NameIndex)
	case classfile.ConstantString:
		return ref(p, c.StringIndex)
	case classfile.ConstantModule:
		return ref(p, c.NameIndex)
	case classfile.ConstantPackage:
		return ref(p, c.NameIndex)
	case classfile.ConstantMethodType:
		return ref(p, c.DescriptorIndex)
	case classfile.ConstantFieldref:
		return fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
	case classfile.ConstantMethodref:
		return fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
	case classfile.ConstantInterfaceMethodref:
		return fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
	case classfile.ConstantNameAndType:
		return fmt.Sprintf("#%d:#%d", c.NameIndex, c.DescriptorIndex)
	case classfile.ConstantMethodHandle:
		return fmt.Sprintf("kind %d #%d", c.ReferenceKind, c.ReferenceIndex)
	case classfile.ConstantDynamic:
		return fmt.Sprintf("bsm %d #%d", c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
	case classfile.ConstantInvokeDynamic:
		return fmt.Sprintf("bsm %d #%d", c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
	}
	return ""
}

func ref(p *classfile.ConstantPool, index uint16) string {
	s, err := p.Utf8(index)
	if err != nil {
		return fmt.Sprintf("#%d", index)
	}
	return fmt.Sprintf("#%d // %s", index, s)
}

// formatAnnotation renders an annotation the way it is written in source.
func formatAnnotation(a classfile.Annotation) string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(javaType(a.Type))
	if len(a.Values) == 0 {
		return b.String()
	}
	b.WriteByte('(')
	if len(a.Values) == 1 && a.Values[0].Name == "value" {
		b.WriteString(formatElementValue(a.Values[0].Value))
	} else {
		for i, p := range a.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			b.WriteString(" = ")
			b.WriteString(formatElementValue(p.Value))
		}
	}
	b.WriteByte(')')
	return b.String()
}

func formatElementValue(v classfile.ElementValue) string {
	switch v := v.(type) {
	case classfile.ByteValue:
		return fmt.Sprintf("(byte) %d", v)
	case classfile.CharValue:
		return strconv.QuoteRune(rune(v))
	case classfile.ShortValue:
		return fmt.Sprintf("(short) %d", v)
	case classfile.BoolValue:
		return strconv.FormatBool(bool(v))
	case classfile.IntValue:
		return strconv.FormatInt(int64(v), 10)
	case classfile.LongValue:
		return constantLiteral(int64(v))
	case classfile.FloatValue:
		return constantLiteral(float32(v))
	case classfile.DoubleValue:
		return constantLiteral(float64(v))
	case classfile.StringValue:
		return strconv.Quote(string(v))
	case classfile.EnumValue:
		return javaType(v.Type) + "." + v.Name
	case classfile.ClassValue:
		return javaType(v.Descriptor) + ".class"
	case classfile.AnnotationValue:
		return formatAnnotation(v.Annotation)
	case classfile.ArrayValue:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatElementValue(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// constantLiteral renders a ConstantValue with Java literal suffixes.
func constantLiteral(v any) string {
	switch v := v.(type) {
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		f := float64(v)
		switch {
		case math.IsNaN(f):
			return "Float.NaN"
		case math.IsInf(f, 1):
			return "Float.POSITIVE_INFINITY"
		case math.IsInf(f, -1):
			return "Float.NEGATIVE_INFINITY"
		}
		return strconv.FormatFloat(f, 'g', -1, 32) + "f"
	case float64:
		switch {
		case math.IsNaN(v):
			return "Double.NaN"
		case math.IsInf(v, 1):
			return "Double.POSITIVE_INFINITY"
		case math.IsInf(v, -1):
			return "Double.NEGATIVE_INFINITY"
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(v)
	}
	return fmt.Sprint(v)
}

var primitives = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// javaType turns a field descriptor into source form:
// "[Ljava/lang/String;" becomes "java.lang.String[]".
func javaType(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	base := desc[dims:]
	var name string
	switch {
	case len(base) == 1 && primitives[base[0]] != "":
		name = primitives[base[0]]
	case len(base) > 2 && base[0] == 'L' && base[len(base)-1] == ';':
		name = javaName(base[1 : len(base)-1])
	default:
		name = base
	}
	return name + strings.Repeat("[]", dims)
}

func javaName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

func javaNames(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = javaName(n)
	}
	return strings.Join(out, ", ")
}

func formatTypePath(path []classfile.TypePathEntry) string {
	var b strings.Builder
	for _, e := range path {
		switch e.Kind {
		case classfile.TypePathArray:
			b.WriteByte('[')
		case classfile.TypePathNested:
			b.WriteByte('.')
		case classfile.TypePathWildcard:
			b.WriteByte('*')
		case classfile.TypePathTypeArgument:
			b.WriteString(strconv.Itoa(int(e.ArgumentIndex)))
			b.WriteByte(';')
		}
	}
	return b.String()
}
