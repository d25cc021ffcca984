package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode Phase = "decode" // bytes to records
	PhaseEncode Phase = "encode" // records to bytes
	PhaseLoad   Phase = "load"   // reading input files
)

// Kind categorizes the error
type Kind string

const (
	KindTruncated      Kind = "truncated"
	KindLengthMismatch Kind = "length_mismatch"
	KindInvalidTag     Kind = "invalid_tag"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindTypeMismatch   Kind = "type_mismatch"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindOverflow       Kind = "overflow"
	KindUnsupported    Kind = "unsupported"
	KindInvalidData    Kind = "invalid_data"
)

// NoOffset marks an error without a known byte offset.
const NoOffset = -1

// Error is the structured error type used by the codec
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	Expected string
	Detail   string
	Path     []string
	Offset   int
	Index    int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Offset >= 0 {
		b.WriteString(" (offset ")
		b.WriteString(strconv.Itoa(e.Offset))
		b.WriteByte(')')
	}

	if e.GoType != "" || e.Expected != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Expected != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", expected ")
			b.WriteString(e.Expected)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("expected ")
			b.WriteString(e.Expected)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Expected != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Expected sets what the codec expected to find
func (b *Builder) Expected(t string) *Builder {
	b.err.Expected = t
	return b
}

// Offset sets the absolute byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Index sets the constant pool index
func (b *Builder) Index(idx int) *Builder {
	b.err.Index = idx
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// WithPath prepends a location segment to err. Errors that are not *Error
// are wrapped as invalid data in the given phase.
func WithPath(phase Phase, err error, segment string) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Phase:  phase,
			Kind:   KindInvalidData,
			Path:   []string{segment},
			Offset: NoOffset,
			Cause:  err,
		}
	}
	path := make([]string, 0, len(e.Path)+1)
	path = append(path, segment)
	e.Path = append(path, e.Path...)
	return e
}

// Convenience constructors for common error patterns

// Truncated creates an error for input that ended before a structure did
func Truncated(phase Phase, path []string, offset int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Offset: offset,
		Detail: "unexpected end of data",
		Cause:  cause,
	}
}

// LengthMismatch creates an error for a payload whose declared length
// disagrees with the bytes its decoder consumed
func LengthMismatch(phase Phase, path []string, offset, declared, consumed int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLengthMismatch,
		Path:   path,
		Offset: offset,
		Detail: fmt.Sprintf("attribute payload size mismatch: declared %d bytes, decoded %d", declared, consumed),
		Value:  declared,
	}
}

// InvalidTag creates an error for an unrecognized discriminator byte
func InvalidTag(phase Phase, path []string, offset int, what string, tag int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidTag,
		Path:   path,
		Offset: offset,
		Detail: fmt.Sprintf("unknown %s 0x%02x", what, tag),
		Value:  tag,
	}
}

// PoolIndex creates an error for a constant pool index that is zero, out of
// range, or unusable
func PoolIndex(phase Phase, index, count int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Offset: NoOffset,
		Index:  index,
		Detail: fmt.Sprintf("constant pool index %d out of bounds (count %d)", index, count),
		Value:  index,
	}
}

// PoolTag creates an error for a constant pool entry of the wrong kind
func PoolTag(phase Phase, index int, got, want string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Offset:   NoOffset,
		Index:    index,
		Expected: want,
		Detail:   fmt.Sprintf("constant pool index %d holds %s", index, got),
		Value:    index,
	}
}

// TypeMismatch creates an error for a Go value whose type has no encoding
func TypeMismatch(phase Phase, path []string, goType, expected string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		Offset:   NoOffset,
		GoType:   goType,
		Expected: expected,
	}
}

// InvalidUTF8 creates an error for a malformed modified UTF-8 string
func InvalidUTF8(phase Phase, path []string, offset int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Offset: offset,
		Detail: "invalid modified UTF-8 string",
		Cause:  cause,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Path:     path,
		Offset:   NoOffset,
		Expected: limit,
		Detail:   fmt.Sprintf("value %v overflows %s", value, limit),
		Value:    value,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Offset: NoOffset,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Offset: NoOffset,
		Detail: detail,
	}
}

// Load creates a file loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}
