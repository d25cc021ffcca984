// Package errors provides structured error types for the class-file codec.
//
// Errors are categorized by Phase (decode, encode or load) and Kind. The
// Error type carries the location path through nested attributes, the byte
// offset when known, the constant pool index when relevant, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("Code", "exception_table").
//		Offset(r.Position()).
//		Index(int(idx)).
//		Detail("catch_type %d is past the pool", idx).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseEncode, path, "bool", "int32, int64, float32, float64 or string")
//	err := errors.PoolIndex(errors.PhaseDecode, 70, 12)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind only.
package errors
