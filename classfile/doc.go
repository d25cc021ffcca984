// Package classfile decodes and encodes JVM class files (JVMS §4): the
// constant pool, attribute tables, annotations and type annotations.
//
// Decoding resolves constant pool references into plain values, so records
// hold strings and numbers rather than indices. Encoding interns those values
// back into a pool. Re-encoding an unmodified structure against the pool it
// was decoded from reproduces the original bytes.
//
// # Parsing
//
//	data, _ := os.ReadFile("Foo.class")
//	cf, err := classfile.ParseClassFile(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range cf.Methods {
//	    fmt.Println(m.Name, m.Descriptor, m.Annotations())
//	}
//
// # Attributes
//
// Each attribute name defined through Java 17 decodes to its own record type
// (*CodeAttribute, *SignatureAttribute, *RuntimeVisibleAnnotationsAttribute,
// ...). Any other name decodes to *UnrecognizedAttribute, which keeps the
// payload bytes and writes them back unchanged.
//
// Typed lookup on an element:
//
//	if sig, ok := classfile.FindAttribute[*classfile.SignatureAttribute](m.Attributes); ok {
//	    fmt.Println(sig.Signature)
//	}
//
// Attribute tables can also be decoded and encoded on their own:
//
//	attrs, err := classfile.DecodeAttributes(data, pool)
//	out, err := classfile.EncodeAttributes(attrs, pool)
//
// # Encoding
//
//	out, err := cf.Encode()                          // against a copy of cf.Pool
//	out, err := cf.EncodeWith(classfile.NewConstantPool()) // minimal fresh pool
//
// A ConstantPool belongs to one decode or encode pass and is not safe for
// concurrent use.
//
// # Errors
//
// Failures are *errors.Error values from github.com/wippyai/classfile/errors,
// carrying a phase, a kind, a location path and, when known, the byte offset
// and constant pool index.
package classfile
