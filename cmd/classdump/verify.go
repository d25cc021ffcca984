package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/wippyai/classfile/classfile"
	"github.com/wippyai/classfile/errors"
)

func runVerify(out io.Writer, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Load("read "+path, err)
	}
	return verifyBytes(out, path, data)
}

// verifyBytes parses data, re-encodes it against its own constant pool and
// reports whether the output is byte-identical. On mismatch it writes a
// unified diff of both hex dumps to out.
func verifyBytes(out io.Writer, name string, data []byte) (bool, error) {
	cf, err := classfile.ParseClassFile(data)
	if err != nil {
		return false, err
	}
	encoded, err := cf.Encode()
	if err != nil {
		return false, err
	}
	if bytes.Equal(data, encoded) {
		fmt.Fprintf(out, "%s: round-trip OK (%d bytes)\n", name, len(data))
		return true, nil
	}

	fmt.Fprintf(out, "%s: round-trip mismatch (%d bytes in, %d bytes out)\n", name, len(data), len(encoded))
	diff, err := hexDiff(name, data, encoded)
	if err != nil {
		return false, err
	}
	fmt.Fprint(out, diff)
	return false, nil
}

func hexDiff(name string, a, b []byte) (string, error) {
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(hex.Dump(a)),
		B:        difflib.SplitLines(hex.Dump(b)),
		FromFile: name,
		ToFile:   name + " (re-encoded)",
		Context:  2,
	}
	return difflib.GetUnifiedDiffString(u)
}
