package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/classfile/classfile"
)

func main() {
	var (
		classFile   = flag.String("class", "", "Path to a .class file")
		verify      = flag.Bool("verify", false, "Re-encode the class and compare bytes")
		showPool    = flag.Bool("pool", false, "Print the constant pool")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
		noColor     = flag.Bool("no-color", false, "Disable styled output")
	)
	flag.Parse()

	if *classFile == "" && flag.NArg() == 1 {
		*classFile = flag.Arg(0)
	}
	if *classFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: classdump -class <file.class> [-pool] [-v] [-no-color]")
		fmt.Fprintln(os.Stderr, "       classdump -class <file.class> -verify")
		fmt.Fprintln(os.Stderr, "       classdump -class <file.class> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync() //nolint:errcheck
		classfile.SetLogger(l.Named("classfile"))
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal on stdout")
			os.Exit(1)
		}
		if err := runInteractive(*classFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	st := newStyles()
	if *noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		st = plainStyles()
	}

	if *verify {
		ok, err := runVerify(os.Stdout, *classFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(2)
		}
		return
	}

	if err := run(os.Stdout, *classFile, *showPool, st); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, path string, showPool bool, st styles) error {
	cf, err := classfile.ReadFile(path)
	if err != nil {
		return err
	}

	r := &renderer{out: out, st: st}
	if showPool {
		r.pool(cf.Pool)
		fmt.Fprintln(out)
	}
	r.class(cf)
	return nil
}
