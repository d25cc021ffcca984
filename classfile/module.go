package classfile

import (
	"github.com/wippyai/classfile/classfile/internal/binary"
)

// ModuleAttribute describes a module declaration (JVMS §4.7.25).
type ModuleAttribute struct {
	ModuleName string
	Flags      uint16
	Version    string
	Requires   []ModuleRequire
	Exports    []ModuleExport
	// Opens has the same layout as Exports.
	Opens    []ModuleExport
	Uses     []string
	Provides []ModuleProvide
}

// ModuleRequire is one requires entry. Version is empty when absent.
type ModuleRequire struct {
	Module  string
	Flags   uint16
	Version string
}

// ModuleExport is one exports or opens entry. To lists the target modules;
// it is empty for an unqualified directive.
type ModuleExport struct {
	Package string
	Flags   uint16
	To      []string
}

// ModuleProvide is one provides entry: a service interface and its
// implementation classes.
type ModuleProvide struct {
	Service string
	With    []string
}

func (*ModuleAttribute) Name() string { return AttrModule }

func readModuleExports(r *binary.Reader, pool *ConstantPool) ([]ModuleExport, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	exports := make([]ModuleExport, count)
	for i := range exports {
		e := &exports[i]
		if e.Package, err = readConst(r, pool.PackageName); err != nil {
			return nil, err
		}
		if e.Flags, err = r.ReadU2(); err != nil {
			return nil, err
		}
		n, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		e.To = make([]string, n)
		for j := range e.To {
			if e.To[j], err = readConst(r, pool.ModuleName); err != nil {
				return nil, err
			}
		}
	}
	return exports, nil
}

func decodeModule(r *binary.Reader, pool *ConstantPool) (Attribute, error) {
	a := &ModuleAttribute{}
	var err error
	if a.ModuleName, err = readConst(r, pool.ModuleName); err != nil {
		return nil, err
	}
	if a.Flags, err = r.ReadU2(); err != nil {
		return nil, err
	}
	if a.Version, err = readOptionalUtf8(r, pool); err != nil {
		return nil, err
	}

	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	a.Requires = make([]ModuleRequire, count)
	for i := range a.Requires {
		req := &a.Requires[i]
		if req.Module, err = readConst(r, pool.ModuleName); err != nil {
			return nil, err
		}
		if req.Flags, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if req.Version, err = readOptionalUtf8(r, pool); err != nil {
			return nil, err
		}
	}

	if a.Exports, err = readModuleExports(r, pool); err != nil {
		return nil, decodeError(err, "exports")
	}
	if a.Opens, err = readModuleExports(r, pool); err != nil {
		return nil, decodeError(err, "opens")
	}
	if a.Uses, err = readClassList(r, pool); err != nil {
		return nil, decodeError(err, "uses")
	}

	if count, err = r.ReadU2(); err != nil {
		return nil, err
	}
	a.Provides = make([]ModuleProvide, count)
	for i := range a.Provides {
		p := &a.Provides[i]
		if p.Service, err = readClass(r, pool); err != nil {
			return nil, err
		}
		if p.With, err = readClassList(r, pool); err != nil {
			return nil, decodeError(err, p.Service)
		}
	}
	return a, nil
}

func writeModuleExports(w *binary.Writer, pool *ConstantPool, exports []ModuleExport, what string) error {
	if err := writeCount(w, len(exports), what); err != nil {
		return err
	}
	for _, e := range exports {
		if err := writeConst(w, pool.PackageInfo, e.Package); err != nil {
			return err
		}
		w.WriteU2(e.Flags)
		if err := writeCount(w, len(e.To), what+"_to_count"); err != nil {
			return err
		}
		for _, m := range e.To {
			if err := writeConst(w, pool.ModuleInfo, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *ModuleAttribute) encode(w *binary.Writer, pool *ConstantPool) error {
	if err := writeConst(w, pool.ModuleInfo, a.ModuleName); err != nil {
		return err
	}
	w.WriteU2(a.Flags)
	if err := writeOptionalUtf8(w, pool, a.Version); err != nil {
		return err
	}

	if err := writeCount(w, len(a.Requires), "requires_count"); err != nil {
		return err
	}
	for _, req := range a.Requires {
		if err := writeConst(w, pool.ModuleInfo, req.Module); err != nil {
			return err
		}
		w.WriteU2(req.Flags)
		if err := writeOptionalUtf8(w, pool, req.Version); err != nil {
			return err
		}
	}

	if err := writeModuleExports(w, pool, a.Exports, "exports"); err != nil {
		return err
	}
	if err := writeModuleExports(w, pool, a.Opens, "opens"); err != nil {
		return err
	}
	if err := writeClassList(w, pool, a.Uses, "uses_count"); err != nil {
		return err
	}

	if err := writeCount(w, len(a.Provides), "provides_count"); err != nil {
		return err
	}
	for _, p := range a.Provides {
		if err := writeClass(w, pool, p.Service); err != nil {
			return err
		}
		if err := writeClassList(w, pool, p.With, "provides_with_count"); err != nil {
			return err
		}
	}
	return nil
}
