// Package modfile reads and writes .vmod interface files: the public
// signatures of one compiled module, produced by --symtab-only.
package modfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"

	"viper/internal/ir"
	"viper/internal/symbols"
)

// Ext is the interface file extension.
const Ext = ".vmod"

// schema changes whenever the File layout does.
const schema uint16 = 1

// File is the serialized interface of a module.
type File struct {
	Schema   uint16
	Compiler string // compiler version that wrote the file
	Module   string
	Source   string
	Funcs    []Func
	Classes  []Class
	Globals  []Var
	Imports  []string
}

// Func is a function signature. Types are spelled as in source.
type Func struct {
	Name      string
	Params    []Var
	Result    string
	CCallable bool
	Inline    bool
}

// Class lists the fields of a class in layout order.
type Class struct {
	Name   string
	Fields []Var
}

// Var is a named, typed slot.
type Var struct {
	Name string
	Type string
}

var (
	// ErrSchema means the file was written with a different layout.
	ErrSchema = errors.New("unsupported interface file schema")
	// ErrIncompatible means the writing compiler cannot be trusted to agree
	// with this one on the layout of types.
	ErrIncompatible = errors.New("interface file written by an incompatible compiler")
)

// FromModule extracts the interface of m. Functions created by passes are
// left out; the result is sorted by name within each section.
func FromModule(m *ir.Module, compiler string) *File {
	f := &File{
		Schema:   schema,
		Compiler: compiler,
		Module:   m.Name,
		Source:   m.Path,
	}
	vars := func(ids []symbols.SymbolID) []Var {
		out := make([]Var, 0, len(ids))
		for _, id := range ids {
			sym := m.Symbols.Symbols.Get(id)
			if sym == nil {
				continue
			}
			out = append(out, Var{Name: m.Symbols.Name(id), Type: m.Types.String(sym.Type)})
		}
		return out
	}
	for _, fn := range m.Funcs {
		if fn.Flags.HasFlag(ir.FuncGenerated) {
			continue
		}
		f.Funcs = append(f.Funcs, Func{
			Name:      fn.Name,
			Params:    vars(fn.Params),
			Result:    m.Types.String(fn.Result),
			CCallable: fn.Flags.HasFlag(ir.FuncCCallable),
			Inline:    fn.Flags.HasFlag(ir.FuncInline),
		})
	}
	for _, c := range m.Classes {
		f.Classes = append(f.Classes, Class{Name: c.Name, Fields: vars(c.Fields)})
	}
	f.Globals = vars(m.Globals)
	for _, id := range m.Imports {
		f.Imports = append(f.Imports, m.Symbols.Name(id))
	}
	slices.SortFunc(f.Funcs, func(a, b Func) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(f.Classes, func(a, b Class) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(f.Globals, func(a, b Var) int { return strings.Compare(a.Name, b.Name) })
	slices.Sort(f.Imports)
	return f
}

// Encode writes f as msgpack.
func Encode(w io.Writer, f *File) error {
	return msgpack.NewEncoder(w).Encode(f)
}

// Decode reads a file and checks its schema. Compiler compatibility is
// left to Compatible.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode interface file: %w", err)
	}
	if f.Schema != schema {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrSchema, f.Schema, schema)
	}
	return &f, nil
}

// Save writes f to path atomically.
func Save(path string, f *File) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vmod-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name()) //nolint:errcheck
		}
	}()
	if err = Encode(tmp, f); err != nil {
		_ = tmp.Close() //nolint:errcheck
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the interface file at path.
func Load(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return Decode(fd)
}

// Compatible reports whether a file written by compiler version written may
// be used by compiler version current. Versions must share the major
// number (the minor one as well below 1.0), and the file may not come from
// a newer compiler.
func Compatible(written, current string) error {
	wv, err := semver.NewVersion(written)
	if err != nil {
		return fmt.Errorf("interface file version %q: %w", written, err)
	}
	cv, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("compiler version %q: %w", current, err)
	}
	switch {
	case wv.Major() != cv.Major(),
		cv.Major() == 0 && wv.Minor() != cv.Minor():
		return fmt.Errorf("%w: written by %s, this is %s", ErrIncompatible, wv, cv)
	case wv.GreaterThan(cv):
		return fmt.Errorf("%w: written by newer %s, this is %s", ErrIncompatible, wv, cv)
	}
	return nil
}

// PathFor returns the interface file path next to a source file.
func PathFor(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + Ext
}
