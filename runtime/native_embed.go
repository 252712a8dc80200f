// Package runtimeembed ships the C sources of the viper runtime library.
// Executables from every backend link against it.
package runtimeembed

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

//go:embed native
var native embed.FS

// Header declares every runtime entry point.
const Header = "viper_runtime.h"

// Files returns the runtime sources with the native/ prefix stripped.
func Files() fs.FS {
	sub, err := fs.Sub(native, "native")
	if err != nil {
		panic(err) // "native" is a valid path
	}
	return sub
}

// Extract writes the runtime into dir, replacing stale copies, and returns
// the C translation units in name order.
func Extract(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	files := Files()
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, err
	}
	var units []string
	for _, e := range entries {
		data, err := fs.ReadFile(files, e.Name())
		if err != nil {
			return nil, err
		}
		dst := filepath.Join(dir, e.Name())
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			return nil, err
		}
		if path.Ext(e.Name()) == ".c" {
			units = append(units, dst)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no runtime sources embedded")
	}
	return units, nil
}
