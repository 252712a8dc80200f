package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	runtimeembed "viper/runtime"
)

// RuntimeArchive is the archive path EnsureRuntime produces in dir.
func RuntimeArchive(dir string, static bool) string {
	name := "lib" + RuntimeLib
	if static {
		name += "_static"
	}
	return filepath.Join(dir, name+".a")
}

// EnsureRuntime builds the runtime archive in dir unless it is already
// there: the embedded sources are extracted, compiled with cc -c and
// archived with ar rcs.
func EnsureRuntime(ctx context.Context, r Runner, dir, cc string, static bool) (string, error) {
	lib := RuntimeArchive(dir, static)
	if _, err := os.Stat(lib); err == nil {
		return lib, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %q: %w", lib, err)
	}
	sources, err := runtimeembed.Extract(dir)
	if err != nil {
		return "", fmt.Errorf("extract runtime: %w", err)
	}
	if cc == "" {
		cc = DefaultCC
	}
	objs := make([]string, 0, len(sources))
	for _, src := range sources {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		obj := filepath.Join(dir, base+".o")
		argv := []string{cc, "-c", "-std=c11", "-O2"}
		if !static {
			argv = append(argv, "-fPIC")
		}
		argv = append(argv, src, "-o", obj)
		if err := Run(ctx, r, argv); err != nil {
			return "", err
		}
		objs = append(objs, obj)
	}
	if err := Run(ctx, r, append([]string{"ar", "rcs", lib}, objs...)); err != nil {
		return "", err
	}
	return lib, nil
}
