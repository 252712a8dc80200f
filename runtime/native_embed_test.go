package runtimeembed

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRuntimeDeclaresEveryEntryPoint(t *testing.T) {
	hdr, err := fs.ReadFile(Files(), Header)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"viper_print_i64", "viper_print_f64", "viper_print_str", "viper_print_bool",
		"viper_str_concat", "viper_str_cmp", "viper_ipow", "viper_ifloordiv",
		"viper_imod", "viper_ffloordiv", "viper_fmod",
	} {
		if !strings.Contains(string(hdr), name+"(") {
			t.Errorf("header lacks %s", name)
		}
	}
}

func TestExtractTwice(t *testing.T) {
	dir := t.TempDir()
	for range 2 {
		units, err := Extract(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(units) != 1 || filepath.Base(units[0]) != "viper_runtime.c" {
			t.Fatalf("units = %v", units)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, Header)); err != nil {
		t.Errorf("header not extracted: %v", err)
	}
}
