package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// progressMode is the value of --ui. It implements pflag.Value, so a bad
// value is rejected while the command line is parsed.
type progressMode int

const (
	progressAuto progressMode = iota
	progressAlways
	progressNever
)

var progressModeNames = [...]string{"auto", "on", "off"}

func (m progressMode) String() string { return progressModeNames[m] }

func (m *progressMode) Type() string { return "mode" }

func (m *progressMode) Set(v string) error {
	i := slices.Index(progressModeNames[:], strings.ToLower(strings.TrimSpace(v)))
	if i < 0 {
		return fmt.Errorf("want auto|on|off, got %q", v)
	}
	*m = progressMode(i)
	return nil
}

// draws reports whether the progress view is shown for n source files.
// In auto mode it needs a terminal and more than one file.
func (m progressMode) draws(n int) bool {
	switch m {
	case progressAlways:
		return true
	case progressNever:
		return false
	}
	return n > 1 && isTerminal(os.Stdout)
}

func progressModeOf(fs *pflag.FlagSet) progressMode {
	if f := fs.Lookup("ui"); f != nil {
		if m, ok := f.Value.(*progressMode); ok {
			return *m
		}
	}
	return progressAuto
}
