package driver

import (
	"context"
	"io"

	"viper/internal/config"
	"viper/internal/diag"
	"viper/internal/source"
)

// Diagnosis is the outcome of checking an editor buffer.
type Diagnosis struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
	Exit    ExitCode
	ICE     *ICE
}

// DiagnoseBuffer runs the front end (parse, lower, verify) over text as if
// it were the contents of path. Nothing is written anywhere; the language
// server publishes the returned bag.
func DiagnoseBuffer(ctx context.Context, path, text string, opts config.Options) *Diagnosis {
	env := &Env{Stdout: io.Discard, Stderr: io.Discard}
	u := NewUnit(env, path, opts)
	if u.Load(ctx, []byte(text)) && u.Parse(ctx) {
		u.Lower(ctx)
	}
	if opts.NoWarnings {
		u.Bag.DropWarnings()
	}
	return &Diagnosis{FileSet: u.FileSet, Bag: u.Bag, Exit: u.Exit(), ICE: u.ICE}
}
