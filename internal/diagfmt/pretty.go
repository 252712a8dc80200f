package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"viper/internal/diag"
	"viper/internal/source"
)

const tabWidth = 4

type palette struct {
	sev    map[diag.Severity]*color.Color
	code   *color.Color
	loc    *color.Color
	gutter *color.Color
	mark   map[diag.Severity]*color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevNote:    mk(color.FgCyan, color.Bold),
		},
		code:   mk(color.Bold),
		loc:    mk(color.FgBlue),
		gutter: mk(color.FgBlue, color.Bold),
		mark: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevNote:    mk(color.FgCyan),
		},
	}
}

// Pretty форматирует диагностики в человекочитаемый вид, в порядке bag.Items().
// Для каждой диагностики:
//
//	error[SEM3001]: message
//	 --> path:line:col
//	  |
//	3 |     return y
//	  |            ^
//
// затем Notes в том же формате. Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s%s: %s\n",
			pal.sev[d.Severity].Sprint(d.Severity.String()),
			pal.code.Sprint("["+d.Code.ID()+"]"),
			d.Message)
		writeLocation(w, fs, d.Primary, d.Severity, opts, pal)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "%s: %s\n", pal.sev[diag.SevNote].Sprint("note"), n.Msg)
			writeLocation(w, fs, n.Span, diag.SevNote, opts, pal)
		}
	}
}

// FormatPath renders the file path of span according to mode.
func FormatPath(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	return f.FormatPath(mode.mode(), fs.BaseDir())
}

func writeLocation(w io.Writer, fs *source.FileSet, sp source.Span, sev diag.Severity, opts PrettyOpts, pal palette) {
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprint("-->"),
		pal.loc.Sprintf("%s:%d:%d", FormatPath(fs, sp, opts.PathMode), start.Line, start.Col))
	if opts.Context == 0 {
		return
	}
	// подчёркиваем только первую строку многострочного span
	line := f.GetLine(start.Line)
	lastCol := end.Col
	if end.Line != start.Line {
		lastCol = uint32(len(line)) + 1
	}
	num := strconv.FormatUint(uint64(start.Line), 10)
	pad := strings.Repeat(" ", len(num))
	bar := pal.gutter.Sprint("|")
	fmt.Fprintf(w, "%s %s\n", pad, bar)
	fmt.Fprintf(w, "%s %s %s\n", pal.gutter.Sprint(num), bar, expandTabs(line))
	lead, width := underline(line, start.Col, lastCol)
	fmt.Fprintf(w, "%s %s %s%s\n", pad, bar, strings.Repeat(" ", lead), pal.mark[sev].Sprint(carets(width)))
}

// underline converts byte columns into display columns: the number of cells
// before the span and the span's own width (at least one).
func underline(line string, startCol, endCol uint32) (int, int) {
	lo := clampCol(line, startCol)
	hi := clampCol(line, endCol)
	if hi < lo {
		hi = lo
	}
	lead := displayWidth(line[:lo])
	width := displayWidth(line[:hi]) - lead
	if width < 1 {
		width = 1
	}
	return lead, width
}

func clampCol(line string, col uint32) int {
	if col == 0 {
		return 0
	}
	off := int(col) - 1
	if off > len(line) {
		return len(line)
	}
	return off
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += tabWidth
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func carets(n int) string {
	return "^" + strings.Repeat("~", n-1)
}
