package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) mode() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	default:
		return "auto"
	}
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // 0 - без строки исходника
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
}

// TokenOpts configures the token dump.
type TokenOpts struct {
	Offsets bool // суффикс first:last
	Color   bool
}

// PickleStyle selects the layout of an AST/IR dump.
type PickleStyle uint8

const (
	// PickleFlat prints one s-expression on a single line.
	PickleFlat PickleStyle = iota
	// PickleIndent breaks every child node onto its own indented line.
	PickleIndent
	// PickleTree draws the node hierarchy with box characters.
	PickleTree
)

// PickleOpts configures AST/IR dumps.
type PickleOpts struct {
	Style  PickleStyle
	Color  bool
	Indent int // spaces per level for PickleIndent, default 4
}
