package diagfmt

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/m1gwings/treedrawer/tree"
)

// Node is one element of an AST/IR dump: a head tag, scalar fields and
// child nodes. Fields print before children, both in insertion order.
type Node struct {
	Tag    string
	Fields []string
	Kids   []*Node
}

// N builds a node.
func N(tag string, fields ...string) *Node {
	return &Node{Tag: tag, Fields: fields}
}

// Add appends children, skipping nils, and returns n for chaining.
func (n *Node) Add(kids ...*Node) *Node {
	for _, k := range kids {
		if k != nil {
			n.Kids = append(n.Kids, k)
		}
	}
	return n
}

// List wraps children in a bracketed group tag, e.g. (body ...).
func List(tag string, kids []*Node) *Node {
	return (&Node{Tag: tag}).Add(kids...)
}

type pickler struct {
	sb     strings.Builder
	opts   PickleOpts
	tagC   *color.Color
	fieldC *color.Color
}

// Pickle writes n in the selected style. Output is deterministic: it depends
// only on the node tree.
func Pickle(w io.Writer, n *Node, opts PickleOpts) error {
	if opts.Indent <= 0 {
		opts.Indent = 4
	}
	p := &pickler{opts: opts, tagC: color.New(color.FgMagenta, color.Bold), fieldC: color.New(color.FgGreen)}
	if opts.Color {
		p.tagC.EnableColor()
		p.fieldC.EnableColor()
	} else {
		p.tagC.DisableColor()
		p.fieldC.DisableColor()
	}
	switch opts.Style {
	case PickleTree:
		p.sb.WriteString(p.drawTree(n).String())
	case PickleIndent:
		p.indented(n, 0)
	default:
		p.flat(n)
	}
	if !strings.HasSuffix(p.sb.String(), "\n") {
		p.sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// PickleString is Pickle into a string.
func PickleString(n *Node, opts PickleOpts) string {
	var sb strings.Builder
	_ = Pickle(&sb, n, opts)
	return sb.String()
}

func (p *pickler) head(n *Node) {
	p.sb.WriteString(p.tagC.Sprint(n.Tag))
	for _, f := range n.Fields {
		p.sb.WriteByte(' ')
		p.sb.WriteString(p.fieldC.Sprint(f))
	}
}

func (p *pickler) flat(n *Node) {
	p.sb.WriteByte('(')
	p.head(n)
	for _, k := range n.Kids {
		p.sb.WriteByte(' ')
		p.flat(k)
	}
	p.sb.WriteByte(')')
}

func (p *pickler) indented(n *Node, depth int) {
	p.sb.WriteString(strings.Repeat(" ", depth*p.opts.Indent))
	p.sb.WriteByte('(')
	p.head(n)
	for _, k := range n.Kids {
		p.sb.WriteByte('\n')
		p.indented(k, depth+1)
	}
	p.sb.WriteByte(')')
	if depth == 0 {
		p.sb.WriteByte('\n')
	}
}

func (p *pickler) label(n *Node) string {
	var sb strings.Builder
	sb.WriteString(n.Tag)
	for _, f := range n.Fields {
		sb.WriteByte(' ')
		sb.WriteString(f)
	}
	// treedrawer считает ширину по байтам, ANSI-коды ломают рамки
	return sb.String()
}

func (p *pickler) drawTree(n *Node) *tree.Tree {
	t := tree.NewTree(tree.NodeString(p.label(n)))
	p.addKids(t, n)
	return t
}

func (p *pickler) addKids(t *tree.Tree, n *Node) {
	for _, k := range n.Kids {
		child := t.AddChild(tree.NodeString(p.label(k)))
		p.addKids(child, k)
	}
}
