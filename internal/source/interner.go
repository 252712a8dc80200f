package source

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// StringID is a handle of an interned identifier; NoStringID is "".
type StringID uint32

const NoStringID StringID = 0

// Interner hands out one StringID per distinct name. The AST and the IR of
// a unit share an interner, so name equality is ID equality.
type Interner struct {
	names []string
	ids   map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{names: []string{""}, ids: map[string]StringID{"": NoStringID}}
}

// Intern returns the ID of s, adding it on first sight. The stored text is
// cloned so the interner never pins a source buffer.
func (in *Interner) Intern(s string) StringID {
	if id, ok := in.ids[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.names))
	if err != nil {
		panic(fmt.Errorf("too many names: %w", err))
	}
	s = strings.Clone(s)
	in.names = append(in.names, s)
	in.ids[s] = StringID(n)
	return StringID(n)
}

func (in *Interner) Lookup(id StringID) (string, bool) {
	if int(id) < len(in.names) {
		return in.names[id], true
	}
	return "", false
}

// MustLookup panics on a handle from another interner.
func (in *Interner) MustLookup(id StringID) string {
	if s, ok := in.Lookup(id); ok {
		return s
	}
	panic(fmt.Sprintf("unknown string id %d", id))
}
