package symbols

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks that the scope tree and the symbol lists agree: parent and
// child links point both ways, dead scopes have no live children, every
// declared symbol is in its scope's name index and owned scopes point back
// at their owner. All problems are returned joined.
func (t *Table) Validate() error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for id, sc := range t.Scopes.All() {
		if sc.Kind == ScopeInvalid {
			report("scope %d has invalid kind", id)
		}
		if sc.Parent.IsValid() {
			parent := t.Scopes.Get(sc.Parent)
			switch {
			case parent == nil || sc.Parent == id:
				report("scope %d has invalid parent %d", id, sc.Parent)
			case !slices.Contains(parent.Children, id):
				report("scope %d is not listed under its parent %d", id, sc.Parent)
			case parent.Dead && !sc.Dead:
				report("scope %d is live under dead parent %d", id, sc.Parent)
			}
		}
		for _, child := range sc.Children {
			c := t.Scopes.Get(child)
			if c == nil || child == id || c.Parent != id {
				report("scope %d lists %d as a child without a backlink", id, child)
			}
		}

		// имя-индекс и список символов должны совпадать
		indexed := 0
		for name, bucket := range sc.NameIndex {
			for _, sym := range bucket {
				if !slices.Contains(sc.Symbols, sym) {
					report("scope %d indexes symbol %d under name %d but does not declare it", id, sym, name)
				}
				indexed++
			}
		}
		if indexed != len(sc.Symbols) {
			report("scope %d declares %d symbols but indexes %d", id, len(sc.Symbols), indexed)
		}
	}

	for id, sym := range t.Symbols.All() {
		home := t.Scopes.Get(sym.Scope)
		if home == nil {
			report("symbol %d has invalid scope %d", id, sym.Scope)
			continue
		}
		if !slices.Contains(home.Symbols, id) {
			report("symbol %d is missing from scope %d", id, sym.Scope)
		}
		if sym.Owns.IsValid() {
			if owned := t.Scopes.Get(sym.Owns); owned == nil || owned.Owner != id {
				report("symbol %d owns scope %d without a backlink", id, sym.Owns)
			}
		}
	}
	return errors.Join(errs...)
}
