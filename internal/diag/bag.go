package diag

import "slices"

// Bag is the ordered diagnostics collection of one unit. Diagnostics are
// rendered in the order they were added.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max diagnostics; max <= 0 means unlimited.
func NewBag(max int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, 16), max: max}
}

// Add добавляет диагностику с учётом лимита. Errors are kept past the limit
// so a failing stage never loses its reason.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max && d.Severity != SevError {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) count(at Severity) int {
	n := 0
	for _, d := range b.items {
		if d.Severity >= at {
			n++
		}
	}
	return n
}

func (b *Bag) ErrorCount() int { return b.count(SevError) }

func (b *Bag) HasErrors() bool { return b.count(SevError) > 0 }

// HasWarnings is true when something is at least a warning.
func (b *Bag) HasWarnings() bool { return b.count(SevWarning) > 0 }

func (b *Bag) Len() int { return len(b.items) }

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Filter keeps only diagnostics accepted by keep.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool { return !keep(d) })
}

// DropWarnings leaves only errors (--no-warnings).
func (b *Bag) DropWarnings() {
	b.Filter(func(d Diagnostic) bool { return d.Severity == SevError })
}
