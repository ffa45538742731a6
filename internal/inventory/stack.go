package inventory

import (
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// SplitStack breaks an item whose count exceeds its template's stack limit
// into several full stacks plus a remainder. The first stack keeps the
// original id; the rest get fresh ids. Items with an unknown template are
// returned unchanged.
func (e *Engine) SplitStack(it models.Item) []models.Item {
	tpl, ok := e.catalog.Lookup(it.Tpl)
	if !ok {
		e.log.WithField("tpl", it.Tpl).Warn("cannot split stack of unknown template")
		return []models.Item{it.Clone()}
	}
	limit := tpl.MaxStack()
	remaining := it.StackCount()
	if remaining <= limit {
		return []models.Item{it.Clone()}
	}

	var out []models.Item
	for remaining > 0 {
		n := min(remaining, limit)
		s := it.Clone()
		if len(out) > 0 {
			s.ID = e.ids.NewID()
		}
		s.SetStackCount(n)
		out = append(out, s)
		remaining -= n
	}
	return out
}

// StackGroups turns a list of bought or granted roots into placement groups,
// one per stack.
func (e *Engine) StackGroups(items []models.Item) [][]models.Item {
	var groups [][]models.Item
	for _, it := range items {
		for _, s := range e.SplitStack(it) {
			groups = append(groups, []models.Item{s})
		}
	}
	return groups
}
