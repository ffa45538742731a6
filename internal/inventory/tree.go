package inventory

import (
	"fmt"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// Tree is an arena of item records keyed by id. Parent links are plain ids;
// the children index is derived and rebuilt after structural changes.
//
// Parent, slot and location changes must go through Relink so the index
// stays coherent. Other fields of a record returned by Get may be edited in
// place.
type Tree struct {
	items map[string]*models.Item
	order []string

	children map[string][]string
	dirty    bool
}

// NewTree copies items into a fresh arena. Later duplicates of an id are dropped.
func NewTree(items []models.Item) *Tree {
	t := &Tree{
		items: make(map[string]*models.Item, len(items)),
		order: make([]string, 0, len(items)),
		dirty: true,
	}
	for _, it := range items {
		if _, dup := t.items[it.ID]; dup || it.ID == "" {
			continue
		}
		c := it.Clone()
		t.items[c.ID] = &c
		t.order = append(t.order, c.ID)
	}
	return t
}

// Len returns the number of records.
func (t *Tree) Len() int { return len(t.order) }

// Get returns the live record for id.
func (t *Tree) Get(id string) (*models.Item, bool) {
	it, ok := t.items[id]
	return it, ok
}

// Has reports whether id is present.
func (t *Tree) Has(id string) bool {
	_, ok := t.items[id]
	return ok
}

func (t *Tree) index() map[string][]string {
	if !t.dirty && t.children != nil {
		return t.children
	}
	idx := make(map[string][]string, len(t.order))
	for _, id := range t.order {
		it := t.items[id]
		if it.ParentID == "" {
			continue
		}
		idx[it.ParentID] = append(idx[it.ParentID], id)
	}
	t.children = idx
	t.dirty = false
	return idx
}

// Children returns the direct children of parentID in insertion order.
func (t *Tree) Children(parentID string) []*models.Item {
	ids := t.index()[parentID]
	out := make([]*models.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.items[id])
	}
	return out
}

// Subtree returns id followed by all of its descendants, breadth first.
// Each id appears once even when corrupt parent links form a cycle. It
// returns nil when id is unknown.
func (t *Tree) Subtree(id string) []string {
	if !t.Has(id) {
		return nil
	}
	idx := t.index()
	out := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(out); i++ {
		for _, child := range idx[out[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}

// InCycle reports whether the parent chain of id leads back to id.
func (t *Tree) InCycle(id string) bool {
	return t.IsAncestor(id, id)
}

// Group returns copies of id and its descendants, root first.
func (t *Tree) Group(id string) []models.Item {
	ids := t.Subtree(id)
	out := make([]models.Item, 0, len(ids))
	for _, sid := range ids {
		out = append(out, t.items[sid].Clone())
	}
	return out
}

// IsAncestor reports whether ancestorID appears on the parent chain of id.
func (t *Tree) IsAncestor(ancestorID, id string) bool {
	seen := make(map[string]bool)
	cur, ok := t.items[id]
	for ok && cur.ParentID != "" {
		if cur.ParentID == ancestorID {
			return true
		}
		if seen[cur.ParentID] {
			return false
		}
		seen[cur.ParentID] = true
		cur, ok = t.items[cur.ParentID]
	}
	return false
}

// Add appends copies of items. No record is added when any id is empty or
// already present.
func (t *Tree) Add(items ...models.Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("inventory: item with template %s has no id", it.Tpl)
		}
		if t.Has(it.ID) || seen[it.ID] {
			return fmt.Errorf("inventory: duplicate item id %s", it.ID)
		}
		seen[it.ID] = true
	}
	for _, it := range items {
		c := it.Clone()
		t.items[c.ID] = &c
		t.order = append(t.order, c.ID)
	}
	t.dirty = true
	return nil
}

// Relink rewrites the parent, slot and location of id. A nil location clears it.
func (t *Tree) Relink(id, parentID, slotID string, loc *models.Location) error {
	it, ok := t.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if parentID == id || (parentID != "" && t.IsAncestor(id, parentID)) {
		return fmt.Errorf("%w: %s under %s", ErrCycle, id, parentID)
	}
	it.ParentID = parentID
	it.SlotID = slotID
	if loc != nil {
		l := *loc
		it.Location = &l
	} else {
		it.Location = nil
	}
	t.dirty = true
	return nil
}

// detach removes the given ids from the arena and returns the removed
// records in the order given.
func (t *Tree) detach(ids []string) []models.Item {
	drop := make(map[string]bool, len(ids))
	out := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := t.items[id]; ok && !drop[id] {
			drop[id] = true
			out = append(out, *it)
			delete(t.items, id)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	t.order = kept
	t.dirty = true
	return out
}

// Items exports copies of every record in insertion order.
func (t *Tree) Items() []models.Item {
	out := make([]models.Item, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id].Clone())
	}
	return out
}

// Clone returns an independent copy of the tree.
func (t *Tree) Clone() *Tree {
	return NewTree(t.Items())
}
