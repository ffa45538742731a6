package inventory

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("gen-%03d", s.n)
}

func newTestEngine(t *testing.T, catalog Catalog, opts ...Option) (*Engine, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts = append([]Option{WithLogger(logger), WithIDGenerator(&seqIDs{})}, opts...)
	return NewEngine(catalog, opts...), hook
}

func loggedAt(hook *test.Hook, level logrus.Level) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// emptyOwner returns a PMC owner with an empty stash of the given size.
func emptyOwner(reg *Registry, cols, rows int) *Owner {
	_ = reg.Register(Template{ID: "stash_test", Class: ClassStash, Width: 1, Height: 1,
		Grids: []GridProps{{Name: models.StashSlot, CellsH: cols, CellsV: rows}}})
	ch := &models.Character{
		ID: "pmc",
		Inventory: models.Inventory{
			Stash:        "stash",
			SortingTable: "sorting",
			FastPanel:    map[string]string{},
			Items: []models.Item{
				{ID: "stash", Tpl: "stash_test"},
				{ID: "sorting", Tpl: SampleSortingTable},
			},
		},
	}
	return NewCharacterOwner(OwnerPMC, ch)
}

func at(x, y int) *models.Location {
	return &models.Location{X: x, Y: y, R: models.RotationHorizontal}
}

// assertNoOverlap rebuilds every grid of o and fails if any stored
// placement collides or leaves its container.
func assertNoOverlap(t *testing.T, e *Engine, o *Owner) {
	t.Helper()
	containers := make(map[string]map[string]bool)
	for _, it := range o.Tree.Items() {
		if it.Location == nil {
			continue
		}
		if containers[it.ParentID] == nil {
			containers[it.ParentID] = make(map[string]bool)
		}
		containers[it.ParentID][it.SlotID] = true
	}
	for id, slots := range containers {
		for slot := range slots {
			rows, cols, ok := e.gridSize(o, id, slot)
			if !ok {
				continue
			}
			g := NewGrid(rows, cols)
			for _, child := range o.Tree.Children(id) {
				if child.Location == nil || child.SlotID != slot {
					continue
				}
				w, h := e.ResolveFootprint(child.ID, o.Tree)
				if err := g.FillRegion(child.Location.X, child.Location.Y, w, h, child.Location.Rotated()); err != nil {
					t.Fatalf("item %s in %s/%s: %v", child.ID, id, slot, err)
				}
			}
		}
	}
}
