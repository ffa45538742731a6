package inventory

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// PlaceRequest describes a grant of item groups into an owner's stash.
// Each group is a root item followed by its descendants.
type PlaceRequest struct {
	Groups          [][]models.Item
	FoundInRaid     bool
	UseSortingTable bool
	// Callback runs after each group is committed with the root's stack
	// count. A failure is reported as a *CallbackError; the group stays placed
	// and later groups are skipped.
	Callback func(stackCount int) error
}

// stashSize returns the stash grid size including the row bonus.
func (e *Engine) stashSize(o *Owner) (rows, cols int) {
	rows, cols = e.limits.StashHeight, e.limits.StashWidth
	log := e.log.WithField("stash_id", o.stashID())
	stash, ok := o.Tree.Get(o.stashID())
	switch {
	case !ok:
		log.Error("stash item missing from inventory, using default size")
	default:
		tpl, found := e.catalog.Lookup(stash.Tpl)
		if found && len(tpl.Grids) > 0 {
			cols, rows = tpl.Grids[0].CellsH, tpl.Grids[0].CellsV
		} else {
			log.WithField("tpl", stash.Tpl).Error("stash template has no grid, using default size")
		}
	}
	if o.Character != nil {
		rows += o.Character.Bonuses.StashRows
	}
	return rows, cols
}

// gridSize resolves the grid dimensions of slot on containerID. ok is false
// when the slot is not a grid.
func (e *Engine) gridSize(o *Owner, containerID, slot string) (rows, cols int, ok bool) {
	if containerID != "" && containerID == o.stashID() {
		rows, cols = e.stashSize(o)
		return rows, cols, true
	}
	if containerID != "" && containerID == o.sortingTableID() {
		return e.limits.SortingTableHeight, e.limits.SortingTableWidth, true
	}
	container, found := o.Tree.Get(containerID)
	if !found {
		return 0, 0, false
	}
	tpl, found := e.catalog.Lookup(container.Tpl)
	if !found {
		e.log.WithFields(logrus.Fields{"container_id": containerID, "tpl": container.Tpl}).
			Error("container template not found")
		return 0, 0, false
	}
	for _, g := range tpl.Grids {
		if g.Name == slot {
			return g.CellsV, g.CellsH, true
		}
	}
	return 0, 0, false
}

// allocate finds and reserves a region on g.
func (e *Engine) allocate(g *Grid, w, h int) (Placement, bool) {
	x, y, rotated, ok := g.FindFreeRegion(w, h)
	if !ok {
		return Placement{Reason: "no free region"}, false
	}
	if err := g.FillRegion(x, y, w, h, rotated); err != nil {
		e.log.WithError(err).Error("failed to reserve region returned by the allocator")
		return Placement{Reason: err.Error()}, false
	}
	return Placement{OK: true, X: x, Y: y, Rotated: rotated}, true
}

// Plan finds a placement for every group, in order, against snapshots of
// the stash and (optionally) the sorting table. The owner is not modified.
func (e *Engine) Plan(o *Owner, groups [][]models.Item, useSortingTable bool) ([]Placement, error) {
	if o.Character == nil || o.stashID() == "" {
		return nil, ErrNoStash
	}
	rows, cols := e.stashSize(o)
	stash := e.BuildOccupancy(o.stashID(), rows, cols, o.Tree)

	var table *Grid
	if useSortingTable && o.sortingTableID() != "" {
		table = e.BuildOccupancy(o.sortingTableID(), e.limits.SortingTableHeight, e.limits.SortingTableWidth, o.Tree)
	}

	out := make([]Placement, 0, len(groups))
	for i, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("inventory: item group %d is empty", i)
		}
		root := group[0]
		w, h := e.ResolveFootprint(root.ID, NewTree(group))

		p, ok := e.allocate(stash, w, h)
		if ok {
			p.ContainerID = o.stashID()
		} else if table != nil {
			if p, ok = e.allocate(table, w, h); ok {
				p.ContainerID = o.sortingTableID()
			}
		}
		if !ok {
			return nil, &CapacityError{RootID: root.ID, Tpl: root.Tpl, Width: w, Height: h}
		}
		out = append(out, p)
	}
	return out, nil
}

// PlaceItems places each group in the stash, overflowing into the sorting
// table when allowed. Either every group is committed or none is, with one
// exception: when the callback fails, the group it ran for stays committed
// and the remaining groups are not placed.
func (e *Engine) PlaceItems(o *Owner, req PlaceRequest) (*Changes, error) {
	changes := &Changes{}
	seen := make(map[string]bool)
	for _, group := range req.Groups {
		for _, it := range group {
			if it.ID == "" || seen[it.ID] || o.Tree.Has(it.ID) {
				return changes, fmt.Errorf("inventory: item id %q is empty or already in use", it.ID)
			}
			seen[it.ID] = true
		}
	}

	placements, err := e.Plan(o, req.Groups, req.UseSortingTable)
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			changes.Warn("not_enough_space", "not enough stash space for %s", capErr.Tpl)
		}
		return changes, err
	}

	for i, group := range req.Groups {
		items := models.CloneItems(group)
		p := placements[i]
		root := &items[0]
		root.ParentID = p.ContainerID
		root.SlotID = models.StashSlot
		root.Location = p.Location()

		e.setFoundInRaid(items, req.FoundInRaid)
		stripTraderState(root)

		if err := o.Tree.Add(items...); err != nil {
			return changes, err
		}
		changes.AddNew(items...)
		e.log.WithFields(logrus.Fields{
			"item_id":      root.ID,
			"container_id": p.ContainerID,
			"x":            p.X,
			"y":            p.Y,
			"rotated":      p.Rotated,
		}).Debug("placed item")

		if req.Callback != nil {
			if err := req.Callback(root.StackCount()); err != nil {
				e.log.WithError(err).WithFields(logrus.Fields{
					"item_id": root.ID,
					"skipped": len(req.Groups) - i - 1,
				}).Error("placement callback failed after commit")
				changes.Warn("callback_failed", "%v", err)
				return changes, &CallbackError{RootID: root.ID, Err: err}
			}
		}
	}
	return changes, nil
}

func (e *Engine) setFoundInRaid(items []models.Item, foundInRaid bool) {
	for i := range items {
		it := &items[i]
		if foundInRaid && e.carriesFoundInRaid(it.Tpl) {
			if it.Upd == nil {
				it.Upd = &models.Upd{}
			}
			it.Upd.SpawnedInSession = true
			continue
		}
		if it.Upd != nil {
			it.Upd.SpawnedInSession = false
		}
	}
}

// stripTraderState drops fields that only make sense on trader or flea stock.
func stripTraderState(it *models.Item) {
	if it.Upd == nil {
		return
	}
	it.Upd.UnlimitedCount = false
	it.Upd.BuyRestrictionMax = 0
	it.Upd.BuyRestrictionCurrent = 0
}
