package inventory

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// Target is where an item should end up: a parent item, a slot on it and,
// for grid slots, a location.
type Target struct {
	ParentID string
	SlotID   string
	Location *models.Location
}

func (e *Engine) notFound(changes *Changes, op, id string) {
	e.log.WithFields(logrus.Fields{"op": op, "item_id": id}).Warn("item not found, nothing to do")
	changes.Warn("item_not_found", "%s: item %s not found", op, id)
}

// checkFits verifies that moving ids onto target does not collide with
// anything in the target grid. Unknown grid sizes are accepted.
func (e *Engine) checkFits(o *Owner, tree *Tree, target Target, rootID string, skip map[string]bool) error {
	if target.Location == nil {
		return nil
	}
	rows, cols, ok := e.gridSize(o, target.ParentID, target.SlotID)
	if !ok {
		return nil
	}
	g := e.buildOccupancy(target.ParentID, target.SlotID, rows, cols, o.Tree, skip)
	w, h := e.ResolveFootprint(rootID, tree)
	if err := g.FillRegion(target.Location.X, target.Location.Y, w, h, target.Location.Rotated()); err != nil {
		item, _ := tree.Get(rootID)
		return fmt.Errorf("%w: %v", &CapacityError{RootID: rootID, Tpl: item.Tpl, Width: w, Height: h}, err)
	}
	return nil
}

// Move relinks itemID under target. When from and to differ the item and
// its descendants leave from's tree and join to's tree.
func (e *Engine) Move(from, to *Owner, itemID string, target Target) (*Changes, error) {
	changes := &Changes{}
	item, ok := from.Tree.Get(itemID)
	if !ok {
		e.notFound(changes, "move", itemID)
		return changes, nil
	}
	if target.ParentID != "" && !to.Tree.Has(target.ParentID) {
		e.notFound(changes, "move", target.ParentID)
		return changes, nil
	}

	if from == to || from.Tree == to.Tree {
		if target.ParentID == itemID || from.Tree.IsAncestor(itemID, target.ParentID) {
			return changes, fmt.Errorf("%w: %s under %s", ErrCycle, itemID, target.ParentID)
		}
		if err := e.checkFits(to, from.Tree, target, itemID, map[string]bool{itemID: true}); err != nil {
			return changes, err
		}
		if err := from.Tree.Relink(itemID, target.ParentID, target.SlotID, target.Location); err != nil {
			return changes, err
		}
		e.updateFastPanelBinding(from, item)
		changes.AddChanged(*item)
		e.log.WithFields(logrus.Fields{"item_id": itemID, "parent_id": target.ParentID, "slot": target.SlotID}).Debug("moved item")
		return changes, nil
	}

	return e.moveAcross(from, to, itemID, target, changes)
}

// moveAcross moves an item and its descendants between two trees.
func (e *Engine) moveAcross(from, to *Owner, itemID string, target Target, changes *Changes) (*Changes, error) {
	ids := from.Tree.Subtree(itemID)
	moving := NewTree(from.Tree.Group(itemID))
	if err := e.checkFits(to, moving, target, itemID, nil); err != nil {
		return changes, err
	}
	for _, id := range ids {
		if to.Tree.Has(id) {
			return changes, fmt.Errorf("inventory: item id %s already exists in destination", id)
		}
	}

	items := from.Tree.detach(ids)
	original := items[0].Clone()
	root := &items[0]
	root.ParentID = target.ParentID
	root.SlotID = target.SlotID
	root.Location = nil
	if target.Location != nil {
		loc := *target.Location
		root.Location = &loc
	}
	if err := to.Tree.Add(items...); err != nil {
		items[0] = original
		if rerr := from.Tree.Add(items...); rerr != nil {
			e.log.WithError(rerr).WithField("item_id", itemID).Error("failed to restore item after aborted move")
		}
		return changes, err
	}
	clearFastPanel(from, ids)

	changes.AddNew(items...)
	e.log.WithFields(logrus.Fields{
		"item_id": itemID,
		"from":    from.Kind.String(),
		"to":      to.Kind.String(),
		"count":   len(items),
	}).Debug("moved item across owners")
	return changes, nil
}

// updateFastPanelBinding clears a quick-access binding when the item now
// sits in a container the panel cannot reach, or has no parent at all.
func (e *Engine) updateFastPanelBinding(o *Owner, item *models.Item) {
	if o.Character == nil {
		return
	}
	panel := o.Character.Inventory.FastPanel
	for key, bound := range panel {
		if bound != item.ID {
			continue
		}
		parent, ok := o.Tree.Get(item.ParentID)
		if !ok || !e.fastPanelAllowed(parent.SlotID) {
			panel[key] = ""
		}
	}
}

func clearFastPanel(o *Owner, ids []string) {
	if o.Character == nil || len(o.Character.Inventory.FastPanel) == 0 {
		return
	}
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	for key, bound := range o.Character.Inventory.FastPanel {
		if gone[bound] {
			o.Character.Inventory.FastPanel[key] = ""
		}
	}
}

// Split carves count off a stack into a new item placed by the placement
// engine. The source keeps the rest. It returns the new item's id.
func (e *Engine) Split(o *Owner, itemID string, count int, useSortingTable bool) (*Changes, string, error) {
	changes := &Changes{}
	src, ok := o.Tree.Get(itemID)
	if !ok {
		e.notFound(changes, "split", itemID)
		return changes, "", nil
	}
	if count <= 0 || count >= src.StackCount() {
		return changes, "", fmt.Errorf("%w: split %d from stack of %d", ErrInvalidCount, count, src.StackCount())
	}

	split := src.Clone()
	split.ID = e.ids.NewID()
	split.ParentID = ""
	split.SlotID = ""
	split.Location = nil
	split.SetStackCount(count)
	fir := src.Upd != nil && src.Upd.SpawnedInSession

	placed, err := e.PlaceItems(o, PlaceRequest{
		Groups:          [][]models.Item{{split}},
		FoundInRaid:     fir,
		UseSortingTable: useSortingTable,
	})
	changes.Merge(placed)
	if err != nil {
		return changes, "", err
	}

	src.SetStackCount(src.StackCount() - count)
	changes.AddChanged(*src)
	return changes, split.ID, nil
}

// Merge adds the source stack onto the target stack and removes the source.
func (e *Engine) Merge(from, to *Owner, sourceID, targetID string) (*Changes, error) {
	changes := &Changes{}
	src, ok := from.Tree.Get(sourceID)
	if !ok {
		e.notFound(changes, "merge", sourceID)
		return changes, nil
	}
	dst, ok := to.Tree.Get(targetID)
	if !ok {
		e.notFound(changes, "merge", targetID)
		return changes, nil
	}
	if sourceID == targetID {
		return changes, fmt.Errorf("%w: cannot merge %s into itself", ErrInvalidCount, sourceID)
	}
	if src.Tpl != dst.Tpl {
		return changes, fmt.Errorf("%w: %s into %s", ErrTemplateMismatch, src.Tpl, dst.Tpl)
	}

	total := dst.StackCount() + src.StackCount()
	dst.SetStackCount(total)
	if src.Upd == nil || !src.Upd.SpawnedInSession {
		dst.Upd.SpawnedInSession = false
	}
	changes.AddChanged(*dst)
	changes.Merge(e.Remove(from, sourceID))
	return changes, nil
}

// TransferCount moves count units from one stack onto another of the same
// template. The source is removed when it runs empty.
func (e *Engine) TransferCount(o *Owner, sourceID, targetID string, count int) (*Changes, error) {
	changes := &Changes{}
	src, ok := o.Tree.Get(sourceID)
	if !ok {
		e.notFound(changes, "transfer_count", sourceID)
		return changes, nil
	}
	dst, ok := o.Tree.Get(targetID)
	if !ok {
		e.notFound(changes, "transfer_count", targetID)
		return changes, nil
	}
	if sourceID == targetID || count <= 0 || count > src.StackCount() {
		return changes, fmt.Errorf("%w: transfer %d from stack of %d", ErrInvalidCount, count, src.StackCount())
	}
	if src.Tpl != dst.Tpl {
		return changes, fmt.Errorf("%w: %s into %s", ErrTemplateMismatch, src.Tpl, dst.Tpl)
	}

	dst.SetStackCount(dst.StackCount() + count)
	changes.AddChanged(*dst)
	if count == src.StackCount() {
		changes.Merge(e.Remove(o, sourceID))
		return changes, nil
	}
	src.SetStackCount(src.StackCount() - count)
	changes.AddChanged(*src)
	return changes, nil
}

// Swap exchanges parent, slot and location of two items of the same owner.
// Their subtrees are untouched.
func (e *Engine) Swap(o *Owner, firstID, secondID string) (*Changes, error) {
	changes := &Changes{}
	a, ok := o.Tree.Get(firstID)
	if !ok {
		e.notFound(changes, "swap", firstID)
		return changes, nil
	}
	b, ok := o.Tree.Get(secondID)
	if !ok {
		e.notFound(changes, "swap", secondID)
		return changes, nil
	}
	if firstID == secondID {
		return changes, nil
	}
	if b.ParentID == firstID || o.Tree.IsAncestor(firstID, b.ParentID) ||
		a.ParentID == secondID || o.Tree.IsAncestor(secondID, a.ParentID) {
		return changes, fmt.Errorf("%w: swap %s with %s", ErrCycle, firstID, secondID)
	}

	aTarget := Target{ParentID: b.ParentID, SlotID: b.SlotID, Location: b.Location}
	bTarget := Target{ParentID: a.ParentID, SlotID: a.SlotID, Location: a.Location}
	skip := map[string]bool{firstID: true, secondID: true}
	if err := e.checkSwap(o, aTarget, firstID, bTarget, secondID, skip); err != nil {
		return changes, err
	}

	// Relink copies locations, so the originals can be shared here.
	if err := o.Tree.Relink(firstID, aTarget.ParentID, aTarget.SlotID, aTarget.Location); err != nil {
		return changes, err
	}
	if err := o.Tree.Relink(secondID, bTarget.ParentID, bTarget.SlotID, bTarget.Location); err != nil {
		return changes, err
	}
	e.updateFastPanelBinding(o, a)
	e.updateFastPanelBinding(o, b)
	changes.AddChanged(*a)
	changes.AddChanged(*b)
	return changes, nil
}

// checkSwap validates both halves of a swap against one occupancy snapshot
// per container, so two items landing in the same grid cannot collide.
func (e *Engine) checkSwap(o *Owner, aTarget Target, aID string, bTarget Target, bID string, skip map[string]bool) error {
	grids := make(map[string]*Grid)
	place := func(t Target, id string) error {
		if t.Location == nil {
			return nil
		}
		key := t.ParentID + "/" + t.SlotID
		g, ok := grids[key]
		if !ok {
			rows, cols, found := e.gridSize(o, t.ParentID, t.SlotID)
			if !found {
				return nil
			}
			g = e.buildOccupancy(t.ParentID, t.SlotID, rows, cols, o.Tree, skip)
			grids[key] = g
		}
		w, h := e.ResolveFootprint(id, o.Tree)
		if err := g.FillRegion(t.Location.X, t.Location.Y, w, h, t.Location.Rotated()); err != nil {
			item, _ := o.Tree.Get(id)
			return fmt.Errorf("%w: %v", &CapacityError{RootID: id, Tpl: item.Tpl, Width: w, Height: h}, err)
		}
		return nil
	}
	if err := place(aTarget, aID); err != nil {
		return err
	}
	return place(bTarget, bID)
}

// Transfer moves a reward item (and its descendants) out of a mail message
// into to. A zero-value target places the item in to's stash. When the
// message runs out of rewards it is flagged collected and the dialogue's
// unread attachment counter drops by one.
func (e *Engine) Transfer(from, to *Owner, itemID string, target Target) (*Changes, error) {
	changes := &Changes{}
	if !from.IsMail() {
		return changes, ErrNotMail
	}
	if !from.Tree.Has(itemID) {
		e.notFound(changes, "transfer", itemID)
		return changes, nil
	}

	if target.ParentID == "" {
		group := from.Tree.Group(itemID)
		placements, err := e.Plan(to, [][]models.Item{group}, true)
		if err != nil {
			changes.Warn("not_enough_space", "not enough stash space for %s", group[0].Tpl)
			return changes, err
		}
		target = Target{ParentID: placements[0].ContainerID, SlotID: models.StashSlot, Location: placements[0].Location()}
	} else if !to.Tree.Has(target.ParentID) {
		e.notFound(changes, "transfer", target.ParentID)
		return changes, nil
	}

	if _, err := e.moveAcross(from, to, itemID, target, changes); err != nil {
		return changes, err
	}
	from.Commit()
	if from.Tree.Len() == 0 && from.Message != nil {
		from.Message.RewardCollected = true
		from.Message.HasRewards = false
		if from.Dialogue != nil && from.Dialogue.AttachmentsNew > 0 {
			from.Dialogue.AttachmentsNew--
		}
	}
	return changes, nil
}

// Remove deletes itemID and all of its descendants, including their
// insurance records. Unknown ids are a logged no-op.
func (e *Engine) Remove(o *Owner, itemID string) *Changes {
	changes := &Changes{}
	ids := o.Tree.Subtree(itemID)
	if len(ids) == 0 {
		e.log.WithField("item_id", itemID).Debug("item to remove not found")
		return changes
	}
	if o.Tree.InCycle(itemID) {
		e.log.WithField("item_id", itemID).Error("item sits in a parent cycle, removing the whole loop")
	}
	o.Tree.detach(ids)
	changes.AddDeleted(itemID)

	if o.Character != nil && len(o.Character.InsuredItems) > 0 {
		gone := make(map[string]bool, len(ids))
		for _, id := range ids {
			gone[id] = true
		}
		kept := o.Character.InsuredItems[:0]
		for _, ins := range o.Character.InsuredItems {
			if !gone[ins.ItemID] {
				kept = append(kept, ins)
			}
		}
		o.Character.InsuredItems = kept
	}
	e.log.WithFields(logrus.Fields{"item_id": itemID, "count": len(ids)}).Debug("removed item")
	return changes
}

// RemoveByCount consumes count units from the given stacks in order:
// whole stacks are removed, the last one is reduced. Repeated ids and
// stacks nested under another listed id count once. Nothing changes when
// the stacks hold fewer than count units.
func (e *Engine) RemoveByCount(o *Owner, itemIDs []string, count int) (*Changes, error) {
	changes := &Changes{}
	if count <= 0 {
		return changes, fmt.Errorf("%w: remove %d", ErrInvalidCount, count)
	}
	listed := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		listed[id] = true
	}
	var stacks []*models.Item
	seen := make(map[string]bool, len(itemIDs))
	available := 0
	for _, id := range itemIDs {
		it, ok := o.Tree.Get(id)
		if !ok {
			e.notFound(changes, "remove_by_count", id)
			continue
		}
		if seen[id] || coveredByListed(o.Tree, id, listed) {
			continue
		}
		seen[id] = true
		stacks = append(stacks, it)
		available += it.StackCount()
	}
	if available < count {
		return changes, fmt.Errorf("%w: have %d, need %d", ErrInsufficient, available, count)
	}

	remaining := count
	for _, it := range stacks {
		n := it.StackCount()
		if remaining >= n {
			changes.Merge(e.Remove(o, it.ID))
			remaining -= n
		} else {
			it.SetStackCount(n - remaining)
			changes.AddChanged(*it)
			remaining = 0
		}
		if remaining == 0 {
			break
		}
	}
	return changes, nil
}

// coveredByListed reports whether a strict ancestor of id is in listed.
func coveredByListed(tree *Tree, id string, listed map[string]bool) bool {
	seen := map[string]bool{id: true}
	cur, ok := tree.Get(id)
	for ok && cur.ParentID != "" && !seen[cur.ParentID] {
		if listed[cur.ParentID] {
			return true
		}
		seen[cur.ParentID] = true
		cur, ok = tree.Get(cur.ParentID)
	}
	return false
}
