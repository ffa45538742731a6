package inventory

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const modSlotPrefix = "mod_"

// isPlainContainer reports templates whose children never change their
// outer size.
func (c Class) isPlainContainer() bool {
	switch c {
	case ClassBackpack, ClassSearchable, ClassSimpleContainer, ClassStash, ClassSortingTable:
		return true
	}
	return false
}

// extraSize accumulates attachment growth. Forced deltas add up; the others
// only contribute their largest value per direction.
type extraSize struct {
	forcedLeft, forcedRight, forcedUp, forcedDown int
	left, right, up, down                         int
}

func (s *extraSize) add(t Template) {
	if t.ExtraSizeForceAdd {
		s.forcedLeft += t.ExtraSizeLeft
		s.forcedRight += t.ExtraSizeRight
		s.forcedUp += t.ExtraSizeUp
		s.forcedDown += t.ExtraSizeDown
		return
	}
	s.left = max(s.left, t.ExtraSizeLeft)
	s.right = max(s.right, t.ExtraSizeRight)
	s.up = max(s.up, t.ExtraSizeUp)
	s.down = max(s.down, t.ExtraSizeDown)
}

func (s extraSize) width() int {
	return s.left + s.right + s.forcedLeft + s.forcedRight
}

func (s extraSize) height() int {
	return s.up + s.down + s.forcedUp + s.forcedDown
}

// ResolveFootprint computes the width and height rootID occupies in a grid,
// folding and attachments included. Missing data degrades to 1x1.
func (e *Engine) ResolveFootprint(rootID string, tree *Tree) (width, height int) {
	log := e.log.WithField("item_id", rootID)

	root, ok := tree.Get(rootID)
	if !ok {
		log.Error("cannot size unknown item, using 1x1")
		return 1, 1
	}
	tpl, ok := e.catalog.Lookup(root.Tpl)
	if !ok {
		log.WithField("tpl", root.Tpl).Error("template not found, using 1x1")
		return 1, 1
	}

	width, height = tpl.Width, tpl.Height
	rootFolded := root.Folded()
	if tpl.Foldable && tpl.FoldedSlot == "" && rootFolded {
		width -= tpl.SizeReduceRight
	}

	if !tpl.Class.isPlainContainer() {
		var extra extraSize
		queue := []string{rootID}
		seen := map[string]bool{rootID: true}
		for len(queue) > 0 {
			parentID := queue[0]
			queue = queue[1:]
			for _, child := range tree.Children(parentID) {
				if !strings.HasPrefix(child.SlotID, modSlotPrefix) {
					continue
				}
				if seen[child.ID] {
					log.WithField("child_id", child.ID).Error("attachment parent cycle, ignoring repeat")
					continue
				}
				seen[child.ID] = true
				queue = append(queue, child.ID)

				childTpl, ok := e.catalog.Lookup(child.Tpl)
				if !ok {
					log.WithFields(logrus.Fields{"child_id": child.ID, "tpl": child.Tpl}).
						Warn("attachment template not found, ignoring its size")
					continue
				}
				childFolded := child.Folded()
				if tpl.Foldable && tpl.FoldedSlot == child.SlotID && (rootFolded || childFolded) {
					continue
				}
				if childTpl.Foldable && rootFolded && childFolded {
					continue
				}
				extra.add(childTpl)
			}
		}
		width += extra.width()
		height += extra.height()
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}
