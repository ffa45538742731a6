package inventory

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Grid is a transient occupancy map of a container, indexed [row][col]
// with origin at top-left. It is derived from the tree and never persisted.
type Grid struct {
	rows, cols int
	cells      [][]bool
}

// NewGrid returns an all-free grid.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	g := &Grid{rows: rows, cols: cols, cells: make([][]bool, rows)}
	for y := range g.cells {
		g.cells[y] = make([]bool, cols)
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Occupied reports whether cell (x, y) is taken. Cells outside the grid
// count as taken.
func (g *Grid) Occupied(x, y int) bool {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return true
	}
	return g.cells[y][x]
}

// FreeCells counts unoccupied cells.
func (g *Grid) FreeCells() int {
	n := 0
	for _, row := range g.cells {
		for _, c := range row {
			if !c {
				n++
			}
		}
	}
	return n
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{rows: g.rows, cols: g.cols, cells: make([][]bool, g.rows)}
	for y, row := range g.cells {
		out.cells[y] = append([]bool(nil), row...)
	}
	return out
}

// canPlaceAt checks bounds and collisions for a w x h rectangle at (x, y).
func (g *Grid) canPlaceAt(x, y, w, h int) bool {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > g.cols || y+h > g.rows {
		return false
	}
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			if g.cells[ty][tx] {
				return false
			}
		}
	}
	return true
}

func (g *Grid) rowFull(y int) bool {
	for _, c := range g.cells[y] {
		if !c {
			return false
		}
	}
	return true
}

// FindFreeRegion scans origins row-major and returns the first one where a
// w x h footprint fits. At each origin the unrotated footprint is tried
// before the rotated one. ok is false when nothing fits.
func (g *Grid) FindFreeRegion(w, h int) (x, y int, rotated, ok bool) {
	if w <= 0 || h <= 0 || g.rows == 0 || g.cols == 0 {
		return 0, 0, false, false
	}
	for y = 0; y < g.rows; y++ {
		if g.rowFull(y) {
			continue
		}
		for x = 0; x < g.cols; x++ {
			if g.canPlaceAt(x, y, w, h) {
				return x, y, false, true
			}
			if w != h && g.canPlaceAt(x, y, h, w) {
				return x, y, true, true
			}
		}
	}
	return 0, 0, false, false
}

// FillRegion marks the footprint at (x, y) occupied. Nothing is written
// when any target cell is taken or outside the grid.
func (g *Grid) FillRegion(x, y, w, h int, rotated bool) error {
	if rotated {
		w, h = h, w
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > g.cols || y+h > g.rows {
		return fmt.Errorf("%w: %dx%d at (%d, %d) in %dx%d grid", ErrOutOfBounds, w, h, x, y, g.cols, g.rows)
	}
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			if g.cells[ty][tx] {
				return fmt.Errorf("%w: (%d, %d) while filling %dx%d at (%d, %d)", ErrCellOccupied, tx, ty, w, h, x, y)
			}
		}
	}
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			g.cells[ty][tx] = true
		}
	}
	return nil
}

// GridSize resolves the rows and columns of slot on containerID: the stash
// and sorting table of o, or a grid declared by the container's template.
func (e *Engine) GridSize(o *Owner, containerID, slot string) (rows, cols int, ok bool) {
	return e.gridSize(o, containerID, slot)
}

// BuildOccupancy derives the occupancy of containerID from the tree.
// Children without a location are ignored. A child whose footprint leaves
// the grid is logged and skipped; overlapping children are logged.
func (e *Engine) BuildOccupancy(containerID string, rows, cols int, tree *Tree) *Grid {
	return e.buildOccupancy(containerID, "", rows, cols, tree, nil)
}

// buildOccupancy stamps the children of containerID sitting in slot. An
// empty slot takes every child.
func (e *Engine) buildOccupancy(containerID, slot string, rows, cols int, tree *Tree, skip map[string]bool) *Grid {
	g := NewGrid(rows, cols)
	for _, child := range tree.Children(containerID) {
		if child.Location == nil || skip[child.ID] {
			continue
		}
		if slot != "" && child.SlotID != slot {
			continue
		}
		w, h := e.ResolveFootprint(child.ID, tree)
		if child.Location.Rotated() {
			w, h = h, w
		}
		x, y := child.Location.X, child.Location.Y
		log := e.log.WithFields(logrus.Fields{
			"container_id": containerID,
			"item_id":      child.ID,
			"x":            x,
			"y":            y,
			"w":            w,
			"h":            h,
		})
		if x < 0 || y < 0 || x+w > cols || y+h > rows {
			log.Error("stored placement out of container bounds, skipping")
			continue
		}
		overlaps := 0
		for ty := y; ty < y+h; ty++ {
			for tx := x; tx < x+w; tx++ {
				if g.cells[ty][tx] {
					overlaps++
				}
				g.cells[ty][tx] = true
			}
		}
		if overlaps > 0 {
			log.WithField("cells", overlaps).Error("stored placement overlaps another item")
		}
	}
	return g
}
