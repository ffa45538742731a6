package models

// Rotation of an item placed in a grid container.
type Rotation string

const (
	RotationHorizontal Rotation = "Horizontal"
	RotationVertical   Rotation = "Vertical"
)

// Location is the grid anchor of an item whose parent is a grid container.
// Origin is the top-left cell.
type Location struct {
	X          int      `json:"x" yaml:"x"`
	Y          int      `json:"y" yaml:"y"`
	R          Rotation `json:"r" yaml:"r"`
	IsSearched bool     `json:"isSearched,omitempty" yaml:"isSearched,omitempty"`
}

// Rotated reports whether width and height are swapped on the grid.
func (l *Location) Rotated() bool {
	return l != nil && l.R == RotationVertical
}

// Foldable holds the folded state of stocks and folding weapons.
type Foldable struct {
	Folded bool `json:"Folded"`
}

// Togglable holds the on/off state of devices such as tactical lights.
type Togglable struct {
	On bool `json:"On"`
}

// Repairable holds durability.
type Repairable struct {
	Durability    float64 `json:"Durability"`
	MaxDurability float64 `json:"MaxDurability"`
}

// Upd is the mutable state block of an item.
type Upd struct {
	StackObjectsCount int         `json:"StackObjectsCount,omitempty"`
	SpawnedInSession  bool        `json:"SpawnedInSession,omitempty"`
	Foldable          *Foldable   `json:"Foldable,omitempty"`
	Togglable         *Togglable  `json:"Togglable,omitempty"`
	Repairable        *Repairable `json:"Repairable,omitempty"`

	// Trader and flea only. Never survive placement into a player tree.
	UnlimitedCount        bool `json:"UnlimitedCount,omitempty"`
	BuyRestrictionMax     int  `json:"BuyRestrictionMax,omitempty"`
	BuyRestrictionCurrent int  `json:"BuyRestrictionCurrent,omitempty"`
}

// Item is a single record of an item tree. ParentID is empty for roots.
type Item struct {
	ID       string    `json:"_id"`
	Tpl      string    `json:"_tpl"`
	ParentID string    `json:"parentId,omitempty"`
	SlotID   string    `json:"slotId,omitempty"`
	Location *Location `json:"location,omitempty"`
	Upd      *Upd      `json:"upd,omitempty"`
}

// StackCount returns the stack size; items without state count as one.
func (it *Item) StackCount() int {
	if it.Upd == nil || it.Upd.StackObjectsCount <= 0 {
		return 1
	}
	return it.Upd.StackObjectsCount
}

// SetStackCount ensures an Upd block exists and writes the count.
func (it *Item) SetStackCount(n int) {
	if it.Upd == nil {
		it.Upd = &Upd{}
	}
	it.Upd.StackObjectsCount = n
}

// Folded reports the item's own folded flag.
func (it *Item) Folded() bool {
	return it.Upd != nil && it.Upd.Foldable != nil && it.Upd.Foldable.Folded
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	out := it
	if it.Location != nil {
		loc := *it.Location
		out.Location = &loc
	}
	if it.Upd != nil {
		upd := *it.Upd
		if it.Upd.Foldable != nil {
			f := *it.Upd.Foldable
			upd.Foldable = &f
		}
		if it.Upd.Togglable != nil {
			t := *it.Upd.Togglable
			upd.Togglable = &t
		}
		if it.Upd.Repairable != nil {
			r := *it.Upd.Repairable
			upd.Repairable = &r
		}
		out.Upd = &upd
	}
	return out
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
