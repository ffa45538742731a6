// Package inventory implements the item tree of a profile together with the
// rules that size, place and move items inside grid containers. It knows
// nothing about trading, mail or persistence; those layers hand it owners
// and read back the resulting Changes.
package inventory

import (
	"fmt"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// OwnerKind tags where an item tree comes from.
type OwnerKind int

const (
	// OwnerPMC is the main character of a profile.
	OwnerPMC OwnerKind = iota
	// OwnerScav is the secondary character of a profile.
	OwnerScav
	// OwnerMail is the reward list of a single mail message.
	OwnerMail
)

// String returns a human-readable representation of the owner kind.
func (k OwnerKind) String() string {
	switch k {
	case OwnerPMC:
		return "pmc"
	case OwnerScav:
		return "scav"
	case OwnerMail:
		return "mail"
	default:
		return "unknown"
	}
}

// Owner is a resolved item tree plus the bookkeeping attached to it.
// Character is set for PMC and Scav owners; Dialogue and Message for mail.
type Owner struct {
	Kind      OwnerKind
	Tree      *Tree
	Character *models.Character
	Dialogue  *models.Dialogue
	Message   *models.Message
}

// NewCharacterOwner builds an owner over a character's inventory.
func NewCharacterOwner(kind OwnerKind, ch *models.Character) *Owner {
	return &Owner{Kind: kind, Tree: NewTree(ch.Inventory.Items), Character: ch}
}

// NewMailOwner builds an owner over the reward items of a message.
func NewMailOwner(d *models.Dialogue, m *models.Message) *Owner {
	return &Owner{Kind: OwnerMail, Tree: NewTree(m.Items), Dialogue: d, Message: m}
}

// IsMail reports whether the owner is a mail source.
func (o *Owner) IsMail() bool { return o.Kind == OwnerMail }

// Commit writes the tree back into the record it was built from.
func (o *Owner) Commit() {
	switch {
	case o.Character != nil:
		o.Character.Inventory.Items = o.Tree.Items()
	case o.Message != nil:
		o.Message.Items = o.Tree.Items()
	}
}

func (o *Owner) stashID() string {
	if o.Character == nil {
		return ""
	}
	return o.Character.Inventory.Stash
}

func (o *Owner) sortingTableID() string {
	if o.Character == nil {
		return ""
	}
	return o.Character.Inventory.SortingTable
}

// Placement is the outcome of a single allocation attempt.
type Placement struct {
	OK          bool
	ContainerID string
	X, Y        int
	Rotated     bool
	Reason      string
}

// Location converts the placement into an item location.
func (p Placement) Location() *models.Location {
	r := models.RotationHorizontal
	if p.Rotated {
		r = models.RotationVertical
	}
	return &models.Location{X: p.X, Y: p.Y, R: r}
}

// Warning is a non-fatal problem surfaced to the caller's error convention.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Changes collects what a request did to an owner's items.
type Changes struct {
	New      []models.Item `json:"new,omitempty"`
	Changed  []models.Item `json:"change,omitempty"`
	Deleted  []string      `json:"del,omitempty"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// AddNew records newly created items.
func (c *Changes) AddNew(items ...models.Item) {
	for _, it := range items {
		c.New = append(c.New, it.Clone())
	}
}

// AddChanged records an item whose state changed. A later record replaces
// an earlier one with the same id.
func (c *Changes) AddChanged(it models.Item) {
	for i := range c.New {
		if c.New[i].ID == it.ID {
			c.New[i] = it.Clone()
			return
		}
	}
	for i := range c.Changed {
		if c.Changed[i].ID == it.ID {
			c.Changed[i] = it.Clone()
			return
		}
	}
	c.Changed = append(c.Changed, it.Clone())
}

// AddDeleted records a removed root id and drops it from New and Changed.
func (c *Changes) AddDeleted(id string) {
	c.New = dropByID(c.New, id)
	c.Changed = dropByID(c.Changed, id)
	for _, d := range c.Deleted {
		if d == id {
			return
		}
	}
	c.Deleted = append(c.Deleted, id)
}

// Warn appends a warning.
func (c *Changes) Warn(code, format string, args ...any) {
	c.Warnings = append(c.Warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Merge folds other into c.
func (c *Changes) Merge(other *Changes) {
	if other == nil {
		return
	}
	c.AddNew(other.New...)
	for _, it := range other.Changed {
		c.AddChanged(it)
	}
	for _, id := range other.Deleted {
		c.AddDeleted(id)
	}
	c.Warnings = append(c.Warnings, other.Warnings...)
}

// Empty reports whether nothing was recorded.
func (c *Changes) Empty() bool {
	return len(c.New) == 0 && len(c.Changed) == 0 && len(c.Deleted) == 0 && len(c.Warnings) == 0
}

func dropByID(items []models.Item, id string) []models.Item {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
