package inventory

import (
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// IDGenerator hands out unique item ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces 24 hex character ids from random UUIDs.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:12])
}

// ReplaceIDs returns a copy of an item group with fresh ids. Parent links
// inside the group follow the new ids; links pointing outside are kept.
func ReplaceIDs(items []models.Item, gen IDGenerator) []models.Item {
	remap := make(map[string]string, len(items))
	for _, it := range items {
		remap[it.ID] = gen.NewID()
	}
	out := models.CloneItems(items)
	for i := range out {
		out[i].ID = remap[out[i].ID]
		if p, ok := remap[out[i].ParentID]; ok {
			out[i].ParentID = p
		}
	}
	return out
}

// ReplaceIDs regenerates ids with the engine's generator.
func (e *Engine) ReplaceIDs(items []models.Item) []models.Item {
	return ReplaceIDs(items, e.ids)
}
