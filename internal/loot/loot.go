// Package loot opens random loot containers: the container item is consumed
// and replaced by rewards rolled from a weighted table.
package loot

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/config"
	"github.com/gravitas-games/stashkeeper/internal/inventory"
	"github.com/gravitas-games/stashkeeper/pkg/logger"
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

var (
	// ErrNotLootContainer is returned when the opened item is not a random loot container.
	ErrNotLootContainer = errors.New("loot: item is not a loot container")
	// ErrNoTable is returned when no reward table is configured for the container.
	ErrNoTable = errors.New("loot: no reward table for container")
)

// Opener rolls and places loot container rewards.
type Opener struct {
	engine *inventory.Engine
	tables map[string]config.LootTable
	log    logrus.FieldLogger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOpener creates an opener. rng is shared across calls and guarded
// internally; pass a seeded source for reproducible rolls.
func NewOpener(engine *inventory.Engine, tables map[string]config.LootTable, rng *rand.Rand, log logrus.FieldLogger) *Opener {
	return &Opener{engine: engine, tables: tables, rng: rng, log: logger.Component(log, "loot")}
}

// Roll draws the rewards of one container template without placing them.
func (l *Opener) Roll(tpl string) ([]models.Item, error) {
	table, ok := l.tables[tpl]
	if !ok || len(table.Rewards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, tpl)
	}
	total := 0
	for _, r := range table.Rewards {
		total += max(r.Weight, 0)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %s has no positive weights", ErrNoTable, tpl)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Item, 0, table.Rolls)
	for i := 0; i < table.Rolls; i++ {
		pick := l.rng.Intn(total)
		for _, r := range table.Rewards {
			w := max(r.Weight, 0)
			if pick >= w {
				pick -= w
				continue
			}
			it := models.Item{ID: l.engine.NewID(), Tpl: r.Tpl}
			lo := max(r.Min, 1)
			hi := max(r.Max, lo)
			if n := lo + l.rng.Intn(hi-lo+1); n > 1 {
				it.SetStackCount(n)
			}
			out = append(out, it)
			break
		}
	}
	return out, nil
}

// Open consumes the container itemID and places its rewards in o's stash,
// overflowing into the sorting table. When the rewards do not fit the
// container is left where it was.
func (l *Opener) Open(o *inventory.Owner, itemID string) (*inventory.Changes, error) {
	container, ok := o.Tree.Get(itemID)
	if !ok {
		changes := &inventory.Changes{}
		changes.Warn("item_not_found", "open: item %s not found", itemID)
		l.log.WithField("item_id", itemID).Warn("loot container not found")
		return changes, nil
	}
	tpl, ok := l.engine.Catalog().Lookup(container.Tpl)
	if !ok || tpl.Class != inventory.ClassLootContainer {
		return nil, fmt.Errorf("%w: %s", ErrNotLootContainer, container.Tpl)
	}
	rewards, err := l.Roll(container.Tpl)
	if err != nil {
		return nil, err
	}

	saved := o.Tree.Group(itemID)
	var insured []models.InsuredItem
	if o.Character != nil {
		insured = append(insured, o.Character.InsuredItems...)
	}
	changes := l.engine.Remove(o, itemID)

	placed, err := l.engine.PlaceItems(o, inventory.PlaceRequest{
		Groups:          l.engine.StackGroups(rewards),
		FoundInRaid:     true,
		UseSortingTable: true,
	})
	if err != nil {
		var cbErr *inventory.CallbackError
		if errors.As(err, &cbErr) {
			changes.Merge(placed)
			return changes, err
		}
		if rerr := o.Tree.Add(saved...); rerr != nil {
			l.log.WithError(rerr).WithField("item_id", itemID).Error("failed to restore loot container")
		}
		if o.Character != nil {
			o.Character.InsuredItems = insured
		}
		return placed, err
	}
	changes.Merge(placed)

	l.log.WithFields(logrus.Fields{
		"item_id": itemID,
		"tpl":     container.Tpl,
		"rewards": len(rewards),
	}).Debug("opened loot container")
	return changes, nil
}
