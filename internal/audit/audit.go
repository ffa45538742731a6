// Package audit checks stored profiles for inventory corruption: items on
// unknown templates, items whose parent is gone or loops back on itself, and
// grid placements that overlap or leave their container.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/inventory"
	"github.com/gravitas-games/stashkeeper/internal/profile"
	"github.com/gravitas-games/stashkeeper/pkg/logger"
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// Kind classifies a finding.
type Kind string

const (
	KindMissingTemplate Kind = "missing_template"
	KindOrphan          Kind = "orphan"
	KindOverlap         Kind = "overlap"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindCycle           Kind = "cycle"
)

// Finding is one problem in one item.
type Finding struct {
	ProfileID   string `json:"profileId"`
	Owner       string `json:"owner"`
	Kind        Kind   `json:"kind"`
	ItemID      string `json:"itemId"`
	Tpl         string `json:"tpl,omitempty"`
	ContainerID string `json:"containerId,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Report summarizes a full run.
type Report struct {
	Profiles int       `json:"profiles"`
	Items    int       `json:"items"`
	Findings []Finding `json:"findings"`
}

// Counts tallies findings per kind.
func (r *Report) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}

// Auditor inspects profiles from a store.
type Auditor struct {
	store  profile.Store
	engine *inventory.Engine
	log    logrus.FieldLogger
}

// New creates an auditor.
func New(store profile.Store, engine *inventory.Engine, log logrus.FieldLogger) *Auditor {
	return &Auditor{store: store, engine: engine, log: logger.Component(log, "audit")}
}

// Run audits every stored profile. Profiles that fail to load are logged
// and skipped.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	ids, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p, err := a.store.Get(ctx, id)
		if err != nil {
			a.log.WithError(err).WithField("profile_id", id).Error("failed to load profile")
			continue
		}
		report.Profiles++
		report.Items += len(p.PMC.Inventory.Items) + len(p.Scav.Inventory.Items)
		report.Findings = append(report.Findings, a.Profile(p)...)
	}
	a.log.WithFields(logrus.Fields{
		"profiles": report.Profiles,
		"items":    report.Items,
		"findings": len(report.Findings),
	}).Info("audit finished")
	return report, nil
}

// Profile audits both characters of p.
func (a *Auditor) Profile(p *models.Profile) []Finding {
	var out []Finding
	out = append(out, a.Character(p.ID, inventory.OwnerPMC, &p.PMC)...)
	out = append(out, a.Character(p.ID, inventory.OwnerScav, &p.Scav)...)
	return out
}

// Character audits one character inventory.
func (a *Auditor) Character(profileID string, kind inventory.OwnerKind, ch *models.Character) []Finding {
	o := inventory.NewCharacterOwner(kind, ch)
	catalog := a.engine.Catalog()
	finding := func(k Kind, it *models.Item, format string, args ...any) Finding {
		return Finding{
			ProfileID:   profileID,
			Owner:       kind.String(),
			Kind:        k,
			ItemID:      it.ID,
			Tpl:         it.Tpl,
			ContainerID: it.ParentID,
			Detail:      fmt.Sprintf(format, args...),
		}
	}

	var out []Finding
	type gridKey struct{ container, slot string }
	var grids []gridKey
	seen := make(map[gridKey]bool)

	for _, it := range o.Tree.Items() {
		it := it
		if _, ok := catalog.Lookup(it.Tpl); !ok {
			out = append(out, finding(KindMissingTemplate, &it, "template %s is not in the catalog", it.Tpl))
		}
		if it.ParentID != "" && !o.Tree.Has(it.ParentID) {
			out = append(out, finding(KindOrphan, &it, "parent %s does not exist", it.ParentID))
			continue
		}
		if o.Tree.InCycle(it.ID) {
			out = append(out, finding(KindCycle, &it, "parent chain loops back through %s", it.ParentID))
			continue
		}
		if it.Location != nil {
			k := gridKey{it.ParentID, it.SlotID}
			if !seen[k] {
				seen[k] = true
				grids = append(grids, k)
			}
		}
	}
	sort.Slice(grids, func(i, j int) bool {
		if grids[i].container != grids[j].container {
			return grids[i].container < grids[j].container
		}
		return grids[i].slot < grids[j].slot
	})

	for _, k := range grids {
		rows, cols, ok := a.engine.GridSize(o, k.container, k.slot)
		if !ok {
			continue
		}
		g := inventory.NewGrid(rows, cols)
		for _, child := range o.Tree.Children(k.container) {
			if child.Location == nil || child.SlotID != k.slot {
				continue
			}
			w, h := a.engine.ResolveFootprint(child.ID, o.Tree)
			err := g.FillRegion(child.Location.X, child.Location.Y, w, h, child.Location.Rotated())
			switch {
			case err == nil:
			case errors.Is(err, inventory.ErrOutOfBounds):
				out = append(out, finding(KindOutOfBounds, child, "%v", err))
			case errors.Is(err, inventory.ErrCellOccupied):
				out = append(out, finding(KindOverlap, child, "%v", err))
			}
		}
	}
	return out
}
