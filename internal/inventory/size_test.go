package inventory

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

func folded() *models.Upd {
	return &models.Upd{Foldable: &models.Foldable{Folded: true}}
}

func rifleTree(rootUpd *models.Upd, children ...models.Item) *Tree {
	items := append([]models.Item{{ID: "rifle", Tpl: SampleRifle, Upd: rootUpd}}, children...)
	return NewTree(items)
}

func TestResolveFootprintBaseSize(t *testing.T) {
	e, _ := newTestEngine(t, SampleCatalog())
	w, h := e.ResolveFootprint("rifle", rifleTree(nil))
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
}

func TestResolveFootprintAttachments(t *testing.T) {
	e, _ := newTestEngine(t, SampleCatalog())
	tree := rifleTree(nil,
		models.Item{ID: "stock", Tpl: SampleStock, ParentID: "rifle", SlotID: "mod_stock"},
		models.Item{ID: "mag", Tpl: SampleMagazine, ParentID: "rifle", SlotID: "mod_magazine"},
	)
	w, h := e.ResolveFootprint("rifle", tree)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	w2, h2 := e.ResolveFootprint("rifle", tree)
	assert.Equal(t, w, w2, "repeated calls must agree")
	assert.Equal(t, h, h2, "repeated calls must agree")
}

func TestResolveFootprintFoldedStockIgnored(t *testing.T) {
	e, _ := newTestEngine(t, SampleCatalog())
	tree := rifleTree(folded(),
		models.Item{ID: "stock", Tpl: SampleStock, ParentID: "rifle", SlotID: "mod_stock"},
		models.Item{ID: "mag", Tpl: SampleMagazine, ParentID: "rifle", SlotID: "mod_magazine"},
	)
	w, h := e.ResolveFootprint("rifle", tree)
	assert.Equal(t, 3, w)
	assert.Equal(t, 3, h)
}

func TestResolveFootprintForcedSumsNonForcedMax(t *testing.T) {
	reg := SampleCatalog()
	_ = reg.Register(Template{ID: "scope", Class: ClassMod, Width: 1, Height: 1, ExtraSizeRight: 1})
	e, _ := newTestEngine(t, reg)

	tree := rifleTree(nil,
		models.Item{ID: "stock", Tpl: SampleStock, ParentID: "rifle", SlotID: "mod_stock"},
		models.Item{ID: "scope", Tpl: "scope", ParentID: "rifle", SlotID: "mod_scope"},
		models.Item{ID: "pbs-1", Tpl: SampleSuppressor, ParentID: "rifle", SlotID: "mod_muzzle"},
		models.Item{ID: "pbs-2", Tpl: SampleSuppressor, ParentID: "pbs-1", SlotID: "mod_muzzle"},
	)
	w, h := e.ResolveFootprint("rifle", tree)
	// base 3 + max(stock, scope) 1 + two forced suppressors 2
	assert.Equal(t, 6, w)
	assert.Equal(t, 2, h)
}

func TestResolveFootprintIgnoresNonModSlots(t *testing.T) {
	e, _ := newTestEngine(t, SampleCatalog())
	tree := rifleTree(nil,
		models.Item{ID: "mag", Tpl: SampleMagazine, ParentID: "rifle", SlotID: "patron_in_weapon"},
	)
	w, h := e.ResolveFootprint("rifle", tree)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
}

func TestResolveFootprintPlainContainerSkipsWalk(t *testing.T) {
	e, _ := newTestEngine(t, SampleCatalog())
	tree := NewTree([]models.Item{
		{ID: "bag", Tpl: SampleBackpack},
		{ID: "mag", Tpl: SampleMagazine, ParentID: "bag", SlotID: "mod_magazine"},
	})
	w, h := e.ResolveFootprint("bag", tree)
	assert.Equal(t, 4, w)
	assert.Equal(t, 5, h)
}

func TestResolveFootprintFoldReduction(t *testing.T) {
	reg := NewRegistry(
		Template{ID: "smg", Class: ClassWeapon, Width: 3, Height: 1, Foldable: true, SizeReduceRight: 1},
		Template{ID: "stub", Class: ClassWeapon, Width: 2, Height: 1, Foldable: true, SizeReduceRight: 5},
	)
	e, _ := newTestEngine(t, reg)

	w, h := e.ResolveFootprint("smg", NewTree([]models.Item{{ID: "smg", Tpl: "smg", Upd: folded()}}))
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)

	w, _ = e.ResolveFootprint("smg", NewTree([]models.Item{{ID: "smg", Tpl: "smg"}}))
	assert.Equal(t, 3, w, "unfolded weapon keeps its width")

	w, _ = e.ResolveFootprint("stub", NewTree([]models.Item{{ID: "stub", Tpl: "stub", Upd: folded()}}))
	assert.Equal(t, 1, w, "footprint never drops below one cell")
}

func TestResolveFootprintMissingDataDefaults(t *testing.T) {
	e, hook := newTestEngine(t, SampleCatalog())

	w, h := e.ResolveFootprint("ghost", NewTree(nil))
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	w, h = e.ResolveFootprint("x", NewTree([]models.Item{{ID: "x", Tpl: "unknown"}}))
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, 2, loggedAt(hook, logrus.ErrorLevel))

	tree := rifleTree(nil, models.Item{ID: "odd", Tpl: "unknown", ParentID: "rifle", SlotID: "mod_tactical"})
	w, h = e.ResolveFootprint("rifle", tree)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 1, loggedAt(hook, logrus.WarnLevel))
}
