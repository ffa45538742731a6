package inventory

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

func sampleOwner(t *testing.T) (*Engine, *Owner) {
	t.Helper()
	e, _ := newTestEngine(t, SampleCatalog())
	return e, NewCharacterOwner(OwnerPMC, SampleCharacter())
}

func TestMoveWithinStash(t *testing.T) {
	e, o := sampleOwner(t)

	changes, err := e.Move(o, o, "roubles-1", Target{ParentID: "stash", SlotID: models.StashSlot, Location: at(4, 5)})
	require.NoError(t, err)
	require.Len(t, changes.Changed, 1)
	assert.Equal(t, "roubles-1", changes.Changed[0].ID)
	assertNoOverlap(t, e, o)

	_, err = e.Move(o, o, "roubles-1", Target{ParentID: "stash", SlotID: models.StashSlot, Location: at(0, 0)})
	assert.ErrorIs(t, err, ErrNoSpace)
	r, _ := o.Tree.Get("roubles-1")
	assert.Equal(t, 4, r.Location.X, "rejected move leaves the item in place")
	assert.Equal(t, 5, r.Location.Y)

	_, err = e.Move(o, o, "rifle-1", Target{ParentID: "stash", SlotID: models.StashSlot, Location: at(1, 0)})
	require.NoError(t, err, "an item may overlap its own old footprint")
	assertNoOverlap(t, e, o)
}

func TestMoveIntoContainerGrid(t *testing.T) {
	e, o := sampleOwner(t)

	_, err := e.Move(o, o, "roubles-1", Target{ParentID: "backpack-1", SlotID: "main", Location: at(0, 0)})
	assert.ErrorIs(t, err, ErrNoSpace, "medkit already sits at (0, 0)")

	_, err = e.Move(o, o, "roubles-1", Target{ParentID: "backpack-1", SlotID: "main", Location: at(1, 0)})
	require.NoError(t, err)
	assert.Len(t, o.Tree.Children("backpack-1"), 2)
	assertNoOverlap(t, e, o)
}

func TestMoveRejectsCycles(t *testing.T) {
	e, o := sampleOwner(t)
	_, err := e.Move(o, o, "rifle-1", Target{ParentID: "mag-1", SlotID: "mod_x"})
	assert.ErrorIs(t, err, ErrCycle)
	_, err = e.Move(o, o, "rifle-1", Target{ParentID: "rifle-1", SlotID: "mod_x"})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestMoveClearsLocationForSlots(t *testing.T) {
	e, o := sampleOwner(t)
	_, err := e.Move(o, o, "mag-1", Target{ParentID: "equipment", SlotID: "Pockets"})
	require.NoError(t, err)
	mag, _ := o.Tree.Get("mag-1")
	assert.Nil(t, mag.Location)
	assert.Equal(t, "equipment", mag.ParentID)
}

func TestMoveUpdatesFastPanel(t *testing.T) {
	e, o := sampleOwner(t)
	require.NoError(t, o.Tree.Add(
		models.Item{ID: "pockets", Tpl: SampleBackpack, ParentID: "equipment", SlotID: "Pockets"},
		models.Item{ID: "rig", Tpl: SampleBackpack, ParentID: "equipment", SlotID: "TacticalVest"},
	))
	o.Character.Inventory.FastPanel["Item4"] = "medkit-1"

	_, err := e.Move(o, o, "medkit-1", Target{ParentID: "rig", SlotID: "main", Location: at(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, "medkit-1", o.Character.Inventory.FastPanel["Item4"], "vest keeps the binding")

	_, err = e.Move(o, o, "medkit-1", Target{ParentID: "backpack-1", SlotID: "main", Location: at(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, "", o.Character.Inventory.FastPanel["Item4"])
}

func TestMoveAcrossOwners(t *testing.T) {
	reg := SampleCatalog()
	scav := emptyOwner(reg, 10, 10)
	scav.Kind = OwnerScav
	e, _ := newTestEngine(t, reg)
	pmc := NewCharacterOwner(OwnerPMC, SampleCharacter())

	changes, err := e.Move(pmc, scav, "rifle-1", Target{ParentID: "stash", SlotID: models.StashSlot, Location: at(0, 0)})
	require.NoError(t, err)
	assert.Len(t, changes.New, 3)
	assert.False(t, pmc.Tree.Has("rifle-1"))
	assert.False(t, pmc.Tree.Has("stock-1"))
	assert.Equal(t, []string{"rifle-1", "stock-1", "mag-1"}, scav.Tree.Subtree("rifle-1"))
	assertNoOverlap(t, e, scav)
}

func TestSplitMergeRoundTrip(t *testing.T) {
	e, o := sampleOwner(t)

	changes, newID, err := e.Split(o, "roubles-1", 40000, false)
	require.NoError(t, err)
	require.NotEmpty(t, newID)
	require.Len(t, changes.New, 1)
	src, _ := o.Tree.Get("roubles-1")
	split, _ := o.Tree.Get(newID)
	assert.Equal(t, 110000, src.StackCount())
	assert.Equal(t, 40000, split.StackCount())
	assert.Equal(t, "stash", split.ParentID)
	assertNoOverlap(t, e, o)

	changes, err = e.Merge(o, o, newID, "roubles-1")
	require.NoError(t, err)
	assert.Equal(t, []string{newID}, changes.Deleted)
	src, _ = o.Tree.Get("roubles-1")
	assert.Equal(t, 150000, src.StackCount())
	assert.False(t, o.Tree.Has(newID))
}

func TestSplitRejectsBadCounts(t *testing.T) {
	e, o := sampleOwner(t)
	for _, n := range []int{0, -1, 150000, 200000} {
		_, _, err := e.Split(o, "roubles-1", n, false)
		assert.ErrorIs(t, err, ErrInvalidCount, "count %d", n)
	}
	src, _ := o.Tree.Get("roubles-1")
	assert.Equal(t, 150000, src.StackCount())
}

func TestSplitWithoutSpaceKeepsSource(t *testing.T) {
	reg := SampleCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 1, 1)
	require.NoError(t, o.Tree.Add(models.Item{ID: "bolts", Tpl: SampleBolts, ParentID: "stash", SlotID: models.StashSlot,
		Location: at(0, 0), Upd: &models.Upd{StackObjectsCount: 4}}))

	_, _, err := e.Split(o, "bolts", 2, false)
	assert.ErrorIs(t, err, ErrNoSpace)
	b, _ := o.Tree.Get("bolts")
	assert.Equal(t, 4, b.StackCount())
}

func TestMergeRules(t *testing.T) {
	e, o := sampleOwner(t)
	require.NoError(t, o.Tree.Add(
		models.Item{ID: "rub-2", Tpl: SampleRoubles, ParentID: "stash", SlotID: models.StashSlot, Location: at(9, 1),
			Upd: &models.Upd{StackObjectsCount: 10}},
	))
	r1, _ := o.Tree.Get("roubles-1")
	r1.Upd.SpawnedInSession = true

	_, err := e.Merge(o, o, "rub-2", "rifle-1")
	assert.ErrorIs(t, err, ErrTemplateMismatch)

	_, err = e.Merge(o, o, "rub-2", "roubles-1")
	require.NoError(t, err)
	assert.Equal(t, 150010, r1.StackCount())
	assert.False(t, r1.Upd.SpawnedInSession)

	changes, err := e.Merge(o, o, "rub-2", "roubles-1")
	require.NoError(t, err, "missing source is a no-op")
	require.Len(t, changes.Warnings, 1)
	assert.Equal(t, "item_not_found", changes.Warnings[0].Code)
}

func TestTransferCount(t *testing.T) {
	e, o := sampleOwner(t)
	require.NoError(t, o.Tree.Add(
		models.Item{ID: "rub-2", Tpl: SampleRoubles, ParentID: "stash", SlotID: models.StashSlot, Location: at(9, 1),
			Upd: &models.Upd{StackObjectsCount: 10}},
	))

	_, err := e.TransferCount(o, "rub-2", "roubles-1", 4)
	require.NoError(t, err)
	r2, _ := o.Tree.Get("rub-2")
	assert.Equal(t, 6, r2.StackCount())

	changes, err := e.TransferCount(o, "rub-2", "roubles-1", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"rub-2"}, changes.Deleted)
	r1, _ := o.Tree.Get("roubles-1")
	assert.Equal(t, 150010, r1.StackCount())

	_, err = e.TransferCount(o, "roubles-1", "rifle-1", 1)
	assert.ErrorIs(t, err, ErrTemplateMismatch)
}

func TestSwap(t *testing.T) {
	e, o := sampleOwner(t)

	_, err := e.Swap(o, "roubles-1", "medkit-1")
	require.NoError(t, err)
	rub, _ := o.Tree.Get("roubles-1")
	med, _ := o.Tree.Get("medkit-1")
	assert.Equal(t, "backpack-1", rub.ParentID)
	assert.Equal(t, "main", rub.SlotID)
	assert.Equal(t, "stash", med.ParentID)
	assert.Equal(t, 9, med.Location.X)
	assertNoOverlap(t, e, o)

	_, err = e.Swap(o, "rifle-1", "mag-1")
	assert.ErrorIs(t, err, ErrCycle)

	_, err = e.Swap(o, "rifle-1", "medkit-1")
	assert.ErrorIs(t, err, ErrNoSpace, "the rifle does not fit the medkit's cell")
	rifle, _ := o.Tree.Get("rifle-1")
	assert.Equal(t, 0, rifle.Location.X)
}

func TestRemoveCascadesAndIsIdempotent(t *testing.T) {
	e, hook := newTestEngine(t, SampleCatalog())
	ch := SampleCharacter()
	ch.InsuredItems = []models.InsuredItem{{TID: "prapor", ItemID: "stock-1"}, {TID: "prapor", ItemID: "backpack-1"}}
	o := NewCharacterOwner(OwnerPMC, ch)
	before := o.Tree.Len()

	changes := e.Remove(o, "rifle-1")
	assert.Equal(t, []string{"rifle-1"}, changes.Deleted)
	assert.Equal(t, before-3, o.Tree.Len())
	assert.True(t, o.Tree.Has("backpack-1"))
	assert.Equal(t, []models.InsuredItem{{TID: "prapor", ItemID: "backpack-1"}}, ch.InsuredItems)

	again := e.Remove(o, "rifle-1")
	assert.True(t, again.Empty())
	assert.Equal(t, before-3, o.Tree.Len())
	assert.Zero(t, loggedAt(hook, logrus.ErrorLevel))
}

func TestRemoveByCount(t *testing.T) {
	e, o := sampleOwner(t)
	require.NoError(t, o.Tree.Add(
		models.Item{ID: "b1", Tpl: SampleBolts, ParentID: "stash", SlotID: models.StashSlot, Location: at(4, 5), Upd: &models.Upd{StackObjectsCount: 3}},
		models.Item{ID: "b2", Tpl: SampleBolts, ParentID: "stash", SlotID: models.StashSlot, Location: at(5, 5), Upd: &models.Upd{StackObjectsCount: 5}},
	))

	_, err := e.RemoveByCount(o, []string{"b1", "b2"}, 9)
	assert.ErrorIs(t, err, ErrInsufficient)
	assert.True(t, o.Tree.Has("b1"))

	changes, err := e.RemoveByCount(o, []string{"b1", "b2"}, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, changes.Deleted)
	b2, _ := o.Tree.Get("b2")
	assert.Equal(t, 4, b2.StackCount())

	_, err = e.RemoveByCount(o, []string{"b2"}, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestTransferFromMail(t *testing.T) {
	e, pmc := sampleOwner(t)
	d := &models.Dialogue{ID: "prapor", AttachmentsNew: 1}
	m := &models.Message{ID: "m1", HasRewards: true, Items: []models.Item{
		{ID: "reward-rifle", Tpl: SampleRifle, ParentID: "mail", SlotID: "main"},
		{ID: "reward-mag", Tpl: SampleMagazine, ParentID: "reward-rifle", SlotID: "mod_magazine"},
		{ID: "reward-med", Tpl: SampleMedkit, ParentID: "mail", SlotID: "main"},
	}}
	d.Messages = []*models.Message{m}
	mail := NewMailOwner(d, m)

	_, err := e.Transfer(pmc, mail, "medkit-1", Target{})
	assert.ErrorIs(t, err, ErrNotMail)

	changes, err := e.Transfer(mail, pmc, "reward-rifle", Target{})
	require.NoError(t, err)
	assert.Len(t, changes.New, 2)
	rifle, _ := pmc.Tree.Get("reward-rifle")
	assert.Equal(t, "stash", rifle.ParentID)
	assert.NotNil(t, rifle.Location)
	assert.Len(t, m.Items, 1)
	assert.False(t, m.RewardCollected)
	assertNoOverlap(t, e, pmc)

	_, err = e.Transfer(mail, pmc, "reward-med", Target{ParentID: "backpack-1", SlotID: "main", Location: at(1, 0)})
	require.NoError(t, err)
	assert.Empty(t, m.Items)
	assert.True(t, m.RewardCollected)
	assert.False(t, m.HasRewards)
	assert.Zero(t, d.AttachmentsNew)
}

func TestMoveIntoSiblingGrid(t *testing.T) {
	reg := SampleCatalog()
	require.NoError(t, reg.Register(Template{ID: "rig_2grid", Class: ClassBackpack, Width: 2, Height: 2,
		Grids: []GridProps{{Name: "main", CellsH: 1, CellsV: 1}, {Name: "1", CellsH: 1, CellsV: 1}}}))
	e, hook := newTestEngine(t, reg)
	o := NewCharacterOwner(OwnerPMC, SampleCharacter())
	require.NoError(t, o.Tree.Add(
		models.Item{ID: "rig", Tpl: "rig_2grid", ParentID: "stash", SlotID: models.StashSlot, Location: at(4, 5)},
		models.Item{ID: "bolt-a", Tpl: SampleBolts, ParentID: "rig", SlotID: "main", Location: at(0, 0)},
		models.Item{ID: "bolt-b", Tpl: SampleBolts, ParentID: "stash", SlotID: models.StashSlot, Location: at(7, 5)},
	))

	_, err := e.Move(o, o, "bolt-b", Target{ParentID: "rig", SlotID: "1", Location: at(0, 0)})
	require.NoError(t, err, "the \"main\" grid does not occupy grid \"1\"")
	assertNoOverlap(t, e, o)

	_, err = e.Move(o, o, "roubles-1", Target{ParentID: "rig", SlotID: "1", Location: at(0, 0)})
	assert.ErrorIs(t, err, ErrNoSpace)

	_, err = e.Swap(o, "bolt-a", "medkit-1")
	require.NoError(t, err)
	med, _ := o.Tree.Get("medkit-1")
	assert.Equal(t, "rig", med.ParentID)
	assert.Equal(t, "main", med.SlotID)
	assertNoOverlap(t, e, o)
	assert.Zero(t, loggedAt(hook, logrus.ErrorLevel))
}

func TestMoveToRootClearsFastPanel(t *testing.T) {
	e, o := sampleOwner(t)
	require.Equal(t, "medkit-1", o.Character.Inventory.FastPanel["Item4"])

	_, err := e.Move(o, o, "medkit-1", Target{})
	require.NoError(t, err)
	med, _ := o.Tree.Get("medkit-1")
	assert.Empty(t, med.ParentID)
	assert.Equal(t, "", o.Character.Inventory.FastPanel["Item4"])
}

func TestRemoveByCountCountsEachStackOnce(t *testing.T) {
	e, o := sampleOwner(t)

	_, err := e.RemoveByCount(o, []string{"roubles-1", "roubles-1"}, 200000)
	assert.ErrorIs(t, err, ErrInsufficient)
	r, _ := o.Tree.Get("roubles-1")
	assert.Equal(t, 150000, r.StackCount())

	changes, err := e.RemoveByCount(o, []string{"roubles-1", "roubles-1"}, 100000)
	require.NoError(t, err)
	assert.Empty(t, changes.Deleted)
	assert.Equal(t, 50000, r.StackCount())

	_, err = e.RemoveByCount(o, []string{"rifle-1", "mag-1"}, 2)
	assert.ErrorIs(t, err, ErrInsufficient, "mag-1 goes with rifle-1")
	assert.True(t, o.Tree.Has("mag-1"))
}

func TestRemoveParentCycle(t *testing.T) {
	reg := SampleCatalog()
	e, hook := newTestEngine(t, reg)
	o := emptyOwner(reg, 4, 4)
	require.NoError(t, o.Tree.Add(
		models.Item{ID: "a", Tpl: SampleRifle, ParentID: "b", SlotID: "mod_mount"},
		models.Item{ID: "b", Tpl: SampleStock, ParentID: "a", SlotID: "mod_stock"},
	))
	before := o.Tree.Len()

	w, h := e.ResolveFootprint("a", o.Tree)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)

	changes := e.Remove(o, "a")
	assert.Equal(t, []string{"a"}, changes.Deleted)
	assert.Equal(t, before-2, o.Tree.Len())
	assert.False(t, o.Tree.Has("b"))
	assert.GreaterOrEqual(t, loggedAt(hook, logrus.ErrorLevel), 2)
}
