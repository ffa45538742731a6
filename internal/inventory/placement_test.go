package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

func placementCatalog() *Registry {
	reg := SampleCatalog()
	_ = reg.Register(Template{ID: "box_2x2", Width: 2, Height: 2})
	_ = reg.Register(Template{ID: "bar_1x3", Width: 3, Height: 1})
	return reg
}

func TestPlaceItemsRowMajorScenario(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 10, 66)

	changes, err := e.PlaceItems(o, PlaceRequest{Groups: [][]models.Item{{{ID: "box", Tpl: "box_2x2"}}}})
	require.NoError(t, err)
	require.Len(t, changes.New, 1)
	box, _ := o.Tree.Get("box")
	assert.Equal(t, "stash", box.ParentID)
	assert.Equal(t, models.StashSlot, box.SlotID)
	assert.Equal(t, 0, box.Location.X)
	assert.Equal(t, 0, box.Location.Y)
	assert.False(t, box.Location.Rotated())

	_, err = e.PlaceItems(o, PlaceRequest{Groups: [][]models.Item{{{ID: "bar", Tpl: "bar_1x3"}}}})
	require.NoError(t, err)
	bar, _ := o.Tree.Get("bar")
	assert.Equal(t, 2, bar.Location.X)
	assert.Equal(t, 0, bar.Location.Y)
	assert.False(t, bar.Location.Rotated())

	removed := e.Remove(o, "box")
	assert.Equal(t, []string{"box"}, removed.Deleted)

	g := e.BuildOccupancy("stash", 66, 10, o.Tree)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.False(t, g.Occupied(x, y), "cell (%d, %d) should be free", x, y)
		}
	}
	for x := 2; x < 5; x++ {
		assert.True(t, g.Occupied(x, 0))
	}
}

func TestPlaceItemsAppliesStashBonus(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 2, 2)

	groups := [][]models.Item{{{ID: "a", Tpl: "box_2x2"}}, {{ID: "b", Tpl: "box_2x2"}}}
	_, err := e.Plan(o, groups, false)
	assert.ErrorIs(t, err, ErrNoSpace)

	o.Character.Bonuses.StashRows = 2
	placements, err := e.Plan(o, groups, false)
	require.NoError(t, err)
	assert.Equal(t, 2, placements[1].Y)
}

func TestPlaceItemsBatchIsAtomic(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 2, 3)
	before := o.Tree.Len()

	groups := [][]models.Item{
		{{ID: "a", Tpl: "box_2x2"}},
		{{ID: "b", Tpl: "box_2x2"}},
	}
	changes, err := e.PlaceItems(o, PlaceRequest{Groups: groups})

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, "b", capErr.RootID)
	assert.Equal(t, before, o.Tree.Len())
	assert.Empty(t, changes.New)
	require.Len(t, changes.Warnings, 1)
	assert.Equal(t, "not_enough_space", changes.Warnings[0].Code)
	assert.Equal(t, 6, e.BuildOccupancy("stash", 3, 2, o.Tree).FreeCells())
}

func TestPlaceItemsSortingTableFallback(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 2, 2)

	groups := [][]models.Item{{{ID: "a", Tpl: "box_2x2"}}, {{ID: "b", Tpl: "box_2x2"}}}
	_, err := e.PlaceItems(o, PlaceRequest{Groups: groups, UseSortingTable: true})
	require.NoError(t, err)

	a, _ := o.Tree.Get("a")
	b, _ := o.Tree.Get("b")
	assert.Equal(t, "stash", a.ParentID)
	assert.Equal(t, "sorting", b.ParentID)
	assert.Equal(t, models.StashSlot, b.SlotID)
}

func TestPlaceItemsKeepsChildrenAndFlags(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 10, 10)

	group := []models.Item{
		{ID: "rifle", Tpl: SampleRifle, ParentID: "trader", SlotID: "hideout",
			Upd: &models.Upd{UnlimitedCount: true, BuyRestrictionMax: 2, BuyRestrictionCurrent: 1}},
		{ID: "mag", Tpl: SampleMagazine, ParentID: "rifle", SlotID: "mod_magazine"},
		{ID: "round", Tpl: SampleAmmo, ParentID: "mag", SlotID: "cartridges", Upd: &models.Upd{StackObjectsCount: 30}},
	}
	changes, err := e.PlaceItems(o, PlaceRequest{Groups: [][]models.Item{group}, FoundInRaid: true})
	require.NoError(t, err)
	assert.Len(t, changes.New, 3)

	rifle, _ := o.Tree.Get("rifle")
	assert.Equal(t, "stash", rifle.ParentID)
	assert.False(t, rifle.Upd.UnlimitedCount)
	assert.Zero(t, rifle.Upd.BuyRestrictionMax)
	assert.Zero(t, rifle.Upd.BuyRestrictionCurrent)
	assert.True(t, rifle.Upd.SpawnedInSession)

	mag, _ := o.Tree.Get("mag")
	assert.Equal(t, "rifle", mag.ParentID)
	assert.True(t, mag.Upd.SpawnedInSession)

	round, _ := o.Tree.Get("round")
	assert.False(t, round.Upd.SpawnedInSession, "ammunition never carries the flag")

	assert.Equal(t, []string{"rifle", "mag", "round"}, o.Tree.Subtree("rifle"))
	assert.Equal(t, "trader", group[0].ParentID, "input groups are not modified")
}

func TestPlaceItemsMoneyNeverFoundInRaid(t *testing.T) {
	reg := placementCatalog()
	_ = reg.Register(Template{ID: "custom_coin", Width: 1, Height: 1})
	e, _ := newTestEngine(t, reg, WithLimits(Limits{MoneyTemplates: []string{"custom_coin"}}))
	o := emptyOwner(reg, 4, 4)

	_, err := e.PlaceItems(o, PlaceRequest{
		Groups:      [][]models.Item{{{ID: "rub", Tpl: SampleRoubles}}, {{ID: "coin", Tpl: "custom_coin"}}},
		FoundInRaid: true,
	})
	require.NoError(t, err)
	rub, _ := o.Tree.Get("rub")
	coin, _ := o.Tree.Get("coin")
	assert.Nil(t, rub.Upd)
	assert.Nil(t, coin.Upd)
}

func TestPlaceItemsCallbackFailure(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 4, 4)

	boom := errors.New("stock gone")
	var counts []int
	changes, err := e.PlaceItems(o, PlaceRequest{
		Groups: [][]models.Item{{{ID: "bolts", Tpl: SampleBolts, Upd: &models.Upd{StackObjectsCount: 4}}}},
		Callback: func(n int) error {
			counts = append(counts, n)
			return boom
		},
	})

	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "bolts", cbErr.RootID)
	assert.Equal(t, []int{4}, counts)
	assert.True(t, o.Tree.Has("bolts"), "tree is already mutated")
	require.Len(t, changes.Warnings, 1)
	assert.Equal(t, "callback_failed", changes.Warnings[0].Code)
}

func TestPlaceItemsStopsAtFirstCallbackFailure(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 4, 4)

	calls := 0
	changes, err := e.PlaceItems(o, PlaceRequest{
		Groups: [][]models.Item{
			{{ID: "first", Tpl: SampleMedkit}},
			{{ID: "second", Tpl: SampleMedkit}},
			{{ID: "third", Tpl: SampleMedkit}},
		},
		Callback: func(int) error {
			calls++
			if calls == 2 {
				return errors.New("stock gone")
			}
			return nil
		},
	})

	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, "second", cbErr.RootID)
	assert.Equal(t, 2, calls)
	assert.True(t, o.Tree.Has("first"))
	assert.True(t, o.Tree.Has("second"), "the failing group is already committed")
	assert.False(t, o.Tree.Has("third"))
	assert.Len(t, changes.New, 2)
}

func TestPlaceItemsRejectsDuplicateIDs(t *testing.T) {
	reg := placementCatalog()
	e, _ := newTestEngine(t, reg)
	o := emptyOwner(reg, 4, 4)

	_, err := e.PlaceItems(o, PlaceRequest{Groups: [][]models.Item{{{ID: "stash", Tpl: SampleMedkit}}}})
	assert.Error(t, err)
	_, err = e.PlaceItems(o, PlaceRequest{Groups: [][]models.Item{{{ID: "x", Tpl: SampleMedkit}}, {{ID: "x", Tpl: SampleMedkit}}}})
	assert.Error(t, err)
	assert.Equal(t, 2, o.Tree.Len())
}

func TestPlanWithoutStash(t *testing.T) {
	e, _ := newTestEngine(t, SampleCatalog())
	mail := NewMailOwner(&models.Dialogue{}, &models.Message{})
	_, err := e.Plan(mail, [][]models.Item{{{ID: "a", Tpl: SampleMedkit}}}, false)
	assert.ErrorIs(t, err, ErrNoStash)
}
