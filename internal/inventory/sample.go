package inventory

import "github.com/gravitas-games/stashkeeper/pkg/models"

// Template ids of the sample catalog.
const (
	SampleEquipment    = "equipment_default"
	SampleStash        = "stash_standard"
	SampleSortingTable = "sorting_table"
	SampleRoubles      = "money_rub"
	SampleAmmo         = "ammo_545bp"
	SampleRifle        = "rifle_ak74"
	SampleStock        = "stock_ak74_folding"
	SampleMagazine     = "mag_ak74_30"
	SampleSuppressor   = "muzzle_pbs1"
	SampleBackpack     = "backpack_scav"
	SampleMedkit       = "med_ai2"
	SampleBolts        = "barter_bolts"
	SampleCrate        = "crate_weapon_parts"
)

// SampleCatalog returns a small catalog covering every template class the
// engine treats specially. Tests and the audit tool's demo mode use it.
func SampleCatalog() *Registry {
	return NewRegistry(
		Template{ID: SampleEquipment, Name: "Default inventory", Width: 1, Height: 1},
		Template{ID: SampleStash, Name: "Standard stash", Class: ClassStash, Width: 1, Height: 1,
			Grids: []GridProps{{Name: models.StashSlot, CellsH: 10, CellsV: 28}}},
		Template{ID: SampleSortingTable, Name: "Sorting table", Class: ClassSortingTable, Width: 1, Height: 1,
			Grids: []GridProps{{Name: models.StashSlot, CellsH: 10, CellsV: 45}}},
		Template{ID: SampleRoubles, Name: "Roubles", Class: ClassMoney, Width: 1, Height: 1, StackMaxSize: 500000},
		Template{ID: SampleAmmo, Name: "5.45x39 BP", Class: ClassAmmo, Width: 1, Height: 1, StackMaxSize: 60},
		Template{ID: SampleRifle, Name: "AK-74", Class: ClassWeapon, Width: 3, Height: 2,
			Foldable: true, FoldedSlot: "mod_stock"},
		Template{ID: SampleStock, Name: "AK-74 folding stock", Class: ClassMod, Width: 1, Height: 1,
			ExtraSizeRight: 1},
		Template{ID: SampleMagazine, Name: "AK-74 30-round magazine", Class: ClassMod, Width: 1, Height: 1,
			ExtraSizeDown: 1},
		Template{ID: SampleSuppressor, Name: "PBS-1 suppressor", Class: ClassMod, Width: 1, Height: 1,
			ExtraSizeRight: 1, ExtraSizeForceAdd: true},
		Template{ID: SampleBackpack, Name: "Scav backpack", Class: ClassBackpack, Width: 4, Height: 5,
			Grids: []GridProps{{Name: "main", CellsH: 4, CellsV: 5}}},
		Template{ID: SampleMedkit, Name: "AI-2 medkit", Width: 1, Height: 1},
		Template{ID: SampleBolts, Name: "Bolts", Width: 1, Height: 1, StackMaxSize: 5},
		Template{ID: SampleCrate, Name: "Weapon parts crate", Class: ClassLootContainer, Width: 2, Height: 2},
	)
}

// SampleCharacter returns a character whose stash holds a rifle with
// attachments, a backpack with a medkit inside and a stack of roubles.
func SampleCharacter() *models.Character {
	loc := func(x, y int, r models.Rotation) *models.Location {
		return &models.Location{X: x, Y: y, R: r}
	}
	return &models.Character{
		ID: "pmc-demo",
		Inventory: models.Inventory{
			Equipment:    "equipment",
			Stash:        "stash",
			SortingTable: "sorting",
			FastPanel:    map[string]string{"Item4": "medkit-1"},
			Items: []models.Item{
				{ID: "equipment", Tpl: SampleEquipment},
				{ID: "stash", Tpl: SampleStash},
				{ID: "sorting", Tpl: SampleSortingTable},
				{ID: "rifle-1", Tpl: SampleRifle, ParentID: "stash", SlotID: models.StashSlot, Location: loc(0, 0, models.RotationHorizontal)},
				{ID: "stock-1", Tpl: SampleStock, ParentID: "rifle-1", SlotID: "mod_stock"},
				{ID: "mag-1", Tpl: SampleMagazine, ParentID: "rifle-1", SlotID: "mod_magazine"},
				{ID: "backpack-1", Tpl: SampleBackpack, ParentID: "stash", SlotID: models.StashSlot, Location: loc(5, 0, models.RotationHorizontal)},
				{ID: "medkit-1", Tpl: SampleMedkit, ParentID: "backpack-1", SlotID: "main", Location: loc(0, 0, models.RotationHorizontal)},
				{ID: "roubles-1", Tpl: SampleRoubles, ParentID: "stash", SlotID: models.StashSlot, Location: loc(9, 0, models.RotationHorizontal),
					Upd: &models.Upd{StackObjectsCount: 150000}},
			},
		},
	}
}
