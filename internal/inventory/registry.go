package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Class groups templates by the behaviour the engine cares about.
type Class string

const (
	ClassOther           Class = ""
	ClassWeapon          Class = "weapon"
	ClassMod             Class = "mod"
	ClassMoney           Class = "money"
	ClassAmmo            Class = "ammo"
	ClassAmmoBox         Class = "ammo_box"
	ClassBackpack        Class = "backpack"
	ClassSearchable      Class = "searchable"
	ClassSimpleContainer Class = "simple_container"
	ClassStash           Class = "stash"
	ClassSortingTable    Class = "sorting_table"
	ClassLootContainer   Class = "random_loot_container"
)

// GridProps declares one grid of a container template.
type GridProps struct {
	Name   string `json:"name" yaml:"name"`
	CellsH int    `json:"cellsH" yaml:"cellsH"`
	CellsV int    `json:"cellsV" yaml:"cellsV"`
}

// Template captures the static properties of an item type.
type Template struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Class Class  `json:"class,omitempty" yaml:"class,omitempty"`

	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	Foldable        bool   `json:"foldable,omitempty" yaml:"foldable,omitempty"`
	FoldedSlot      string `json:"foldedSlot,omitempty" yaml:"foldedSlot,omitempty"`
	SizeReduceRight int    `json:"sizeReduceRight,omitempty" yaml:"sizeReduceRight,omitempty"`

	ExtraSizeLeft     int  `json:"extraSizeLeft,omitempty" yaml:"extraSizeLeft,omitempty"`
	ExtraSizeRight    int  `json:"extraSizeRight,omitempty" yaml:"extraSizeRight,omitempty"`
	ExtraSizeUp       int  `json:"extraSizeUp,omitempty" yaml:"extraSizeUp,omitempty"`
	ExtraSizeDown     int  `json:"extraSizeDown,omitempty" yaml:"extraSizeDown,omitempty"`
	ExtraSizeForceAdd bool `json:"extraSizeForceAdd,omitempty" yaml:"extraSizeForceAdd,omitempty"`

	// StackMaxSize of zero means the item does not stack.
	StackMaxSize int `json:"stackMaxSize,omitempty" yaml:"stackMaxSize,omitempty"`

	Grids []GridProps `json:"grids,omitempty" yaml:"grids,omitempty"`
}

// MaxStack returns the per-stack limit, at least one.
func (t Template) MaxStack() int {
	if t.StackMaxSize <= 0 {
		return 1
	}
	return t.StackMaxSize
}

// Catalog resolves templates. Implementations must not hand out mutable state.
type Catalog interface {
	Lookup(tpl string) (Template, bool)
}

// Registry stores templates keyed by id.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Template
}

var _ Catalog = (*Registry)(nil)

// NewRegistry constructs a registry and optionally seeds it.
func NewRegistry(templates ...Template) *Registry {
	r := &Registry{items: make(map[string]Template, len(templates))}
	for _, t := range templates {
		_ = r.Register(t) // ignore invalid entries during seed
	}
	return r
}

// Register inserts or replaces a template. The ID must be non-empty.
func (r *Registry) Register(t Template) error {
	if t.ID == "" {
		return errors.New("inventory: template missing id")
	}
	if t.Width < 0 || t.Height < 0 {
		return fmt.Errorf("inventory: template %s has negative size", t.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[string]Template)
	}
	t.Grids = append([]GridProps(nil), t.Grids...)
	r.items[t.ID] = t
	return nil
}

// Lookup returns the template for the provided id, if present.
func (r *Registry) Lookup(tpl string) (Template, bool) {
	if r == nil {
		return Template{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[tpl]
	if !ok {
		return Template{}, false
	}
	t.Grids = append([]GridProps(nil), t.Grids...)
	return t, true
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Export copies registry contents into a slice sorted by template id.
func (r *Registry) Export() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.items) == 0 {
		return nil
	}
	out := make([]Template, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type templateFile struct {
	Templates []Template `json:"templates" yaml:"templates"`
}

// LoadRegistry reads a template file. Files ending in .json are decoded as
// JSON, everything else as YAML.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	var tf templateFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &tf)
	} else {
		err = yaml.Unmarshal(data, &tf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse template file: %w", err)
	}
	reg := NewRegistry()
	for _, t := range tf.Templates {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
