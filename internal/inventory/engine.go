package inventory

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/pkg/logger"
)

// Limits are the installation-level knobs the engine reads. They never
// change the allocation algorithm, only its inputs.
type Limits struct {
	// MoneyTemplates are treated as currency in addition to ClassMoney templates.
	MoneyTemplates []string
	// SortingTableWidth and SortingTableHeight size the overflow container.
	SortingTableWidth  int
	SortingTableHeight int
	// StashWidth and StashHeight are used when the stash template cannot be resolved.
	StashWidth  int
	StashHeight int
	// FastPanelSlots lists equipment slots whose contents may stay bound to
	// the quick-access panel.
	FastPanelSlots []string
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		SortingTableWidth:  10,
		SortingTableHeight: 45,
		StashWidth:         10,
		StashHeight:        28,
		FastPanelSlots:     []string{"pockets", "tacticalvest"},
	}
}

// Option configures engine construction.
type Option func(*Engine)

// WithLogger sets the logger used for data errors and debug tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIDGenerator replaces the id source used for new items.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithLimits overrides the default limits. Zero sizes keep their defaults.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		d := DefaultLimits()
		if l.SortingTableWidth <= 0 {
			l.SortingTableWidth = d.SortingTableWidth
		}
		if l.SortingTableHeight <= 0 {
			l.SortingTableHeight = d.SortingTableHeight
		}
		if l.StashWidth <= 0 {
			l.StashWidth = d.StashWidth
		}
		if l.StashHeight <= 0 {
			l.StashHeight = d.StashHeight
		}
		if len(l.FastPanelSlots) == 0 {
			l.FastPanelSlots = d.FastPanelSlots
		}
		e.limits = l
	}
}

// Engine sizes, places and relinks items. It holds no per-owner state and
// is safe for concurrent use as long as each owner is used by one caller.
type Engine struct {
	catalog Catalog
	log     logrus.FieldLogger
	ids     IDGenerator
	limits  Limits
	money   map[string]bool
}

// NewEngine builds an engine over a template catalog.
func NewEngine(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		log:     logrus.StandardLogger(),
		ids:     UUIDGenerator{},
		limits:  DefaultLimits(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.log = logger.Component(e.log, "inventory")
	e.money = make(map[string]bool, len(e.limits.MoneyTemplates))
	for _, tpl := range e.limits.MoneyTemplates {
		e.money[tpl] = true
	}
	return e
}

// Catalog returns the template catalog the engine reads.
func (e *Engine) Catalog() Catalog { return e.catalog }

// NewID returns a fresh item id.
func (e *Engine) NewID() string { return e.ids.NewID() }

// IsMoney reports whether a template is currency.
func (e *Engine) IsMoney(tpl string) bool {
	if e.money[tpl] {
		return true
	}
	t, ok := e.catalog.Lookup(tpl)
	return ok && t.Class == ClassMoney
}

// carriesFoundInRaid reports whether items of tpl may hold the
// found-in-session flag. Currency and ammunition never do.
func (e *Engine) carriesFoundInRaid(tpl string) bool {
	if e.IsMoney(tpl) {
		return false
	}
	t, ok := e.catalog.Lookup(tpl)
	return !ok || t.Class != ClassAmmo
}

func (e *Engine) fastPanelAllowed(slot string) bool {
	for _, s := range e.limits.FastPanelSlots {
		if strings.EqualFold(s, slot) {
			return true
		}
	}
	return false
}
