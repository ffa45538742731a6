// Package trade sells trader and flea market offers into player stashes.
// Every purchase holds the seller's named lock from the stock check until
// payment is taken, so concurrent buyers can never oversell an offer.
package trade

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/inventory"
	"github.com/gravitas-games/stashkeeper/pkg/logger"
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

var (
	// ErrUnknownOffer is returned for trader or offer ids that do not exist.
	ErrUnknownOffer = errors.New("trade: unknown offer")
	// ErrOutOfStock is returned when the offer has fewer units than requested.
	ErrOutOfStock = errors.New("trade: out of stock")
	// ErrBuyRestriction is returned when the profile would exceed the per-profile cap.
	ErrBuyRestriction = errors.New("trade: buy restriction reached")
	// ErrInsufficientFunds is returned when the buyer cannot cover the price.
	ErrInsufficientFunds = errors.New("trade: insufficient funds")
)

// BuyRequest describes one purchase.
type BuyRequest struct {
	ProfileID string
	TraderID  string
	OfferID   string
	Count     int
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFoundInRaid marks purchased items as found in session.
func WithFoundInRaid(fir bool) Option {
	return func(s *Service) { s.foundInRaid = fir }
}

// WithFleaResource names the flea market. Its offers are held by a trader
// registered under that name, so flea buys serialize on it.
func WithFleaResource(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.flea = name
		}
	}
}

// DefaultFleaResource is the flea market name when none is configured.
const DefaultFleaResource = "ragfair"

// Service runs purchases.
type Service struct {
	engine *inventory.Engine
	guard  *Guard
	log    logrus.FieldLogger

	foundInRaid bool
	flea        string

	mu      sync.RWMutex
	traders map[string]*Trader
}

// NewService creates a service with no traders.
func NewService(engine *inventory.Engine, opts ...Option) *Service {
	s := &Service{
		engine:  engine,
		guard:   NewGuard(),
		log:     logrus.StandardLogger(),
		flea:    DefaultFleaResource,
		traders: make(map[string]*Trader),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.Component(s.log, "trade")
	s.traders[s.flea] = NewTrader(s.flea)
	return s
}

// FleaResource returns the name flea purchases lock on.
func (s *Service) FleaResource() string { return s.flea }

// ListOnFlea adds or replaces a flea market offer.
func (s *Service) ListOnFlea(offer Offer) {
	s.mu.Lock()
	t, ok := s.traders[s.flea]
	if !ok {
		t = NewTrader(s.flea)
		s.traders[s.flea] = t
	}
	s.mu.Unlock()

	offer.Items = models.CloneItems(offer.Items)
	unlock := s.guard.Lock(s.flea)
	defer unlock()
	t.Offers[offer.ID] = &offer
}

// BuyFromFlea buys count units of a flea market offer.
func (s *Service) BuyFromFlea(o *inventory.Owner, profileID, offerID string, count int) (*inventory.Changes, error) {
	return s.Buy(o, BuyRequest{ProfileID: profileID, TraderID: s.flea, OfferID: offerID, Count: count})
}

// AddTrader registers or replaces a trader.
func (s *Service) AddTrader(t *Trader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traders[t.ID] = t
}

func (s *Service) trader(id string) (*Trader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traders[id]
	return t, ok
}

// Stock reports the remaining stock of an offer.
func (s *Service) Stock(traderID, offerID string) (stock int, unlimited bool, err error) {
	t, ok := s.trader(traderID)
	if !ok {
		return 0, false, fmt.Errorf("%w: trader %s", ErrUnknownOffer, traderID)
	}
	err = s.guard.With(traderID, func() error {
		o, ok := t.Offers[offerID]
		if !ok {
			return fmt.Errorf("%w: %s/%s", ErrUnknownOffer, traderID, offerID)
		}
		stock, unlimited = o.Stock, o.Unlimited
		return nil
	})
	return stock, unlimited, err
}

// payment is the set of stacks that will cover one cost line.
type payment struct {
	cost   Cost
	need   int
	stacks []string
}

func (s *Service) planPayment(o *inventory.Owner, price []Cost, count int) ([]payment, error) {
	var out []payment
	for _, c := range price {
		need := c.Count * count
		p := payment{cost: c, need: need}
		have := 0
		for _, it := range o.Tree.Items() {
			if it.Tpl == c.Tpl && it.ParentID != "" {
				p.stacks = append(p.stacks, it.ID)
				have += it.StackCount()
			}
		}
		if have < need {
			return nil, fmt.Errorf("%w: need %d of %s, have %d", ErrInsufficientFunds, need, c.Tpl, have)
		}
		out = append(out, p)
	}
	return out, nil
}

// groups clones the offer into placeable item groups with fresh ids.
// Stackable roots are bought as one stack and split at the stack limit;
// anything else is bought as count separate copies.
func (s *Service) groups(offer *Offer, count int) [][]models.Item {
	root := offer.Items[0]
	tpl, ok := s.engine.Catalog().Lookup(root.Tpl)
	if ok && tpl.MaxStack() > 1 && len(offer.Items) == 1 {
		it := s.engine.ReplaceIDs(offer.Items)[0]
		it.SetStackCount(count)
		return s.engine.StackGroups([]models.Item{it})
	}
	out := make([][]models.Item, 0, count)
	for i := 0; i < count; i++ {
		g := s.engine.ReplaceIDs(offer.Items)
		if g[0].Upd != nil {
			g[0].Upd.StackObjectsCount = 1
		}
		out = append(out, g)
	}
	return out
}

// Buy sells req.Count units of an offer into o's stash and takes payment
// from o. Nothing changes when stock, funds or stash space run short.
func (s *Service) Buy(o *inventory.Owner, req BuyRequest) (*inventory.Changes, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: buy %d", inventory.ErrInvalidCount, req.Count)
	}
	t, ok := s.trader(req.TraderID)
	if !ok {
		return nil, fmt.Errorf("%w: trader %s", ErrUnknownOffer, req.TraderID)
	}
	log := s.log.WithFields(logrus.Fields{
		"profile_id": req.ProfileID,
		"trader_id":  req.TraderID,
		"offer_id":   req.OfferID,
		"count":      req.Count,
	})

	unlock := s.guard.Lock(req.TraderID)
	defer unlock()

	offer, ok := t.Offers[req.OfferID]
	if !ok || len(offer.Items) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownOffer, req.TraderID, req.OfferID)
	}
	if !offer.Unlimited && offer.Stock < req.Count {
		return nil, fmt.Errorf("%w: %d left, %d requested", ErrOutOfStock, offer.Stock, req.Count)
	}
	if offer.BuyRestrictionMax > 0 && t.boughtBy(req.ProfileID, offer.ID)+req.Count > offer.BuyRestrictionMax {
		return nil, fmt.Errorf("%w: limit %d", ErrBuyRestriction, offer.BuyRestrictionMax)
	}
	payments, err := s.planPayment(o, offer.Price, req.Count)
	if err != nil {
		return nil, err
	}

	changes, err := s.engine.PlaceItems(o, inventory.PlaceRequest{
		Groups:      s.groups(offer, req.Count),
		FoundInRaid: s.foundInRaid,
		Callback: func(n int) error {
			if !offer.Unlimited {
				if offer.Stock < n {
					return fmt.Errorf("%w: %d left, %d placed", ErrOutOfStock, offer.Stock, n)
				}
				offer.Stock -= n
			}
			t.recordPurchase(req.ProfileID, offer.ID, n)
			return nil
		},
	})
	if err != nil {
		log.WithError(err).Warn("purchase failed")
		return changes, err
	}

	for _, p := range payments {
		paid, err := s.engine.RemoveByCount(o, p.stacks, p.need)
		if err != nil {
			// Funds were checked above; reaching this means the tree changed under us.
			return changes, &inventory.CallbackError{RootID: offer.ID, Err: err}
		}
		changes.Merge(paid)
	}

	log.WithField("stock_left", offer.Stock).Info("purchase completed")
	return changes, nil
}
