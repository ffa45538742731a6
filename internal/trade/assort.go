package trade

import (
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// Cost is one line of a barter scheme: count units of tpl per item bought.
// Currency is just a cost whose template is money.
type Cost struct {
	Tpl   string `json:"tpl" yaml:"tpl"`
	Count int    `json:"count" yaml:"count"`
}

// Offer is a sellable item group with its price and stock.
type Offer struct {
	ID string `json:"id" yaml:"id"`
	// Items is the root item followed by its attachments.
	Items     []models.Item `json:"items" yaml:"items"`
	Price     []Cost        `json:"price" yaml:"price"`
	Stock     int           `json:"stock" yaml:"stock"`
	Unlimited bool          `json:"unlimited,omitempty" yaml:"unlimited,omitempty"`
	// BuyRestrictionMax caps how many units one profile may buy; zero means no cap.
	BuyRestrictionMax int `json:"buyRestrictionMax,omitempty" yaml:"buyRestrictionMax,omitempty"`
}

// Trader is a named seller. Its offers and per-profile purchase counters
// are only touched while the trader's guard is held.
type Trader struct {
	ID     string
	Offers map[string]*Offer

	bought map[string]map[string]int // profileID -> offerID -> units
}

// NewTrader builds a trader from offers.
func NewTrader(id string, offers ...Offer) *Trader {
	t := &Trader{ID: id, Offers: make(map[string]*Offer, len(offers)), bought: make(map[string]map[string]int)}
	for _, o := range offers {
		o := o
		o.Items = models.CloneItems(o.Items)
		t.Offers[o.ID] = &o
	}
	return t
}

func (t *Trader) boughtBy(profileID, offerID string) int {
	return t.bought[profileID][offerID]
}

func (t *Trader) recordPurchase(profileID, offerID string, n int) {
	if t.bought[profileID] == nil {
		t.bought[profileID] = make(map[string]int)
	}
	t.bought[profileID][offerID] += n
}
