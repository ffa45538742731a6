package models

import "time"

// StashSlot is the slot id of items placed directly in a stash or sorting table.
const StashSlot = "hideout"

// Profile is everything persisted for one account.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`

	PMC  Character `json:"pmc"`
	Scav Character `json:"scav"`

	// Dialogues keyed by dialogue (sender) id.
	Dialogues map[string]*Dialogue `json:"dialogues,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Character is one playable side of a profile with its own inventory.
type Character struct {
	ID           string        `json:"id"`
	Inventory    Inventory     `json:"inventory"`
	InsuredItems []InsuredItem `json:"insured_items,omitempty"`
	Bonuses      Bonuses       `json:"bonuses"`
}

// Bonuses that change container sizes.
type Bonuses struct {
	StashRows int `json:"stash_rows,omitempty"`
}

// Inventory holds the item forest plus the ids of well-known root items.
type Inventory struct {
	Items          []Item `json:"items"`
	Equipment      string `json:"equipment"`
	Stash          string `json:"stash"`
	SortingTable   string `json:"sortingTable"`
	QuestRaidItems string `json:"questRaidItems,omitempty"`

	// FastPanel maps quick-access slot index to bound item id.
	FastPanel map[string]string `json:"fastPanel,omitempty"`
}

// InsuredItem marks an item as insured with a trader.
type InsuredItem struct {
	TID    string `json:"tid"`
	ItemID string `json:"itemId"`
}

// Dialogue is a mail thread with one sender.
type Dialogue struct {
	ID             string     `json:"_id"`
	AttachmentsNew int        `json:"attachmentsNew"`
	Messages       []*Message `json:"messages"`
}

// Message is a single mail, possibly carrying reward items.
type Message struct {
	ID              string    `json:"_id"`
	Text            string    `json:"text,omitempty"`
	HasRewards      bool      `json:"hasRewards"`
	RewardCollected bool      `json:"rewardCollected"`
	Items           []Item    `json:"items,omitempty"`
	SentAt          time.Time `json:"dt"`
}

// FindMessage locates a message across all dialogues.
func (p *Profile) FindMessage(messageID string) (*Dialogue, *Message, bool) {
	for _, d := range p.Dialogues {
		for _, m := range d.Messages {
			if m.ID == messageID {
				return d, m, true
			}
		}
	}
	return nil, nil, false
}
