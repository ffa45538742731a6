// Package mail delivers reward items through dialogue messages and moves
// them into a character's stash on collection.
package mail

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/inventory"
	"github.com/gravitas-games/stashkeeper/pkg/logger"
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// RewardSlot is the slot id of root items attached to a message.
const RewardSlot = "main"

// ErrNoRewards is returned when collecting from a message without items.
var ErrNoRewards = errors.New("mail: message has no rewards")

// Service sends and collects mail.
type Service struct {
	engine *inventory.Engine
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService creates a mail service.
func NewService(engine *inventory.Engine, log logrus.FieldLogger) *Service {
	return &Service{engine: engine, log: logger.Component(log, "mail"), now: time.Now}
}

// Send appends a message to the dialogue with id dialogueID, creating the
// dialogue if needed. Each reward group gets fresh ids and is hung off a
// per-message container id. Messages with rewards count as unread
// attachments.
func (s *Service) Send(p *models.Profile, dialogueID, text string, rewards [][]models.Item) *models.Message {
	if p.Dialogues == nil {
		p.Dialogues = make(map[string]*models.Dialogue)
	}
	d, ok := p.Dialogues[dialogueID]
	if !ok {
		d = &models.Dialogue{ID: dialogueID}
		p.Dialogues[dialogueID] = d
	}

	container := s.engine.NewID()
	msg := &models.Message{ID: s.engine.NewID(), Text: text, SentAt: s.now().UTC()}
	for _, group := range rewards {
		if len(group) == 0 {
			continue
		}
		items := s.engine.ReplaceIDs(group)
		items[0].ParentID = container
		items[0].SlotID = RewardSlot
		items[0].Location = nil
		msg.Items = append(msg.Items, items...)
	}
	if len(msg.Items) > 0 {
		msg.HasRewards = true
		d.AttachmentsNew++
	}
	d.Messages = append(d.Messages, msg)

	s.log.WithFields(logrus.Fields{
		"profile_id":  p.ID,
		"dialogue_id": dialogueID,
		"message_id":  msg.ID,
		"items":       len(msg.Items),
	}).Debug("mail sent")
	return msg
}

// Collect moves one reward item into to. A zero target lets the placement
// engine pick a stash cell.
func (s *Service) Collect(from, to *inventory.Owner, itemID string, target inventory.Target) (*inventory.Changes, error) {
	return s.engine.Transfer(from, to, itemID, target)
}

// roots returns the ids of the message's top-level reward items.
func roots(o *inventory.Owner) []string {
	var out []string
	for _, it := range o.Tree.Items() {
		if !o.Tree.Has(it.ParentID) {
			out = append(out, it.ID)
		}
	}
	return out
}

// CollectAll moves every reward of a message into to, overflowing into the
// sorting table. Either all rewards move or none do.
func (s *Service) CollectAll(from, to *inventory.Owner) (*inventory.Changes, error) {
	if !from.IsMail() {
		return nil, inventory.ErrNotMail
	}
	ids := roots(from)
	if len(ids) == 0 {
		return &inventory.Changes{}, ErrNoRewards
	}
	groups := make([][]models.Item, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, from.Tree.Group(id))
	}

	placements, err := s.engine.Plan(to, groups, true)
	if err != nil {
		changes := &inventory.Changes{}
		changes.Warn("not_enough_space", "not enough space to collect %d rewards", len(ids))
		return changes, err
	}

	changes := &inventory.Changes{}
	for i, id := range ids {
		p := placements[i]
		moved, err := s.engine.Transfer(from, to, id, inventory.Target{
			ParentID: p.ContainerID,
			SlotID:   models.StashSlot,
			Location: p.Location(),
		})
		changes.Merge(moved)
		if err != nil {
			return changes, fmt.Errorf("failed to collect %s: %w", id, err)
		}
	}
	s.log.WithFields(logrus.Fields{"message_id": from.Message.ID, "items": len(ids)}).Debug("collected all rewards")
	return changes, nil
}
