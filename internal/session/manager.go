// Package session serializes inventory requests per profile. Each request
// loads the profile, runs against fresh owners, and is saved and announced
// only when it succeeds.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/events"
	"github.com/gravitas-games/stashkeeper/internal/inventory"
	"github.com/gravitas-games/stashkeeper/internal/profile"
	"github.com/gravitas-games/stashkeeper/pkg/logger"
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// ErrUnknownSession is returned for session ids that were never started or
// have ended.
var ErrUnknownSession = errors.New("session: unknown session")

// Session binds a client session to a profile.
type Session struct {
	ID        string
	ProfileID string
	CreatedAt time.Time
}

// Tx is the view of a profile handed to one request.
type Tx struct {
	Profile *models.Profile
	PMC     *inventory.Owner
	Scav    *inventory.Owner

	mail map[string]*inventory.Owner
}

// Owner returns the character owner of the given kind.
func (tx *Tx) Owner(kind inventory.OwnerKind) (*inventory.Owner, error) {
	switch kind {
	case inventory.OwnerPMC:
		return tx.PMC, nil
	case inventory.OwnerScav:
		return tx.Scav, nil
	default:
		return nil, fmt.Errorf("session: %s is not a character owner", kind)
	}
}

// Mail returns the owner over a message's reward items. Repeated calls
// return the same owner.
func (tx *Tx) Mail(messageID string) (*inventory.Owner, error) {
	if o, ok := tx.mail[messageID]; ok {
		return o, nil
	}
	d, m, ok := tx.Profile.FindMessage(messageID)
	if !ok {
		return nil, fmt.Errorf("session: message %s not found", messageID)
	}
	o := inventory.NewMailOwner(d, m)
	tx.mail[messageID] = o
	return o, nil
}

func (tx *Tx) commit() {
	tx.PMC.Commit()
	tx.Scav.Commit()
	for _, o := range tx.mail {
		o.Commit()
	}
}

// Action is one request against a profile.
type Action func(tx *Tx) (*inventory.Changes, error)

// Manager owns the live sessions.
type Manager struct {
	store profile.Store
	bus   events.Bus
	log   logrus.FieldLogger

	sessions map[string]*Session // sessionID -> Session
	locks    map[string]*sync.Mutex
	mu       sync.RWMutex
}

// NewManager creates a manager over a profile store. A nil bus drops events.
func NewManager(store profile.Store, bus events.Bus, log logrus.FieldLogger) *Manager {
	if bus == nil {
		bus = events.NewNullBus()
	}
	return &Manager{
		store:    store,
		bus:      bus,
		log:      logger.Component(log, "session"),
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Start opens a session for an existing profile.
func (m *Manager) Start(ctx context.Context, profileID string) (*Session, error) {
	if _, err := m.store.Get(ctx, profileID); err != nil {
		return nil, err
	}
	s := &Session{ID: uuid.NewString(), ProfileID: profileID, CreatedAt: time.Now()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	if _, ok := m.locks[profileID]; !ok {
		m.locks[profileID] = &sync.Mutex{}
	}

	m.log.WithFields(logrus.Fields{"session_id": s.ID, "profile_id": profileID}).Info("session started")
	return s, nil
}

// End removes a session.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, exists := m.sessions[sessionID]; exists {
		m.log.WithFields(logrus.Fields{"session_id": sessionID, "profile_id": s.ProfileID}).Info("session ended")
		delete(m.sessions, sessionID)
	}
}

// Get retrieves a session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[sessionID]
	return s, exists
}

// Sessions returns all live sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) profileLock(sessionID string) (*Session, *sync.Mutex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return s, m.locks[s.ProfileID], nil
}

// Do runs fn with the session's profile locked. The profile is saved and an
// event of type kind is published when fn succeeds. When fn fails with an
// *inventory.CallbackError the tree has already changed, so the profile is
// still saved and an EventCallbackFailed is published alongside the error.
// Any other error discards every change fn made.
func (m *Manager) Do(ctx context.Context, sessionID string, kind events.EventType, fn Action) (*inventory.Changes, error) {
	s, lock, err := m.profileLock(sessionID)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	p, err := m.store.Get(ctx, s.ProfileID)
	if err != nil {
		return nil, err
	}
	tx := &Tx{
		Profile: p,
		PMC:     inventory.NewCharacterOwner(inventory.OwnerPMC, &p.PMC),
		Scav:    inventory.NewCharacterOwner(inventory.OwnerScav, &p.Scav),
		mail:    make(map[string]*inventory.Owner),
	}
	log := m.log.WithFields(logrus.Fields{"session_id": sessionID, "profile_id": s.ProfileID, "event": kind.String()})

	changes, err := fn(tx)
	if changes == nil {
		changes = &inventory.Changes{}
	}
	var cbErr *inventory.CallbackError
	switch {
	case err == nil:
	case errors.As(err, &cbErr):
		log.WithError(err).Error("request committed but its follow-up failed")
		kind = events.EventCallbackFailed
	default:
		log.WithError(err).Debug("request rejected, changes discarded")
		return changes, err
	}

	tx.commit()
	if saveErr := m.store.Save(ctx, p); saveErr != nil {
		return changes, fmt.Errorf("failed to save profile %s: %w", s.ProfileID, saveErr)
	}
	if !changes.Empty() {
		m.bus.Publish(events.Event{
			Type:      kind,
			ProfileID: s.ProfileID,
			Changes:   changes,
			Timestamp: time.Now(),
		})
	}
	log.WithFields(logrus.Fields{
		"new":     len(changes.New),
		"changed": len(changes.Changed),
		"deleted": len(changes.Deleted),
	}).Debug("request committed")
	return changes, err
}
