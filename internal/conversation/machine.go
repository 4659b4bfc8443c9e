// Package conversation tracks, per user, whether the bot is awaiting
// confirmation for a pending destructive or ambiguous operation.
package conversation

import (
	"sync"
	"time"

	"mygroceries/internal/models"
)

// State is the per-user conversational state.
type State string

const (
	StateIdle                 State = "IDLE"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
)

// PendingReason records why an intent was parked instead of applied.
type PendingReason string

const (
	ReasonClearAll      PendingReason = "clear_all"
	ReasonNewItems      PendingReason = "new_items"
	ReasonReceiptImport PendingReason = "receipt_import"
)

// Pending is a held, not-yet-applied intent awaiting explicit user approval.
type Pending struct {
	Intent    models.Intent
	Reason    PendingReason
	Prompt    string
	CreatedAt time.Time
}

// Config tunes confirmation behavior.
type Config struct {
	// ConfirmTTL is the inactivity window after which a pending
	// confirmation silently expires. Expiry is evaluated lazily on next
	// access, never by a background timer.
	ConfirmTTL time.Duration
	// RequireExplicitCancel keeps a pending confirmation alive until the
	// user answers yes or no. When false (the observed default), any
	// unrelated message implicitly cancels the pending intent,
	// last-write-wins.
	RequireExplicitCancel bool
}

// DefaultConfirmTTL bounds how long a confirmation stays answerable.
const DefaultConfirmTTL = 5 * time.Minute

// Machine holds per-user conversation state. Sessions are created on first
// contact and live for the lifetime of the user relationship; only the
// confirmation sub-state expires.
type Machine struct {
	mu       sync.Mutex
	cfg      Config
	sessions map[string]*Pending
	now      func() time.Time
}

// NewMachine creates an empty state machine.
func NewMachine(cfg Config) *Machine {
	if cfg.ConfirmTTL <= 0 {
		cfg.ConfirmTTL = DefaultConfirmTTL
	}
	return &Machine{
		cfg:      cfg,
		sessions: make(map[string]*Pending),
		now:      time.Now,
	}
}

// StateOf reports the user's current state, expiring stale confirmations.
func (m *Machine) StateOf(userID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingLocked(userID) != nil {
		return StateAwaitingConfirmation
	}
	return StateIdle
}

// Pending returns the user's live pending confirmation, if any.
func (m *Machine) Pending(userID string) (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pendingLocked(userID)
	if p == nil {
		return Pending{}, false
	}
	return *p, true
}

// Park holds an intent for confirmation. A newer pending intent supersedes
// the previous one; they never stack.
func (m *Machine) Park(userID string, p Pending) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.sessions[userID] = &p
}

// Resolve removes and returns the pending confirmation for an affirmative
// reply.
func (m *Machine) Resolve(userID string) (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pendingLocked(userID)
	if p == nil {
		return Pending{}, false
	}
	delete(m.sessions, userID)
	return *p, true
}

// Cancel discards the pending confirmation, reporting whether one existed.
func (m *Machine) Cancel(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pendingLocked(userID)
	delete(m.sessions, userID)
	return p != nil
}

// RequireExplicitCancel reports the configured cancellation policy.
func (m *Machine) RequireExplicitCancel() bool {
	return m.cfg.RequireExplicitCancel
}

// pendingLocked returns the live pending entry, discarding it when expired.
// Callers hold m.mu.
func (m *Machine) pendingLocked(userID string) *Pending {
	p, ok := m.sessions[userID]
	if !ok || p == nil {
		return nil
	}
	if m.now().Sub(p.CreatedAt) > m.cfg.ConfirmTTL {
		delete(m.sessions, userID)
		return nil
	}
	return p
}
