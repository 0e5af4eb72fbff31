// Package store persists per-user conversation state. The SQLite backend is
// the production one; the in-memory backend exists for tests.
package store

import (
	"sync"
	"time"

	"agenda-whatsapp/internal/models"
)

// Store is the conversation-state contract. All calls operate on a single row
// keyed by user id and must be atomic per call. Get returns nil (no error) for
// users that have never been recognized.
type Store interface {
	Get(userID string) (*models.ConversationState, error)
	// UpsertIdentity creates the row on first contact, or fills in the
	// account id if the row exists without one. It never overwrites an
	// already-set account id.
	UpsertIdentity(userID, accountID string) error
	// SetStep updates the step and leaves scheduled_date untouched.
	SetStep(userID string, step models.Step) error
	// SetStepAndDate updates both; an empty label clears the stored date.
	SetStepAndDate(userID string, step models.Step, dateLabel string) error
	// ClearPending returns the row to idle: step and scheduled_date cleared.
	ClearPending(userID string) error
	Close() error
}

// InMemoryStore keeps conversation state in a mutex-guarded map.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[string]models.ConversationState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]models.ConversationState)}
}

func (s *InMemoryStore) Get(userID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[userID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *InMemoryStore) UpsertIdentity(userID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		row = models.ConversationState{UserID: userID}
	}
	if row.AccountID == "" {
		row.AccountID = accountID
	}
	row.LastUpdated = time.Now()
	s.rows[userID] = row
	return nil
}

func (s *InMemoryStore) SetStep(userID string, step models.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[userID]
	row.UserID = userID
	row.Step = step
	row.LastUpdated = time.Now()
	s.rows[userID] = row
	return nil
}

func (s *InMemoryStore) SetStepAndDate(userID string, step models.Step, dateLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[userID]
	row.UserID = userID
	row.Step = step
	row.ScheduledDate = dateLabel
	row.LastUpdated = time.Now()
	s.rows[userID] = row
	return nil
}

func (s *InMemoryStore) ClearPending(userID string) error {
	return s.SetStepAndDate(userID, models.StepIdle, "")
}

func (s *InMemoryStore) Close() error { return nil }
