package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raphaelgruber/promptpad/internal/conversation"
	"github.com/raphaelgruber/promptpad/internal/ledger"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// Sentinel errors for session operations.
var (
	// ErrMinimumSessions is returned when removing the only session.
	ErrMinimumSessions = errors.New("at least one session must remain")

	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidOrder is returned when a reorder is not a permutation of
	// the current session IDs.
	ErrInvalidOrder = errors.New("order must list every session exactly once")
)

// SessionStore owns the ordered session collection. Exactly one session is
// active and the collection is never empty. Every mutation writes the full
// collection and the active ID to the store before returning.
type SessionStore struct {
	mu       sync.Mutex
	sessions []models.Session
	state    *stateStore
	log      *conversation.Log
	ledger   *ledger.Ledger
	newID    func() string
}

func newSessionStore(sessions []models.Session, state *stateStore, log *conversation.Log, l *ledger.Ledger) *SessionStore {
	return &SessionStore{
		sessions: sessions,
		state:    state,
		log:      log,
		ledger:   l,
		newID:    uuid.NewString,
	}
}

// List returns copies of all sessions in display order.
func (s *SessionStore) List() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Active returns a copy of the active session.
func (s *SessionStore) Active() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.Active {
			return sess.Clone(), true
		}
	}
	return models.Session{}, false
}

// Get returns a copy of the session with the given ID.
func (s *SessionStore) Get(id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.sessions[i].Clone(), nil
}

// Create appends a new active session with default content and a single
// initial snapshot. An empty name becomes prompt<N+1>.txt.
func (s *SessionStore) Create(ctx context.Context, name string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("prompt%d.txt", len(s.sessions)+1)
	}

	session := models.Session{
		ID:       s.newID(),
		Name:     name,
		Content:  models.DefaultContent,
		Active:   true,
		Versions: []models.VersionSnapshot{s.ledger.Snapshot(models.DefaultContent, nil)},
	}
	for i := range s.sessions {
		s.sessions[i].Active = false
	}
	s.sessions = append(s.sessions, session)

	if err := s.persist(ctx); err != nil {
		return models.Session{}, err
	}
	if err := s.log.Reset(ctx); err != nil {
		return models.Session{}, err
	}
	return session.Clone(), nil
}

// Remove deletes a session. When the removed session was active, the
// session now at its position becomes active if it was first, otherwise the
// one before it, and the conversation is reset.
func (s *SessionStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) <= 1 {
		return ErrMinimumSessions
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	wasActive := s.sessions[i].Active
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)

	if wasActive {
		next := i - 1
		if i == 0 {
			next = 0
		}
		s.sessions[next].Active = true
	}

	if err := s.persist(ctx); err != nil {
		return err
	}
	if wasActive {
		return s.log.Reset(ctx)
	}
	return nil
}

// Rename changes a session's display name.
func (s *SessionStore) Rename(ctx context.Context, id, name string) error {
	return s.update(ctx, id, func(sess *models.Session) { sess.Name = name })
}

// UpdateContent replaces a session's content. The ledger is not touched.
func (s *SessionStore) UpdateContent(ctx context.Context, id, content string) error {
	return s.update(ctx, id, func(sess *models.Session) { sess.Content = content })
}

// SetVersions replaces a session's ledger.
func (s *SessionStore) SetVersions(ctx context.Context, id string, versions []models.VersionSnapshot) error {
	return s.update(ctx, id, func(sess *models.Session) {
		sess.Versions = append([]models.VersionSnapshot(nil), versions...)
	})
}

// RestoreVersion sets a session's content to that of one of its snapshots.
// No snapshot is added.
func (s *SessionStore) RestoreVersion(ctx context.Context, id, snapshotID string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	restored, err := ledger.Restore(s.sessions[i], snapshotID)
	if err != nil {
		return models.Session{}, fmt.Errorf("restore %s: %w", snapshotID, err)
	}
	s.sessions[i] = restored
	if err := s.persist(ctx); err != nil {
		return models.Session{}, err
	}
	return restored.Clone(), nil
}

// Select makes a session active and resets the conversation, even when the
// session is already active.
func (s *SessionStore) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	for j := range s.sessions {
		s.sessions[j].Active = j == i
	}

	if err := s.persist(ctx); err != nil {
		return err
	}
	return s.log.Reset(ctx)
}

// Reorder re-sequences the sessions. ids must be a permutation of the
// current session IDs.
func (s *SessionStore) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) != len(s.sessions) {
		return fmt.Errorf("%w: got %d ids for %d sessions", ErrInvalidOrder, len(ids), len(s.sessions))
	}

	byID := make(map[string]models.Session, len(s.sessions))
	for _, sess := range s.sessions {
		byID[sess.ID] = sess
	}
	reordered := make([]models.Session, 0, len(ids))
	for _, id := range ids {
		sess, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: unknown or repeated id %s", ErrInvalidOrder, id)
		}
		delete(byID, id)
		reordered = append(reordered, sess)
	}

	s.sessions = reordered
	return s.persist(ctx)
}

// Move relocates the session with the given ID to position to (0-based,
// clamped to the collection bounds).
func (s *SessionStore) Move(ctx context.Context, id string, to int) error {
	sessions := s.List()
	from := -1
	ids := make([]string, 0, len(sessions))
	for i, sess := range sessions {
		if sess.ID == id {
			from = i
			continue
		}
		ids = append(ids, sess.ID)
	}
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	to = max(0, min(to, len(ids)))
	ids = append(ids[:to], append([]string{id}, ids[to:]...)...)
	return s.Reorder(ctx, ids)
}

func (s *SessionStore) update(ctx context.Context, id string, fn func(*models.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	fn(&s.sessions[i])
	return s.persist(ctx)
}

// indexOf must be called with mu held.
func (s *SessionStore) indexOf(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with mu held.
func (s *SessionStore) persist(ctx context.Context) error {
	if err := s.state.save(ctx, KeySessions, s.sessions); err != nil {
		return err
	}
	activeID := ""
	for _, sess := range s.sessions {
		if sess.Active {
			activeID = sess.ID
			break
		}
	}
	return s.state.save(ctx, KeyActiveSessionID, activeID)
}
