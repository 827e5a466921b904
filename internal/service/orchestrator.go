package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/promptpad/internal/conversation"
	"github.com/raphaelgruber/promptpad/internal/ledger"
	"github.com/raphaelgruber/promptpad/internal/llm"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// ErrSubmitInProgress is returned when a session already has a submit in flight.
var ErrSubmitInProgress = errors.New("a submit is already in progress for this session")

// State is the orchestrator's submit state.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateError      State = "error"
)

// Orchestrator sequences a submit: capture a version of the active
// session's content, request a completion, then update the conversation.
type Orchestrator struct {
	sessions  *SessionStore
	log       *conversation.Log
	models    *ModelConfigService
	ledger    *ledger.Ledger
	completer llm.Completer
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// State reports Submitting while any submit is in flight, Error when the
// last completion failed and the conversation still carries its error, and
// Idle otherwise.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	submitting := len(o.inflight) > 0
	o.mu.Unlock()

	switch {
	case submitting:
		return StateSubmitting
	case o.log.Err() != "":
		return StateError
	default:
		return StateIdle
	}
}

// Submit sends the user turn at index. Blank or non-user turns are ignored.
// Turns after index are dropped from the resulting conversation.
//
// Completion failures are recorded on the conversation, not returned.
// Submit returns an error only for a bad index, a concurrent submit on the
// same session, or a failed state write.
func (o *Orchestrator) Submit(ctx context.Context, index int) error {
	epoch := o.log.Epoch()
	turns := o.log.Turns()

	if index < 0 || index >= len(turns) {
		return fmt.Errorf("%w: index %d of %d", conversation.ErrTurnNotFound, index, len(turns))
	}
	turn := turns[index]
	if turn.Role != models.RoleUser || turn.IsBlank() {
		return nil
	}

	session, ok := o.sessions.Active()
	if !ok {
		return ErrSessionNotFound
	}

	if !o.begin(session.ID) {
		return ErrSubmitInProgress
	}
	defer o.end(session.ID)

	o.log.ClearError()

	relevant := models.CloneTurns(turns[:index])
	updated := models.CloneTurns(turns[:index+1])

	sel := o.models.Selection()
	if err := o.capture(ctx, sel, session); err != nil {
		return err
	}

	o.logger.Info("submitting", "session", session.ID, "turn", index, "history", len(relevant))
	reply, err := o.completer.Complete(ctx, sel, session.Content, turn.Content, relevant)

	var applied bool
	var saveErr error
	if err != nil {
		o.logger.Warn("completion failed", "session", session.ID, "error", err)
		applied, saveErr = o.log.ApplyFailure(ctx, epoch, updated, err.Error())
	} else {
		applied, saveErr = o.log.ApplyReply(ctx, epoch, updated, reply)
	}

	if !applied {
		o.logger.Info("discarding completion result, conversation was reset", "session", session.ID)
	}
	return saveErr
}

// Capture records a snapshot of a session's current content if it differs
// from the newest one, and returns the updated session. It shares the
// submit guard, so it fails with ErrSubmitInProgress while a submit on the
// same session is pending.
func (o *Orchestrator) Capture(ctx context.Context, sessionID string) (models.Session, error) {
	if !o.begin(sessionID) {
		return models.Session{}, ErrSubmitInProgress
	}
	defer o.end(sessionID)

	session, err := o.sessions.Get(sessionID)
	if err != nil {
		return models.Session{}, err
	}
	if err := o.capture(ctx, o.models.Selection(), session); err != nil {
		return models.Session{}, err
	}
	return o.sessions.Get(sessionID)
}

// capture writes the ledger for session. A session removed in the meantime
// is skipped.
func (o *Orchestrator) capture(ctx context.Context, sel models.ModelSelection, session models.Session) error {
	versions := o.ledger.AppendIfChanged(ctx, sel, session)
	if len(versions) == len(session.Versions) && (len(versions) == 0 || versions[0].ID == session.Versions[0].ID) {
		return nil
	}

	err := o.sessions.SetVersions(ctx, session.ID, versions)
	if errors.Is(err, ErrSessionNotFound) {
		o.logger.Info("session removed before version capture", "session", session.ID)
		return nil
	}
	return err
}

func (o *Orchestrator) begin(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inflight[sessionID]; busy {
		return false
	}
	o.inflight[sessionID] = struct{}{}
	return true
}

func (o *Orchestrator) end(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, sessionID)
}
