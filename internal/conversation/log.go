// Package conversation holds the transcript exchanged with the completion
// service for the active session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raphaelgruber/promptpad/internal/models"
)

// ErrTurnNotFound is returned for an out-of-range turn index.
var ErrTurnNotFound = errors.New("turn not found")

// Saver persists the transcript after every mutation.
type Saver interface {
	SaveConversation(ctx context.Context, turns []models.Turn) error
}

// Log is the ordered transcript plus the last completion error.
// The transcript is never empty and always ends with a user turn.
//
// Every reset advances the epoch. Writers that started before a reset pass
// the epoch they observed and are discarded if it moved.
type Log struct {
	mu    sync.Mutex
	turns []models.Turn
	err   string
	epoch uint64
	saver Saver
}

// New creates a log from previously stored turns. saver may be nil.
func New(turns []models.Turn, saver Saver) *Log {
	return &Log{turns: Normalize(turns), saver: saver}
}

// Normalize returns a copy of turns that is non-empty and ends with a user turn.
func Normalize(turns []models.Turn) []models.Turn {
	out := models.CloneTurns(turns)
	if len(out) == 0 || out[len(out)-1].Role != models.RoleUser {
		out = append(out, models.EmptyUserTurn())
	}
	return out
}

// Turns returns a copy of the transcript.
func (l *Log) Turns() []models.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return models.CloneTurns(l.turns)
}

// Err returns the message of the last failed completion, or "".
func (l *Log) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Epoch returns the current reset epoch.
func (l *Log) Epoch() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

// Edit replaces the content of the turn at index. Later turns are kept.
func (l *Log) Edit(ctx context.Context, index int, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.turns) {
		return fmt.Errorf("%w: index %d of %d", ErrTurnNotFound, index, len(l.turns))
	}
	l.turns[index].Content = content
	return l.save(ctx)
}

// Clear resets the transcript to a single empty user turn and clears the error.
func (l *Log) Clear(ctx context.Context) error {
	return l.Reset(ctx)
}

// Reset is Clear for callers that reset as a side effect of switching
// sessions. Both advance the epoch.
func (l *Log) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = []models.Turn{models.EmptyUserTurn()}
	l.err = ""
	l.epoch++
	return l.save(ctx)
}

// ClearError drops the stored error without touching the transcript.
func (l *Log) ClearError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = ""
}

// ApplyReply sets the transcript to history + assistant(reply) + empty user
// turn. It reports false, changing nothing, when the epoch moved.
func (l *Log) ApplyReply(ctx context.Context, epoch uint64, history []models.Turn, reply string) (bool, error) {
	turns := models.CloneTurns(history)
	turns = append(turns, models.Turn{Role: models.RoleAssistant, Content: reply}, models.EmptyUserTurn())
	return l.apply(ctx, epoch, turns, "")
}

// ApplyFailure sets the transcript to history + empty user turn and records
// msg as the error. It reports false, changing nothing, when the epoch moved.
func (l *Log) ApplyFailure(ctx context.Context, epoch uint64, history []models.Turn, msg string) (bool, error) {
	turns := models.CloneTurns(history)
	turns = append(turns, models.EmptyUserTurn())
	return l.apply(ctx, epoch, turns, msg)
}

func (l *Log) apply(ctx context.Context, epoch uint64, turns []models.Turn, errMsg string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if epoch != l.epoch {
		return false, nil
	}
	l.turns = turns
	l.err = errMsg
	return true, l.save(ctx)
}

// save must be called with mu held.
func (l *Log) save(ctx context.Context) error {
	if l.saver == nil {
		return nil
	}
	if err := l.saver.SaveConversation(ctx, models.CloneTurns(l.turns)); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}
