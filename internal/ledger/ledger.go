// Package ledger maintains the bounded, newest-first snapshot history of a
// session's content.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// ErrVersionNotFound is returned when restoring an unknown snapshot.
var ErrVersionNotFound = errors.New("version not found")

// Describer produces a short description of a content change. It must not
// fail; a nil result means no description.
type Describer interface {
	Describe(ctx context.Context, sel models.ModelSelection, oldContent *string, newContent string) *string
}

// Ledger appends and restores version snapshots.
type Ledger struct {
	describer Describer
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the snapshot ID source.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a Ledger. describer may be nil, in which case snapshots carry
// no description.
func New(describer Describer, opts ...Option) *Ledger {
	l := &Ledger{
		describer: describer,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Snapshot builds a new snapshot of content stamped with the ledger's clock.
func (l *Ledger) Snapshot(content string, description *string) models.VersionSnapshot {
	return models.VersionSnapshot{
		ID:          l.newID(),
		Content:     content,
		Timestamp:   l.now().UnixMilli(),
		Description: description,
	}
}

// AppendIfChanged returns the session's versions with a snapshot of its
// current content prepended, truncated to models.MaxVersions. When the
// newest snapshot already holds the current content the versions are
// returned unchanged and the describer is not consulted.
func (l *Ledger) AppendIfChanged(ctx context.Context, sel models.ModelSelection, session models.Session) []models.VersionSnapshot {
	latest := session.Latest()
	if latest != nil && latest.Content == session.Content {
		return session.Clone().Versions
	}

	var oldContent *string
	if latest != nil {
		oldContent = models.Ptr(latest.Content)
	}

	var description *string
	if l.describer != nil {
		description = l.describer.Describe(ctx, sel, oldContent, session.Content)
	}

	versions := make([]models.VersionSnapshot, 0, min(len(session.Versions)+1, models.MaxVersions))
	versions = append(versions, l.Snapshot(session.Content, description))
	for _, v := range session.Versions {
		if len(versions) == models.MaxVersions {
			break
		}
		versions = append(versions, v)
	}
	return versions
}

// Restore returns the session with its content replaced by the snapshot's.
// The ledger itself is left untouched: no snapshot is added and none are
// reordered, so the restored state is only captured on the next append.
func Restore(session models.Session, snapshotID string) (models.Session, error) {
	v := session.FindVersion(snapshotID)
	if v == nil {
		return session, ErrVersionNotFound
	}
	restored := session.Clone()
	restored.Content = v.Content
	return restored, nil
}
