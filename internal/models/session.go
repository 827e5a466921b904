// Package models defines data structures for promptpad sessions and conversations.
package models

// MaxVersions bounds the number of snapshots a session keeps.
const MaxVersions = 10

// DefaultContent is the content of a freshly created session.
const DefaultContent = "# System Prompt\nYou are a helpful assistant."

// Session is an independently editable prompt with its own version ledger.
type Session struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Content  string            `json:"content" yaml:"content"`
	Active   bool              `json:"active" yaml:"active"`
	Versions []VersionSnapshot `json:"versions,omitempty" yaml:"versions,omitempty"`
}

// VersionSnapshot is an immutable captured content state.
// Timestamp is in unix milliseconds.
type VersionSnapshot struct {
	ID          string  `json:"id" yaml:"id"`
	Content     string  `json:"content" yaml:"content"`
	Timestamp   int64   `json:"timestamp" yaml:"timestamp"`
	Description *string `json:"description" yaml:"description"`
}

// Latest returns the newest snapshot, or nil when the ledger is empty.
func (s *Session) Latest() *VersionSnapshot {
	if len(s.Versions) == 0 {
		return nil
	}
	return &s.Versions[0]
}

// FindVersion returns the snapshot with the given ID, or nil.
func (s *Session) FindVersion(id string) *VersionSnapshot {
	for i := range s.Versions {
		if s.Versions[i].ID == id {
			return &s.Versions[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias the ledger slice.
func (s Session) Clone() Session {
	if s.Versions != nil {
		versions := make([]VersionSnapshot, len(s.Versions))
		copy(versions, s.Versions)
		s.Versions = versions
	}
	return s
}
