// Package service implements promptpad's session, model configuration and
// completion workflows on top of a key/value store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/promptpad/internal/db"
	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// Store keys. Each holds one JSON document that is rewritten in full.
const (
	KeySessions        = "sessions"
	KeyActiveSessionID = "active_session_id"
	KeyConversation    = "conversation"
	KeyModelConfigs    = "model_configs"
)

// stateStore encodes application state as JSON documents in a db.Store.
type stateStore struct {
	store   db.Store
	logger  *slog.Logger
	metrics *metrics.Collector
}

// load decodes key into v. It reports false when the key does not exist.
func (s *stateStore) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *stateStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	start := time.Now()
	err = s.store.Set(ctx, key, data)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("state write failed", "key", key, "error", err)
		if s.metrics != nil {
			s.metrics.RecordFailure(metrics.OpStoreWrite)
		}
		return fmt.Errorf("save %s: %w", key, err)
	}
	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpStoreWrite, duration)
	}
	s.logger.Debug("state written", "key", key, "bytes", len(data), "duration_ms", duration.Milliseconds())
	return nil
}

// SaveConversation implements conversation.Saver.
func (s *stateStore) SaveConversation(ctx context.Context, turns []models.Turn) error {
	return s.save(ctx, KeyConversation, turns)
}
