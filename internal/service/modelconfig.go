package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/raphaelgruber/promptpad/internal/models"
)

// Sentinel errors for model configuration.
var (
	ErrModelNotFound  = errors.New("model not found")
	ErrDuplicateModel = errors.New("model already configured")
	ErrInvalidModel   = errors.New("model ID is required")
)

// ModelConfigService edits the persisted model configuration and resolves
// the selection used for completions.
type ModelConfigService struct {
	mu    sync.Mutex
	cfg   models.ModelConfigs
	state *stateStore
}

// List returns a copy of the configuration.
func (s *ModelConfigService) List() models.ModelConfigs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Selection resolves the model and token a completion should use.
func (s *ModelConfigService) Selection() models.ModelSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Selection()
}

// Add appends a model. The name defaults to the model ID.
func (s *ModelConfigService) Add(ctx context.Context, m models.ModelConfig) error {
	m.ModelID = strings.TrimSpace(m.ModelID)
	if m.ModelID == "" {
		return ErrInvalidModel
	}
	if m.ModelName == "" {
		m.ModelName = m.ModelID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(m.ModelID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, m.ModelID)
	}
	s.cfg.Models = append(s.cfg.Models, m)
	return s.persist(ctx)
}

// Remove deletes a model. Removing the selected model selects the first
// remaining one, or nothing.
func (s *ModelConfigService) Remove(ctx context.Context, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(modelID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	s.cfg.Models = append(s.cfg.Models[:i], s.cfg.Models[i+1:]...)

	if s.cfg.SelectedModelID != nil && *s.cfg.SelectedModelID == modelID {
		s.cfg.SelectedModelID = nil
		if len(s.cfg.Models) > 0 {
			s.cfg.SelectedModelID = models.Ptr(s.cfg.Models[0].ModelID)
		}
	}
	return s.persist(ctx)
}

// Select marks a configured model as the one to use.
func (s *ModelConfigService) Select(ctx context.Context, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(modelID) < 0 {
		return fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	s.cfg.SelectedModelID = models.Ptr(modelID)
	return s.persist(ctx)
}

// SetToken sets the global access token.
func (s *ModelConfigService) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.APIToken = strings.TrimSpace(token)
	return s.persist(ctx)
}

func (s *ModelConfigService) copyLocked() models.ModelConfigs {
	out := s.cfg
	out.Models = append([]models.ModelConfig(nil), s.cfg.Models...)
	if s.cfg.SelectedModelID != nil {
		out.SelectedModelID = models.Ptr(*s.cfg.SelectedModelID)
	}
	return out
}

func (s *ModelConfigService) indexOf(modelID string) int {
	for i := range s.cfg.Models {
		if s.cfg.Models[i].ModelID == modelID {
			return i
		}
	}
	return -1
}

func (s *ModelConfigService) persist(ctx context.Context) error {
	return s.state.save(ctx, KeyModelConfigs, s.cfg)
}
