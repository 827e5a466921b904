package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/promptpad/internal/conversation"
	"github.com/raphaelgruber/promptpad/internal/db"
	"github.com/raphaelgruber/promptpad/internal/ledger"
	"github.com/raphaelgruber/promptpad/internal/llm"
	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// Dependencies are the collaborators a Workspace is built from.
type Dependencies struct {
	// Completer is required.
	Completer llm.Completer

	// Describer defaults to an llm.Summarizer over Completer.
	Describer ledger.Describer

	Logger  *slog.Logger
	Metrics *metrics.Collector

	// Clock and NewID override snapshot timestamps and IDs (tests).
	Clock func() time.Time
	NewID func() string
}

// Workspace bundles the services operating on one state store.
type Workspace struct {
	Sessions     *SessionStore
	Log          *conversation.Log
	Models       *ModelConfigService
	Orchestrator *Orchestrator

	store db.Store
}

// Open loads state from store. An empty store is seeded with a single
// prompt1.txt session.
func Open(ctx context.Context, store db.Store, deps Dependencies) (*Workspace, error) {
	if deps.Completer == nil {
		return nil, errors.New("completer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	describer := deps.Describer
	if describer == nil {
		describer = llm.NewSummarizer(deps.Completer, logger, deps.Metrics)
	}

	var ledgerOpts []ledger.Option
	if deps.Clock != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(deps.Clock))
	}
	if deps.NewID != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithIDGenerator(deps.NewID))
	}
	l := ledger.New(describer, ledgerOpts...)

	state := &stateStore{store: store, logger: logger, metrics: deps.Metrics}

	var sessions []models.Session
	if _, err := state.load(ctx, KeySessions, &sessions); err != nil {
		return nil, err
	}
	var activeID string
	if _, err := state.load(ctx, KeyActiveSessionID, &activeID); err != nil {
		return nil, err
	}
	var turns []models.Turn
	if _, err := state.load(ctx, KeyConversation, &turns); err != nil {
		return nil, err
	}
	var modelConfigs models.ModelConfigs
	if _, err := state.load(ctx, KeyModelConfigs, &modelConfigs); err != nil {
		return nil, err
	}

	log := conversation.New(turns, state)
	sessionStore := newSessionStore(normalizeActive(sessions, activeID), state, log, l)
	if deps.NewID != nil {
		sessionStore.newID = deps.NewID
	}

	if len(sessions) == 0 {
		logger.Info("no sessions stored, creating the first one")
		if _, err := sessionStore.Create(ctx, ""); err != nil {
			return nil, fmt.Errorf("create initial session: %w", err)
		}
	}

	modelService := &ModelConfigService{cfg: modelConfigs, state: state}

	return &Workspace{
		Sessions: sessionStore,
		Log:      log,
		Models:   modelService,
		Orchestrator: &Orchestrator{
			sessions:  sessionStore,
			log:       log,
			models:    modelService,
			ledger:    l,
			completer: deps.Completer,
			logger:    logger,
			inflight:  make(map[string]struct{}),
		},
		store: store,
	}, nil
}

// normalizeActive marks exactly one session active: the one matching
// activeID, else the first.
func normalizeActive(sessions []models.Session, activeID string) []models.Session {
	if len(sessions) == 0 {
		return nil
	}
	found := false
	for i := range sessions {
		sessions[i].Active = !found && sessions[i].ID == activeID
		found = found || sessions[i].Active
	}
	if !found {
		sessions[0].Active = true
	}
	return sessions
}

// Close closes the underlying store.
func (w *Workspace) Close(ctx context.Context) error {
	return w.store.Close(ctx)
}

// Export is a token-free snapshot of the whole workspace.
type Export struct {
	Sessions        []models.Session     `json:"sessions" yaml:"sessions"`
	ActiveSessionID string               `json:"activeSessionId" yaml:"active_session_id"`
	Conversation    []models.Turn        `json:"conversation" yaml:"conversation"`
	Models          []models.ModelConfig `json:"models" yaml:"models"`
	SelectedModelID *string              `json:"selectedModelId" yaml:"selected_model_id"`
	ExportedAt      time.Time            `json:"exportedAt" yaml:"exported_at"`
}

// Export collects the current state. Access tokens are omitted.
func (w *Workspace) Export() Export {
	sessions := w.Sessions.List()
	active, _ := w.Sessions.Active()
	cfg := w.Models.List()

	modelList := make([]models.ModelConfig, len(cfg.Models))
	for i, m := range cfg.Models {
		m.APIToken = ""
		modelList[i] = m
	}

	return Export{
		Sessions:        sessions,
		ActiveSessionID: active.ID,
		Conversation:    w.Log.Turns(),
		Models:          modelList,
		SelectedModelID: cfg.SelectedModelID,
		ExportedAt:      time.Now().UTC(),
	}
}
