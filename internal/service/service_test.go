package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/promptpad/internal/config"
	"github.com/raphaelgruber/promptpad/internal/db"
	"github.com/raphaelgruber/promptpad/internal/llm"
	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/raphaelgruber/promptpad/internal/service"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a fixed reply or error. When release is set, calls
// block until it is closed.
type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	release chan struct{}
	started chan struct{}
	calls   []fakeCall
}

type fakeCall struct {
	systemPrompt string
	userPrompt   string
	history      []models.Turn
}

func (f *fakeCompleter) Complete(_ context.Context, sel models.ModelSelection, systemPrompt, userPrompt string, history []models.Turn) (string, error) {
	if !sel.Ready() {
		return "", llm.ErrConfiguration
	}
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{systemPrompt, userPrompt, models.CloneTurns(history)})
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return f.reply, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeDescriber counts calls and returns a fixed description.
type fakeDescriber struct {
	mu    sync.Mutex
	calls int
}

func (d *fakeDescriber) Describe(_ context.Context, _ models.ModelSelection, oldContent *string, _ string) *string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if oldContent == nil {
		return nil
	}
	return models.Ptr(fmt.Sprintf("change %d", d.calls))
}

type testEnv struct {
	store     *db.MemoryStore
	completer *fakeCompleter
	describer *fakeDescriber
	ws        *service.Workspace
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     db.NewMemoryStore(),
		completer: &fakeCompleter{reply: "hello"},
		describer: &fakeDescriber{},
	}
	env.ws = env.open(t)
	return env
}

// open (re)opens a workspace over the env's store.
func (e *testEnv) open(t *testing.T) *service.Workspace {
	t.Helper()
	ws, err := service.Open(context.Background(), e.store, service.Dependencies{
		Completer: e.completer,
		Describer: e.describer,
		Logger:    config.DiscardLogger(),
		Clock:     func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		NewID:     sequentialIDs(),
	})
	require.NoError(t, err)
	return ws
}

// configureModel adds a ready model selection.
func (e *testEnv) configureModel(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.ws.Models.Add(ctx, models.ModelConfig{ModelID: "ep-1", ModelName: "Model 1"}))
	require.NoError(t, e.ws.Models.SetToken(ctx, "token"))
}

func (e *testEnv) loadJSON(t *testing.T, key string, v any) {
	t.Helper()
	data, err := e.store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func user(s string) models.Turn      { return models.Turn{Role: models.RoleUser, Content: s} }
func assistant(s string) models.Turn { return models.Turn{Role: models.RoleAssistant, Content: s} }
