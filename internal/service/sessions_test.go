package service_test

import (
	"context"
	"testing"

	"github.com/raphaelgruber/promptpad/internal/ledger"
	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/raphaelgruber/promptpad/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeIndex(sessions []models.Session) int {
	idx := -1
	for i, s := range sessions {
		if s.Active {
			if idx >= 0 {
				return -2
			}
			idx = i
		}
	}
	return idx
}

func TestOpenSeedsEmptyStore(t *testing.T) {
	env := newTestEnv(t)

	sessions := env.ws.Sessions.List()
	require.Len(t, sessions, 1)
	assert.Equal(t, "prompt1.txt", sessions[0].Name)
	assert.Equal(t, models.DefaultContent, sessions[0].Content)
	assert.True(t, sessions[0].Active)
	require.Len(t, sessions[0].Versions, 1)
	assert.Equal(t, models.DefaultContent, sessions[0].Versions[0].Content)
	assert.Nil(t, sessions[0].Versions[0].Description)
	assert.Equal(t, []models.Turn{user("")}, env.ws.Log.Turns())

	var stored []models.Session
	env.loadJSON(t, service.KeySessions, &stored)
	assert.Len(t, stored, 1)
	var activeID string
	env.loadJSON(t, service.KeyActiveSessionID, &activeID)
	assert.Equal(t, sessions[0].ID, activeID)
}

func TestOpenRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	second, err := env.ws.Sessions.Create(ctx, "notes.txt")
	require.NoError(t, err)
	require.NoError(t, env.ws.Sessions.UpdateContent(ctx, second.ID, "edited"))
	require.NoError(t, env.ws.Log.Edit(ctx, 0, "draft question"))
	env.configureModel(t)

	reopened := env.open(t)

	sessions := reopened.Sessions.List()
	require.Len(t, sessions, 2)
	active, ok := reopened.Sessions.Active()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "edited", active.Content)
	assert.Equal(t, []models.Turn{user("draft question")}, reopened.Log.Turns())
	assert.True(t, reopened.Models.Selection().Ready())
}

func TestOpenNormalizesActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Set(ctx, service.KeySessions, []byte(`[
		{"id":"a","name":"a.txt","content":"x","active":true},
		{"id":"b","name":"b.txt","content":"y","active":true}
	]`)))
	require.NoError(t, env.store.Set(ctx, service.KeyActiveSessionID, []byte(`"b"`)))
	sessions := env.open(t).Sessions.List()
	assert.Equal(t, 1, activeIndex(sessions))

	require.NoError(t, env.store.Set(ctx, service.KeyActiveSessionID, []byte(`"gone"`)))
	sessions = env.open(t).Sessions.List()
	assert.Equal(t, 0, activeIndex(sessions), "unknown active id falls back to the first session")
}

func TestOpenRejectsCorruptState(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Set(context.Background(), service.KeySessions, []byte(`{not json`)))

	_, err := service.Open(context.Background(), env.store, service.Dependencies{Completer: env.completer})
	assert.ErrorContains(t, err, "decode sessions")
}

func TestOpenRequiresCompleter(t *testing.T) {
	_, err := service.Open(context.Background(), newTestEnv(t).store, service.Dependencies{})
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.ws.Log.Edit(ctx, 0, "pending"))

	created, err := env.ws.Sessions.Create(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, "prompt2.txt", created.Name)
	assert.True(t, created.Active)
	require.Len(t, created.Versions, 1)

	sessions := env.ws.Sessions.List()
	require.Len(t, sessions, 2)
	assert.Equal(t, 1, activeIndex(sessions), "new session is appended and active")
	assert.Equal(t, []models.Turn{user("")}, env.ws.Log.Turns(), "conversation is reset")

	named, err := env.ws.Sessions.Create(ctx, "system.md")
	require.NoError(t, err)
	assert.Equal(t, "system.md", named.Name)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("last session", func(t *testing.T) {
		env := newTestEnv(t)
		only := env.ws.Sessions.List()[0]
		err := env.ws.Sessions.Remove(ctx, only.ID)
		assert.ErrorIs(t, err, service.ErrMinimumSessions)
		assert.Len(t, env.ws.Sessions.List(), 1)
	})

	t.Run("active of two", func(t *testing.T) {
		env := newTestEnv(t)
		first := env.ws.Sessions.List()[0]
		second, err := env.ws.Sessions.Create(ctx, "")
		require.NoError(t, err)

		require.NoError(t, env.ws.Sessions.Remove(ctx, second.ID))
		sessions := env.ws.Sessions.List()
		require.Len(t, sessions, 1)
		assert.Equal(t, first.ID, sessions[0].ID)
		assert.True(t, sessions[0].Active)
	})

	t.Run("active at position zero", func(t *testing.T) {
		env := newTestEnv(t)
		first := env.ws.Sessions.List()[0]
		second, _ := env.ws.Sessions.Create(ctx, "")
		_, _ = env.ws.Sessions.Create(ctx, "")
		require.NoError(t, env.ws.Sessions.Select(ctx, first.ID))

		require.NoError(t, env.ws.Sessions.Remove(ctx, first.ID))
		active, _ := env.ws.Sessions.Active()
		assert.Equal(t, second.ID, active.ID, "the session now at position 0 becomes active")
	})

	t.Run("active in the middle", func(t *testing.T) {
		env := newTestEnv(t)
		first := env.ws.Sessions.List()[0]
		second, _ := env.ws.Sessions.Create(ctx, "")
		_, _ = env.ws.Sessions.Create(ctx, "")
		require.NoError(t, env.ws.Sessions.Select(ctx, second.ID))
		require.NoError(t, env.ws.Log.Edit(ctx, 0, "pending"))

		require.NoError(t, env.ws.Sessions.Remove(ctx, second.ID))
		active, _ := env.ws.Sessions.Active()
		assert.Equal(t, first.ID, active.ID, "the previous session becomes active")
		assert.Equal(t, []models.Turn{user("")}, env.ws.Log.Turns())
	})

	t.Run("inactive keeps conversation", func(t *testing.T) {
		env := newTestEnv(t)
		first := env.ws.Sessions.List()[0]
		second, _ := env.ws.Sessions.Create(ctx, "")
		require.NoError(t, env.ws.Log.Edit(ctx, 0, "pending"))

		require.NoError(t, env.ws.Sessions.Remove(ctx, first.ID))
		active, _ := env.ws.Sessions.Active()
		assert.Equal(t, second.ID, active.ID)
		assert.Equal(t, []models.Turn{user("pending")}, env.ws.Log.Turns())
	})

	t.Run("unknown", func(t *testing.T) {
		env := newTestEnv(t)
		_, _ = env.ws.Sessions.Create(ctx, "")
		assert.ErrorIs(t, env.ws.Sessions.Remove(ctx, "nope"), service.ErrSessionNotFound)
	})
}

func TestSelect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.ws.Sessions.List()[0]
	_, err := env.ws.Sessions.Create(ctx, "")
	require.NoError(t, err)

	require.NoError(t, env.ws.Log.Edit(ctx, 0, "pending"))
	require.NoError(t, env.ws.Sessions.Select(ctx, first.ID))
	assert.Equal(t, 0, activeIndex(env.ws.Sessions.List()))
	assert.Equal(t, []models.Turn{user("")}, env.ws.Log.Turns())

	require.NoError(t, env.ws.Log.Edit(ctx, 0, "again"))
	require.NoError(t, env.ws.Sessions.Select(ctx, first.ID))
	assert.Equal(t, []models.Turn{user("")}, env.ws.Log.Turns(), "re-selecting the active session still resets")

	assert.ErrorIs(t, env.ws.Sessions.Select(ctx, "nope"), service.ErrSessionNotFound)
}

func TestRenameAndUpdateContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.ws.Sessions.List()[0]

	require.NoError(t, env.ws.Sessions.Rename(ctx, s.ID, "renamed.txt"))
	require.NoError(t, env.ws.Sessions.UpdateContent(ctx, s.ID, "new content"))

	got, err := env.ws.Sessions.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", got.Name)
	assert.Equal(t, "new content", got.Content)
	assert.Len(t, got.Versions, 1, "editing content does not capture a version")

	assert.ErrorIs(t, env.ws.Sessions.Rename(ctx, "nope", "x"), service.ErrSessionNotFound)
	_, err = env.ws.Sessions.Get("nope")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestReorder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.ws.Sessions.List()[0]
	b, _ := env.ws.Sessions.Create(ctx, "")
	c, _ := env.ws.Sessions.Create(ctx, "")
	require.NoError(t, env.ws.Sessions.UpdateContent(ctx, a.ID, "content a"))

	require.NoError(t, env.ws.Sessions.Reorder(ctx, []string{c.ID, a.ID, b.ID}))

	sessions := env.ws.Sessions.List()
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{sessions[0].ID, sessions[1].ID, sessions[2].ID})
	assert.True(t, sessions[0].Active, "active flag travels with the session")
	assert.Equal(t, "content a", sessions[1].Content)

	tests := []struct {
		name string
		ids  []string
	}{
		{"too few", []string{a.ID, b.ID}},
		{"unknown", []string{a.ID, b.ID, "x"}},
		{"repeated", []string{a.ID, a.ID, b.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, env.ws.Sessions.Reorder(ctx, tt.ids), service.ErrInvalidOrder)
		})
	}
}

func TestMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.ws.Sessions.List()[0]
	b, _ := env.ws.Sessions.Create(ctx, "")
	c, _ := env.ws.Sessions.Create(ctx, "")

	require.NoError(t, env.ws.Sessions.Move(ctx, c.ID, 0))
	ids := func() []string {
		var out []string
		for _, s := range env.ws.Sessions.List() {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids())

	require.NoError(t, env.ws.Sessions.Move(ctx, c.ID, 99))
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids())

	assert.ErrorIs(t, env.ws.Sessions.Move(ctx, "nope", 0), service.ErrSessionNotFound)
}

func TestRestoreVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.ws.Sessions.List()[0]
	original := s.Versions[0]

	require.NoError(t, env.ws.Sessions.UpdateContent(ctx, s.ID, "changed"))
	restored, err := env.ws.Sessions.RestoreVersion(ctx, s.ID, original.ID)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultContent, restored.Content)
	assert.Len(t, restored.Versions, 1, "restore adds no snapshot")

	_, err = env.ws.Sessions.RestoreVersion(ctx, s.ID, "missing")
	assert.ErrorIs(t, err, ledger.ErrVersionNotFound)
	_, err = env.ws.Sessions.RestoreVersion(ctx, "nope", original.ID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestExportOmitsTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.ws.Models.Add(ctx, models.ModelConfig{ModelID: "ep-1", APIToken: "model-secret"}))
	require.NoError(t, env.ws.Models.SetToken(ctx, "global-secret"))

	export := env.ws.Export()
	require.Len(t, export.Models, 1)
	assert.Empty(t, export.Models[0].APIToken)
	assert.Len(t, export.Sessions, 1)
	assert.Equal(t, export.Sessions[0].ID, export.ActiveSessionID)

	assert.Equal(t, "model-secret", env.ws.Models.List().Models[0].APIToken, "export must not mutate state")
}
