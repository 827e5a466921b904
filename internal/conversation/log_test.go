package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	saved [][]models.Turn
	err   error
}

func (r *recordingSaver) SaveConversation(_ context.Context, turns []models.Turn) error {
	r.saved = append(r.saved, turns)
	return r.err
}

func user(s string) models.Turn      { return models.Turn{Role: models.RoleUser, Content: s} }
func assistant(s string) models.Turn { return models.Turn{Role: models.RoleAssistant, Content: s} }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Turn
		want []models.Turn
	}{
		{"empty", nil, []models.Turn{user("")}},
		{"ends with assistant", []models.Turn{user("q"), assistant("a")}, []models.Turn{user("q"), assistant("a"), user("")}},
		{"already valid", []models.Turn{user("q")}, []models.Turn{user("q")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestEdit(t *testing.T) {
	saver := &recordingSaver{}
	log := New([]models.Turn{user("q1"), assistant("a1"), user("")}, saver)

	require.NoError(t, log.Edit(context.Background(), 0, "q1 edited"))

	assert.Equal(t, []models.Turn{user("q1 edited"), assistant("a1"), user("")}, log.Turns(), "edit does not truncate")
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "q1 edited", saver.saved[0][0].Content)

	err := log.Edit(context.Background(), 3, "x")
	assert.ErrorIs(t, err, ErrTurnNotFound)
	assert.ErrorIs(t, log.Edit(context.Background(), -1, "x"), ErrTurnNotFound)
}

func TestClearAndReset(t *testing.T) {
	for name, reset := range map[string]func(*Log, context.Context) error{
		"clear": (*Log).Clear,
		"reset": (*Log).Reset,
	} {
		t.Run(name, func(t *testing.T) {
			log := New([]models.Turn{user("q"), assistant("a"), user("")}, nil)
			_, err := log.ApplyFailure(context.Background(), log.Epoch(), []models.Turn{user("q")}, "boom")
			require.NoError(t, err)
			before := log.Epoch()

			require.NoError(t, reset(log, context.Background()))

			assert.Equal(t, []models.Turn{user("")}, log.Turns())
			assert.Empty(t, log.Err())
			assert.Greater(t, log.Epoch(), before)
		})
	}
}

func TestApplyReply(t *testing.T) {
	log := New(nil, nil)
	history := []models.Turn{user("hi")}

	ok, err := log.ApplyReply(context.Background(), log.Epoch(), history, "hello")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []models.Turn{user("hi"), assistant("hello"), user("")}, log.Turns())
	assert.Empty(t, log.Err())
}

func TestApplyFailure(t *testing.T) {
	log := New(nil, nil)

	ok, err := log.ApplyFailure(context.Background(), log.Epoch(), []models.Turn{user("hi")}, "API Error: bad token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []models.Turn{user("hi"), user("")}, log.Turns())
	assert.Equal(t, "API Error: bad token", log.Err())

	log.ClearError()
	assert.Empty(t, log.Err())
}

func TestApplyDiscardedAfterReset(t *testing.T) {
	log := New(nil, nil)
	epoch := log.Epoch()
	require.NoError(t, log.Reset(context.Background()))

	ok, err := log.ApplyReply(context.Background(), epoch, []models.Turn{user("hi")}, "late")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []models.Turn{user("")}, log.Turns())

	ok, err = log.ApplyFailure(context.Background(), epoch, []models.Turn{user("hi")}, "late")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, log.Err())
}

func TestSaveErrorIsWrapped(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	log := New(nil, saver)

	err := log.Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save conversation")
	assert.ErrorIs(t, err, saver.err)
}

func TestTurnsReturnsCopy(t *testing.T) {
	log := New([]models.Turn{user("q")}, nil)
	turns := log.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "q", log.Turns()[0].Content)
}
