package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecentTurns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, utterance := range []string{"play shape of you", "search for lofi beats", "play number 2"} {
		err := store.Record(ctx, Turn{
			SessionID:  "sess-1",
			Utterance:  utterance,
			Intent:     "play_by_name",
			Response:   "ok",
			DurationMS: int64(10 + i),
		})
		require.NoError(t, err)
	}
	require.NoError(t, store.Record(ctx, Turn{
		SessionID: "sess-2",
		Utterance: "other session",
		Intent:    "song_info",
		ErrorKind: "backend_error",
	}))

	turns, err := store.RecentTurns(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "play number 2", turns[0].Utterance, "newest first")
	assert.Equal(t, "search for lofi beats", turns[1].Utterance)
	assert.False(t, turns[0].CreatedAt.IsZero())

	turns, err = store.RecentTurns(ctx, "sess-2", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "backend_error", turns[0].ErrorKind)
}

func TestRecentTurnsEmptySession(t *testing.T) {
	store := newTestStore(t)
	turns, err := store.RecentTurns(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
