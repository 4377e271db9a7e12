// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retention

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-podcast/internal/audio"
	"github.com/pdiddy/research-podcast/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDisabledWithoutSchedule(t *testing.T) {
	j, err := New(nil, types.RetentionConfig{}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, types.RetentionConfig{Schedule: "@hourly"}, discardLogger())
	assert.ErrorIs(t, err, ErrNoMaxAge)

	_, err = New(nil, types.RetentionConfig{Schedule: "not a schedule", MaxAge: time.Hour}, discardLogger())
	assert.Error(t, err)
}

func TestRunOnceRemovesOldArtifacts(t *testing.T) {
	store, err := audio.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Write("old.mp3", []byte("old")))
	require.NoError(t, store.Write("new.mp3", []byte("new")))

	now := time.Now()
	old := now.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), "old.mp3"), old, old))

	j, err := New(store, types.RetentionConfig{Schedule: "@daily", MaxAge: 24 * time.Hour}, discardLogger())
	require.NoError(t, err)
	j.now = func() time.Time { return now }

	assert.Equal(t, []string{"old.mp3"}, j.RunOnce())
	assert.False(t, store.Exists("old.mp3"))
	assert.True(t, store.Exists("new.mp3"))
}

type countingSweeper struct{ calls chan struct{} }

func (c countingSweeper) Sweep(time.Duration, time.Time) ([]string, error) {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return nil, nil
}

func TestScheduleFires(t *testing.T) {
	calls := make(chan struct{}, 1)
	j, err := New(countingSweeper{calls: calls}, types.RetentionConfig{Schedule: "@every 1s", MaxAge: time.Hour}, discardLogger())
	require.NoError(t, err)
	j.Start()
	defer j.Stop()

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run")
	}
}
