package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/substitution"
)

func TestBoardStoreExpiresIdleBoards(t *testing.T) {
	store := newBoardStore(time.Hour)
	clock := time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	entry := store.acquire("2025-01-06")
	entry.board = substitution.NewBoard(substitution.BoardInput{Date: clock})
	store.release(entry)

	again := store.peek("2025-01-06")
	require.NotNil(t, again)
	store.release(again)

	clock = clock.Add(2 * time.Hour)
	assert.Nil(t, store.peek("2025-01-06"))
	assert.Equal(t, 0, store.size())
}

func TestBoardStorePeekIgnoresUnbuiltEntries(t *testing.T) {
	store := newBoardStore(0)
	entry := store.acquire("2025-01-07")
	store.release(entry)

	assert.Nil(t, store.peek("2025-01-07"))
	assert.Equal(t, 1, store.size())

	store.drop("2025-01-07")
	assert.Equal(t, 0, store.size())
}
