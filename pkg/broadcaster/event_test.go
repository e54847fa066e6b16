package broadcaster_test

import (
	"testing"

	"github.com/leighmacdonald/combatlog/pkg/broadcaster"
	"github.com/stretchr/testify/require"
)

type eventType int

const (
	created eventType = iota
	deleted
)

func TestBroadcaster(t *testing.T) {
	events := broadcaster.New[eventType, string]()

	allChan := make(chan string, 4)
	createdChan := make(chan string, 4)

	require.NoError(t, events.Consume(allChan))
	require.ErrorIs(t, events.Consume(allChan), broadcaster.ErrDuplicateChannel)
	require.NoError(t, events.Consume(createdChan, created))

	events.Emit(created, "a")
	events.Emit(deleted, "b")

	require.Equal(t, "a", <-allChan)
	require.Equal(t, "b", <-allChan)
	require.Equal(t, "a", <-createdChan)
	require.Empty(t, createdChan)

	require.NoError(t, events.Unregister(createdChan))
	events.Emit(created, "c")

	require.Equal(t, "c", <-allChan)
	require.Empty(t, createdChan)
}

func TestBroadcasterNoReaders(t *testing.T) {
	events := broadcaster.New[eventType, int]()

	// Must not block.
	events.Emit(created, 1)
}
