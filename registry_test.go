package statusicon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsBlankIdentifier(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create(Options{ID: "   "})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRegistryRejectsDuplicateBeforeAnyBusIO(t *testing.T) {
	previous := sessionBus
	sessionBus = func() (conn, error) {
		return nil, errors.New("sessionBus must not be touched by validation")
	}
	t.Cleanup(func() { sessionBus = previous })

	r := NewRegistry()
	defer r.Close()

	first, err := r.Create(Options{ID: "mail"})
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = r.Create(Options{ID: "mail"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegistryLookupAndSnapshot(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	created, err := r.Create(Options{ID: "mail"})
	require.NoError(t, err)

	found, ok := r.Get("mail")
	require.True(t, ok)
	assert.Same(t, created, found)

	_, ok = r.Get("unknown")
	assert.False(t, ok)

	ids := r.IDs()
	assert.Equal(t, []string{"mail"}, ids)

	// The snapshot is a copy, not a view of the live map.
	ids[0] = "mutated"
	_, ok = r.Get("mail")
	assert.True(t, ok)
}

func TestRegistryRemoveDisposesItem(t *testing.T) {
	r := NewRegistry()

	item, err := r.Create(Options{ID: "mail"})
	require.NoError(t, err)

	r.Remove("mail")

	_, ok := r.Get("mail")
	assert.False(t, ok)
	assert.ErrorIs(t, item.SetTooltip("late"), ErrDisposed)

	// The identifier is free again.
	_, err = r.Create(Options{ID: "mail"})
	assert.NoError(t, err)

	r.Remove("never-registered")
	r.Close()
}
