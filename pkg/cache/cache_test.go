package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 0)
	defer m.Close()

	require.NoError(t, m.SetJSON(ctx, ProductKey("1"), entry{Name: "Boots", Stock: 3}, 0))

	var got entry
	found, err := m.GetJSON(ctx, ProductKey("1"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Name: "Boots", Stock: 3}, got)

	found, err = m.GetJSON(ctx, ProductKey("2"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 0)
	defer m.Close()

	require.NoError(t, m.SetJSON(ctx, "k", entry{}, time.Nanosecond))
	time.Sleep(time.Millisecond)

	var got entry
	found, err := m.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 0)
	defer m.Close()

	require.NoError(t, m.SetJSON(ctx, ProductListPrefix+"p1", 1, 0))
	require.NoError(t, m.SetJSON(ctx, ProductListPrefix+"p2", 2, 0))
	require.NoError(t, m.SetJSON(ctx, UserKey("u"), 3, 0))

	require.NoError(t, m.DeletePrefix(ctx, ProductListPrefix))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, UserKey("u")))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCleanupLoop(t *testing.T) {
	m := NewMemory(time.Nanosecond, 5*time.Millisecond)
	defer m.Close()

	require.NoError(t, m.SetJSON(context.Background(), "k", 1, 0))
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}
