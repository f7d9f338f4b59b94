package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePoolTakeOrder(t *testing.T) {
	pool := NewNamePool([]string{"John", "Jill", "Smith", "Bella"})

	// Names come off the end of the list
	name, ok := pool.Take()
	require.True(t, ok)
	assert.Equal(t, "Bella", name)

	name, ok = pool.Take()
	require.True(t, ok)
	assert.Equal(t, "Smith", name)

	assert.Equal(t, 2, pool.Free())
	assert.Equal(t, 4, pool.Capacity())
}

func TestNamePoolExhaustion(t *testing.T) {
	pool := NewNamePool([]string{"Solo"})

	_, ok := pool.Take()
	require.True(t, ok)

	_, ok = pool.Take()
	assert.False(t, ok)
	assert.Equal(t, 0, pool.Free())
}

func TestNamePoolReturnGoesToFront(t *testing.T) {
	pool := NewNamePool([]string{"John", "Jill"})

	name, _ := pool.Take() // Jill
	require.Equal(t, "Jill", name)

	pool.Return("Jill")

	// Jill went to the front, so John is taken first
	next, _ := pool.Take()
	assert.Equal(t, "John", next)
	next, _ = pool.Take()
	assert.Equal(t, "Jill", next)
}

func TestNamePoolReturnDuplicate(t *testing.T) {
	pool := NewNamePool([]string{"John"})

	pool.Return("John")
	assert.Equal(t, 1, pool.Free())
}
