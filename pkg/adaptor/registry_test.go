package adaptor

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIDsIncrease(t *testing.T) {
	r := NewRegistry[string]("gridengine")

	first := r.Register("a")
	second := r.Register("b")

	assert.Equal(t, "gridengine-1", first)
	assert.Equal(t, "gridengine-2", second)
}

func TestRegistryGetAndRemove(t *testing.T) {
	r := NewRegistry[string]("ftp")
	id := r.Register("conn")

	state, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "conn", state)

	state, err = r.Remove(id)
	require.NoError(t, err)
	assert.Equal(t, "conn", state)
	assert.Zero(t, r.Len())
}

func TestRegistryUseAfterClose(t *testing.T) {
	r := NewRegistry[string]("ftp")
	id := r.Register("conn")

	_, err := r.Remove(id)
	require.NoError(t, err)

	_, err = r.Get(id)
	assert.True(t, IsAlreadyClosed(err))

	_, err = r.Remove(id)
	assert.True(t, IsAlreadyClosed(err), "second close must fail, not no-op")
}

func TestRegistryUnknownHandle(t *testing.T) {
	r := NewRegistry[string]("ftp")

	_, err := r.Get("ftp-99")
	assert.True(t, IsNotFound(err))

	_, err = r.Remove("ftp-99")
	assert.True(t, IsNotFound(err))
}

func TestRegistryDrain(t *testing.T) {
	r := NewRegistry[int]("local")
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		ids = append(ids, r.Register(i))
	}

	drained := r.Drain()
	assert.Len(t, drained, 3)
	assert.Zero(t, r.Len())

	for _, id := range ids {
		_, err := r.Get(id)
		assert.True(t, IsAlreadyClosed(err))
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry[int]("local")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := r.Register(n)
			if _, err := r.Get(id); err != nil {
				panic(fmt.Sprintf("lookup of fresh handle failed: %v", err))
			}
			if _, err := r.Remove(id); err != nil {
				panic(fmt.Sprintf("remove of fresh handle failed: %v", err))
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, r.Len())
}
