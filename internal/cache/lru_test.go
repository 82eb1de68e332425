package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPut(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestEvictsOldest(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // refresh recency
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRU[string, int](4, time.Minute)
	now := time.Now()
	c.nowFn = func() time.Time { return now }

	c.Put("a", 1)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrLoad_CachesResult(t *testing.T) {
	c := NewLRU[string, string](4, time.Minute)
	var loads atomic.Int32

	load := func() (string, error) {
		loads.Add(1)
		return "metadata", nil
	}

	v, err := c.GetOrLoad("ipfs://x", load)
	require.NoError(t, err)
	assert.Equal(t, "metadata", v)

	_, err = c.GetOrLoad("ipfs://x", load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c := NewLRU[string, string](4, time.Minute)
	var loads atomic.Int32

	_, err := c.GetOrLoad("k", func() (string, error) {
		loads.Add(1)
		return "", errors.New("gateway down")
	})
	require.Error(t, err)

	v, err := c.GetOrLoad("k", func() (string, error) {
		loads.Add(1)
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int32(2), loads.Load())
}

func TestGetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	c := NewLRU[string, string](4, time.Minute)
	var loads atomic.Int32
	gate := make(chan struct{})

	load := func() (string, error) {
		loads.Add(1)
		<-gate
		return "once", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad("shared", load)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give every goroutine a chance to reach the inflight check.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, v := range results {
		assert.Equal(t, "once", v)
	}
}
