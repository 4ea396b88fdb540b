package zeroinject

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/assert/v2"
)

type config struct{ name string }

func TestProviderBuildsEveryCall(t *testing.T) {
	calls := 0
	var provider Provider[*config] = func() *config {
		calls++
		return &config{name: "app"}
	}
	first := provider.Get()
	second := provider.Get()
	assert.Equal(t, 2, calls)
	assert.Equal(t, first, second)
	assert.False(t, first == second)
}

func TestLazyBuildsOnce(t *testing.T) {
	var calls atomic.Int32
	lazy := NewLazy(func() *config {
		calls.Add(1)
		return &config{name: "app"}
	})
	assert.Equal(t, int32(0), calls.Load())

	wg := sync.WaitGroup{}
	values := make([]*config, 8)
	for i := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i] = lazy.Get()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	for _, value := range values {
		assert.True(t, value == values[0])
	}
}
