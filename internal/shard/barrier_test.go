package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestBarrierReachesZeroOnlyWhenAllShardsReady(t *testing.T) {
	b := NewBarrier([]int{0, 1, 2})

	assert.False(t, b.Done(0))
	assert.False(t, b.Done(2))
	assert.False(t, isClosed(b.Wait()))
	assert.Equal(t, 1, b.Remaining())

	assert.True(t, b.Done(1))
	assert.True(t, isClosed(b.Wait()))
	assert.Equal(t, 0, b.Remaining())
}

func TestBarrierDuplicateReadyIsIgnored(t *testing.T) {
	b := NewBarrier([]int{4, 5})

	assert.False(t, b.Done(4))
	assert.False(t, b.Done(4), "second ready for the same shard must not count")
	assert.Equal(t, 1, b.Remaining())

	assert.True(t, b.Done(5))
	assert.False(t, b.Done(5), "ready after zero must not fire again")
	assert.False(t, b.Done(4))
	assert.Equal(t, 0, b.Remaining())
}

func TestBarrierIgnoresUnownedShards(t *testing.T) {
	b := NewBarrier([]int{3})

	assert.False(t, b.Done(0))
	assert.Equal(t, 1, b.Remaining())
	require.True(t, b.Done(3))
}

func TestBarrierEmptyIsImmediatelyDone(t *testing.T) {
	b := NewBarrier(nil)
	assert.True(t, isClosed(b.Wait()))
	assert.False(t, b.Done(0))
}

func TestBarrierConcurrentReadyFiresOnce(t *testing.T) {
	ids := make([]int, 64)
	for i := range ids {
		ids[i] = i
	}
	b := NewBarrier(ids)

	fired := make(chan bool, len(ids)*2)
	start := make(chan struct{})
	for _, id := range ids {
		for range 2 {
			go func() {
				<-start
				fired <- b.Done(id)
			}()
		}
	}
	close(start)

	count := 0
	for range len(ids) * 2 {
		if <-fired {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, isClosed(b.Wait()))
}
