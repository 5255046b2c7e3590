package trader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorSet_OneMonitorPerOrder(t *testing.T) {
	set := NewMonitorSet(4)
	release := make(chan struct{})

	ok := set.Spawn(context.Background(), "1", func(context.Context) { <-release })
	require.True(t, ok)
	assert.False(t, set.Spawn(context.Background(), "1", func(context.Context) {}))
	assert.True(t, set.Watching("1"))
	assert.Equal(t, 1, set.Len())

	close(release)
	set.Wait()
	assert.False(t, set.Watching("1"))

	// a finished order can be watched again
	assert.True(t, set.Spawn(context.Background(), "1", func(context.Context) {}))
	set.Wait()
}

func TestMonitorSet_CapRefusesExtraMonitors(t *testing.T) {
	set := NewMonitorSet(2)
	release := make(chan struct{})

	require.True(t, set.Spawn(context.Background(), "1", func(context.Context) { <-release }))
	require.True(t, set.Spawn(context.Background(), "2", func(context.Context) { <-release }))
	assert.False(t, set.Spawn(context.Background(), "3", func(context.Context) {}))

	close(release)
	set.Wait()
	assert.True(t, set.Spawn(context.Background(), "3", func(context.Context) {}))
	set.Wait()
}

func TestMonitorSet_WaitDrainsAfterCancel(t *testing.T) {
	set := NewMonitorSet(4)
	ctx, cancel := context.WithCancel(context.Background())

	var finished atomic.Int32
	for _, id := range []string{"1", "2", "3"} {
		require.True(t, set.Spawn(ctx, id, func(ctx context.Context) {
			<-ctx.Done()
			finished.Add(1)
		}))
	}

	cancel()
	done := make(chan struct{})
	go func() { set.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitors did not drain after cancel")
	}
	assert.EqualValues(t, 3, finished.Load())
}
