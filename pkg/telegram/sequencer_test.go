package telegram

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerKeepsPerKeyOrder(t *testing.T) {
	seq := NewSequencer()

	var mu sync.Mutex
	var order []int

	// The first item sleeps so later items are enqueued while it runs.
	// With unsequenced dispatch they could finish first.
	for i := 0; i < 20; i++ {
		i := i
		seq.Enqueue(7, func() {
			if i == 0 {
				time.Sleep(20 * time.Millisecond)
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	seq.Wait()

	require.Len(t, order, 20)
	for i, got := range order {
		assert.Equal(t, i, got)
	}
}

func TestSequencerKeysRunConcurrently(t *testing.T) {
	seq := NewSequencer()

	release := make(chan struct{})
	done := make(chan struct{})

	seq.Enqueue(1, func() { <-release })
	seq.Enqueue(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second key blocked behind first key's work")
	}

	close(release)
	seq.Wait()
}

func TestSequencerReusesKeyAfterDrain(t *testing.T) {
	seq := NewSequencer()

	var mu sync.Mutex
	var order []int

	record := func(i int) func() {
		return func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}
	}

	seq.Enqueue(5, record(1))
	seq.Wait()
	seq.Enqueue(5, record(2))
	seq.Wait()

	assert.Equal(t, []int{1, 2}, order)
}
