package telegram

import "sync"

// Sequencer runs queued work concurrently across keys while keeping
// strict FIFO order within a key. Updates from the same sender must be
// processed in arrival order, but one slow conversation must not stall
// the others.
type Sequencer struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

// NewSequencer creates an empty sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{queues: make(map[int64][]func())}
}

// Enqueue schedules fn to run after all previously enqueued work for key.
// Work for different keys runs concurrently.
func (s *Sequencer) Enqueue(key int64, fn func()) {
	s.mu.Lock()
	s.queues[key] = append(s.queues[key], fn)
	if len(s.queues[key]) > 1 {
		// A drain goroutine for this key is already running.
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.drain(key)
}

// drain runs the key's queue head to completion before popping it, so an
// Enqueue during execution sees a non-empty queue and does not start a
// second drainer.
func (s *Sequencer) drain(key int64) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		queue := s.queues[key]
		if len(queue) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		fn := queue[0]
		s.mu.Unlock()

		fn()

		s.mu.Lock()
		s.queues[key] = s.queues[key][1:]
		s.mu.Unlock()
	}
}

// Wait blocks until all queued work has finished
func (s *Sequencer) Wait() {
	s.wg.Wait()
}
