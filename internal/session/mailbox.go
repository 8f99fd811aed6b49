package session

import (
	"context"
	"sync"
	"time"

	"github.com/babelcloud/rscli/internal/stream"
)

// mailbox holds the latest undelivered frame of each stream. Publishers never
// block: a frame replacing one the reader has not taken yet counts as a drop.
type mailbox struct {
	mu      sync.Mutex
	pending stream.FrameSet
	drops   uint64
	closed  bool
	notify  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// Publish merges a frame set into the pending one.
func (m *mailbox) Publish(fs stream.FrameSet) {
	if len(fs) == 0 {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.pending == nil {
		m.pending = make(stream.FrameSet, len(fs))
	}
	for s, f := range fs {
		if _, ok := m.pending[s]; ok {
			m.drops++
		}
		m.pending[s] = f
	}
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take waits for pending frames. It returns false when the timeout elapses first
// or the mailbox is closed.
func (m *mailbox) Take(ctx context.Context, timeout time.Duration) (stream.FrameSet, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		m.mu.Lock()
		if fs := m.pending; fs != nil {
			m.pending = nil
			m.mu.Unlock()
			return fs, true, nil
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return nil, false, nil
		}

		select {
		case <-m.notify:
		case <-timer.C:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// Close discards pending frames and wakes a waiting reader.
func (m *mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.pending = nil
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) Drops() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}
