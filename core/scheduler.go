package core

import (
	"sync"

	"pkt.systems/atelier/schema"
)

// The scheduler serializes all mutations: operations submit commands on a
// FIFO queue, and a single loop goroutine drains whatever is queued at the
// start of a tick and applies it inside one write-lock hold. Readers take
// the read lock and therefore observe batched transitions all-at-once,
// never a partial state. Commands are synchronous from the caller's
// perspective: submit returns once the command's batch has committed.
type scheduler struct {
	cmds    chan *command
	quit    chan struct{}
	drained chan struct{}
	once    sync.Once
}

type command struct {
	fn   func() error
	err  error
	done chan struct{}
}

func newScheduler(depth int) *scheduler {
	if depth <= 0 {
		depth = schema.DefaultQueueDepth
	}
	return &scheduler{
		cmds:    make(chan *command, depth),
		quit:    make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// run drains the queue until the scheduler is closed. flush is called after
// each batch commits, outside the lock, to deliver pending events in order.
func (s *scheduler) run(mu *sync.RWMutex, flush func()) {
	for {
		var first *command
		select {
		case <-s.quit:
			s.failPending()
			close(s.drained)
			return
		case first = <-s.cmds:
		}

		batch := []*command{first}
	gather:
		for {
			select {
			case next := <-s.cmds:
				batch = append(batch, next)
			default:
				break gather
			}
		}

		mu.Lock()
		for _, cmd := range batch {
			cmd.err = cmd.fn()
		}
		mu.Unlock()
		flush()
		for _, cmd := range batch {
			close(cmd.done)
		}
	}
}

// submit enqueues a command and blocks until its batch commits. There is no
// cancellation contract; a command accepted onto the queue always runs.
func (s *scheduler) submit(fn func() error) error {
	cmd := &command{fn: fn, done: make(chan struct{})}
	select {
	case <-s.quit:
		return schema.ErrServiceClosed
	case s.cmds <- cmd:
	}
	select {
	case <-cmd.done:
		return cmd.err
	case <-s.drained:
		// Close raced with the enqueue; the command was rejected.
		select {
		case <-cmd.done:
			return cmd.err
		default:
			return schema.ErrServiceClosed
		}
	}
}

func (s *scheduler) close() {
	s.once.Do(func() { close(s.quit) })
	<-s.drained
}

// failPending rejects commands that were queued but never applied.
func (s *scheduler) failPending() {
	for {
		select {
		case cmd := <-s.cmds:
			cmd.err = schema.ErrServiceClosed
			close(cmd.done)
		default:
			return
		}
	}
}
