package watch

import (
	"context"
	"sync"
)

// Rebuilder runs one build at a time. Requests arriving while a build runs
// collapse into a single follow-up build.
type Rebuilder struct {
	build func(ctx context.Context)

	mu      sync.Mutex
	running bool
	pending bool
	wake    chan struct{}
}

// NewRebuilder returns a Rebuilder calling build.
func NewRebuilder(build func(ctx context.Context)) *Rebuilder {
	return &Rebuilder{build: build, wake: make(chan struct{}, 1)}
}

// Request asks for a build without blocking.
func (r *Rebuilder) Request() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.pending = true
		return
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run serves requests until ctx is done.
func (r *Rebuilder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}

		r.mu.Lock()
		r.running = true
		r.mu.Unlock()

		r.build(ctx)

		r.mu.Lock()
		r.running = false
		again := r.pending
		r.pending = false
		r.mu.Unlock()

		if again {
			select {
			case r.wake <- struct{}{}:
			default:
			}
		}
	}
}
