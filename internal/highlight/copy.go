package highlight

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// CopyState is the display state of a copy control.
type CopyState string

const (
	StateIdle   CopyState = "idle"
	StateCopied CopyState = "copied"
)

// ErrNoClipboard is returned by Activate when no clipboard was configured.
var ErrNoClipboard = errors.New("copy control has no clipboard")

// Clipboard receives the text of an activated code block.
type Clipboard interface {
	WriteText(text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(text string) error

func (f ClipboardFunc) WriteText(text string) error { return f(text) }

// CopyControl is the state machine behind a code block's copy button.
// Activating it copies the block text and shows the copied state, which
// reverts to idle once the duration elapses. Activating again before that
// restarts the countdown; at most one reversion is ever pending.
type CopyControl struct {
	mu            sync.Mutex
	clock         clockwork.Clock
	clipboard     Clipboard
	duration      time.Duration
	text          string
	state         CopyState
	lastActivated time.Time
	timer         clockwork.Timer
	generation    uint64
	onChange      func(CopyState)
}

// CopyOption configures a CopyControl.
type CopyOption func(*CopyControl)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) CopyOption {
	return func(cc *CopyControl) { cc.clock = c }
}

// WithClipboard sets where activated text is written.
func WithClipboard(c Clipboard) CopyOption {
	return func(cc *CopyControl) { cc.clipboard = c }
}

// WithStateHook registers fn to be called after every state change. It is
// called without the control's lock held.
func WithStateHook(fn func(CopyState)) CopyOption {
	return func(cc *CopyControl) { cc.onChange = fn }
}

// NewCopyControl returns an idle control for a block's literal text.
func NewCopyControl(text string, durationMS int, opts ...CopyOption) *CopyControl {
	if durationMS <= 0 {
		durationMS = DefaultCopyDuration
	}
	cc := &CopyControl{
		clock:    clockwork.NewRealClock(),
		duration: time.Duration(durationMS) * time.Millisecond,
		text:     text,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// Activate copies the text and (re)starts the reversion countdown. A
// clipboard failure leaves the state untouched.
func (c *CopyControl) Activate() error {
	if c.clipboard == nil {
		return ErrNoClipboard
	}
	if err := c.clipboard.WriteText(c.text); err != nil {
		return err
	}

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.state = StateCopied
	c.lastActivated = c.clock.Now()
	c.timer = c.clock.AfterFunc(c.duration, func() { c.revert(gen) })
	c.mu.Unlock()

	c.notify(StateCopied)
	return nil
}

// revert returns to idle unless a newer activation superseded gen. The
// generation check covers a timer that fired while being stopped.
func (c *CopyControl) revert(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateCopied {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.timer = nil
	c.mu.Unlock()

	c.notify(StateIdle)
}

func (c *CopyControl) notify(s CopyState) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

// State returns the current display state.
func (c *CopyControl) State() CopyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastActivated returns the time of the latest activation, zero if never.
func (c *CopyControl) LastActivated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivated
}

// Pending reports whether a reversion is scheduled.
func (c *CopyControl) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Duration returns the reset duration.
func (c *CopyControl) Duration() time.Duration { return c.duration }

// Close cancels a pending reversion and returns to idle without notifying.
func (c *CopyControl) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.state = StateIdle
}
