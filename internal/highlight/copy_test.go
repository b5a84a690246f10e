package highlight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	texts  []string
	idle   atomic.Int32
	copied atomic.Int32
}

func (r *recorder) WriteText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recorder) hook(s CopyState) {
	switch s {
	case StateIdle:
		r.idle.Add(1)
	case StateCopied:
		r.copied.Add(1)
	}
}

func newControl(clock clockwork.Clock, rec *recorder) *CopyControl {
	return NewCopyControl("fmt.Println()", 1500,
		WithClock(clock),
		WithClipboard(rec),
		WithStateHook(rec.hook),
	)
}

func TestCopyControlActivateAndRevert(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	cc := newControl(clock, rec)

	assert.Equal(t, StateIdle, cc.State())
	assert.True(t, cc.LastActivated().IsZero())

	require.NoError(t, cc.Activate())
	assert.Equal(t, StateCopied, cc.State())
	assert.Equal(t, clock.Now(), cc.LastActivated())
	assert.True(t, cc.Pending())
	assert.Equal(t, []string{"fmt.Println()"}, rec.texts)

	clock.Advance(1499 * time.Millisecond)
	assert.Equal(t, StateCopied, cc.State())

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return cc.State() == StateIdle }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), rec.idle.Load())
	assert.False(t, cc.Pending())
}

func TestCopyControlReactivationRestartsCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	cc := newControl(clock, rec)

	require.NoError(t, cc.Activate())
	clock.Advance(1000 * time.Millisecond)
	require.NoError(t, cc.Activate())
	second := clock.Now()

	// Past the first activation's deadline.
	clock.Advance(600 * time.Millisecond)
	assert.Never(t, func() bool { return rec.idle.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, StateCopied, cc.State())
	assert.Equal(t, second, cc.LastActivated())

	clock.Advance(900 * time.Millisecond)
	assert.Eventually(t, func() bool { return cc.State() == StateIdle }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return rec.idle.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, int32(1), rec.idle.Load())
	assert.Equal(t, int32(2), rec.copied.Load())
}

func TestCopyControlConcurrentActivations(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	cc := newControl(clock, rec)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cc.Activate())
		}()
	}
	wg.Wait()

	assert.True(t, cc.Pending())
	clock.Advance(1500 * time.Millisecond)
	assert.Eventually(t, func() bool { return rec.idle.Load() == 1 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return rec.idle.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Len(t, rec.texts, 16)
}

func TestCopyControlClipboardFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	boom := errors.New("denied")
	var changes atomic.Int32
	cc := NewCopyControl("x", 1500,
		WithClock(clock),
		WithClipboard(ClipboardFunc(func(string) error { return boom })),
		WithStateHook(func(CopyState) { changes.Add(1) }),
	)

	err := cc.Activate()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateIdle, cc.State())
	assert.False(t, cc.Pending())
	assert.Zero(t, changes.Load())
}

func TestCopyControlWithoutClipboard(t *testing.T) {
	cc := NewCopyControl("x", 0)
	assert.ErrorIs(t, cc.Activate(), ErrNoClipboard)
	assert.Equal(t, DefaultCopyDuration*time.Millisecond, cc.Duration())
}

func TestCopyControlClose(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	cc := newControl(clock, rec)

	require.NoError(t, cc.Activate())
	cc.Close()
	assert.Equal(t, StateIdle, cc.State())
	assert.False(t, cc.Pending())

	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return rec.idle.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
