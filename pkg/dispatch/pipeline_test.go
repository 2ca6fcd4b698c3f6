package dispatch

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/pkgwatch/pkg/state"
)

// recorder collects delivered states.
type recorder struct {
	mu     sync.Mutex
	states []state.LifecycleState
}

func (r *recorder) OnPackageStateChanged(s state.LifecycleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) Snapshot() []state.LifecycleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.LifecycleState{}, r.states...)
}

func startPipeline(t *testing.T, h Handler) *Pipeline {
	t.Helper()
	p := New(h)
	go func() { _ = p.Run() }()
	t.Cleanup(func() {
		p.Abandon()
		<-p.Done()
	})
	return p
}

func waitDone(t *testing.T, p *Pipeline) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit")
	}
}

func TestPipeline_DeliversInOrder(t *testing.T) {
	rec := &recorder{}
	p := startPipeline(t, rec)

	var want []state.LifecycleState
	for i := 0; i < 500; i++ {
		s := state.New(fmt.Sprintf("com.pkg%d", i), state.Kinds()[i%7])
		want = append(want, s)
		require.NoError(t, p.Enqueue(s))
	}

	p.Close(Drain)
	waitDone(t, p)

	assert.Equal(t, want, rec.Snapshot())
	stats := p.Stats()
	assert.Equal(t, uint64(500), stats.Enqueued)
	assert.Equal(t, uint64(500), stats.Delivered)
	assert.Equal(t, uint64(0), stats.Discarded)
}

func TestPipeline_EnqueueDoesNotBlockOnSlowHandler(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := startPipeline(t, HandlerFunc(func(state.LifecycleState) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}))

	require.NoError(t, p.Enqueue(state.New("com.a", state.Installed)))
	<-started

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			_ = p.Enqueue(state.New("com.b", state.Updated))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked behind a slow handler")
	}
	assert.Equal(t, 1000, p.Pending())
	close(release)
}

func TestPipeline_CallbacksNeverOverlap(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	p := startPipeline(t, HandlerFunc(func(state.LifecycleState) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_ = p.Enqueue(state.New("com.x", state.Installed))
			}
		}()
	}
	wg.Wait()
	p.Close(Drain)
	waitDone(t, p)

	assert.Equal(t, 1, maxInFlight)
	assert.Equal(t, uint64(40), p.Stats().Delivered)
}

func TestPipeline_PanicIsIsolated(t *testing.T) {
	rec := &recorder{}
	p := startPipeline(t, HandlerFunc(func(s state.LifecycleState) {
		if s.Package() == "com.bad" {
			panic("subscriber exploded")
		}
		rec.OnPackageStateChanged(s)
	}))

	require.NoError(t, p.Enqueue(state.New("com.a", state.Installed)))
	require.NoError(t, p.Enqueue(state.New("com.bad", state.Installed)))
	require.NoError(t, p.Enqueue(state.New("com.c", state.Removed)))
	p.Close(Drain)
	waitDone(t, p)

	assert.Equal(t, []state.LifecycleState{
		state.New("com.a", state.Installed),
		state.New("com.c", state.Removed),
	}, rec.Snapshot())
	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Panics)
	assert.Equal(t, uint64(2), stats.Delivered)
}

func TestPipeline_EnqueueAfterCloseRejected(t *testing.T) {
	rec := &recorder{}
	p := startPipeline(t, rec)

	p.Close(Drain)
	p.Close(Discard)
	require.ErrorIs(t, p.Enqueue(state.New("com.x", state.Installed)), ErrClosed)
	waitDone(t, p)

	assert.Empty(t, rec.Snapshot())
	assert.Equal(t, uint64(1), p.Stats().Rejected)
	assert.True(t, p.Closed())
}

func TestPipeline_DiscardDropsPending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	rec := &recorder{}
	p := startPipeline(t, HandlerFunc(func(s state.LifecycleState) {
		once.Do(func() { close(started) })
		<-release
		rec.OnPackageStateChanged(s)
	}))

	require.NoError(t, p.Enqueue(state.New("com.inflight", state.Installed)))
	<-started
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Enqueue(state.New("com.pending", state.Installed)))
	}

	p.Close(Discard)
	close(release)
	waitDone(t, p)

	assert.Equal(t, []state.LifecycleState{state.New("com.inflight", state.Installed)}, rec.Snapshot())
	assert.Equal(t, uint64(5), p.Stats().Discarded)
	assert.Equal(t, 0, p.Pending())
}

func TestPipeline_AbandonStopsDrain(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	rec := &recorder{}
	p := startPipeline(t, HandlerFunc(func(s state.LifecycleState) {
		once.Do(func() { close(started) })
		<-release
		rec.OnPackageStateChanged(s)
	}))

	require.NoError(t, p.Enqueue(state.New("com.inflight", state.Installed)))
	<-started
	require.NoError(t, p.Enqueue(state.New("com.pending", state.Installed)))

	p.Close(Drain)
	p.Abandon()
	close(release)
	waitDone(t, p)

	assert.Equal(t, []state.LifecycleState{state.New("com.inflight", state.Installed)}, rec.Snapshot())
	assert.Equal(t, uint64(1), p.Stats().Discarded)
}

func TestPipeline_RunTwice(t *testing.T) {
	p := startPipeline(t, &recorder{})
	// Give the first Run a chance to claim the worker slot.
	require.Eventually(t, func() bool { return p.running.Load() }, time.Second, time.Millisecond)
	require.ErrorIs(t, p.Run(), ErrAlreadyRunning)
}

func TestPipeline_NilHandler(t *testing.T) {
	p := startPipeline(t, nil)
	require.NoError(t, p.Enqueue(state.New("com.x", state.Installed)))
	p.Close(Drain)
	waitDone(t, p)
	assert.Equal(t, uint64(1), p.Stats().Delivered)
}

func TestHandlers_FanOutInOrder(t *testing.T) {
	var order []string
	hs := Handlers{
		HandlerFunc(func(state.LifecycleState) { order = append(order, "log") }),
		HandlerFunc(func(state.LifecycleState) { order = append(order, "publish") }),
	}
	hs.OnPackageStateChanged(state.New("com.x", state.Updated))
	assert.Equal(t, []string{"log", "publish"}, order)
}

func TestHandlers_PanicDoesNotSkipLaterHandlers(t *testing.T) {
	var order []string
	hs := Handlers{
		HandlerFunc(func(state.LifecycleState) { order = append(order, "log") }),
		HandlerFunc(func(state.LifecycleState) { panic("publish failed") }),
		HandlerFunc(func(state.LifecycleState) { order = append(order, "extra") }),
	}
	assert.PanicsWithValue(t, "publish failed", func() {
		hs.OnPackageStateChanged(state.New("com.x", state.Updated))
	})
	assert.Equal(t, []string{"log", "extra"}, order)
}

func TestPipeline_FanOutPanicIsCountedOnce(t *testing.T) {
	rec := &recorder{}
	p := startPipeline(t, Handlers{
		HandlerFunc(func(state.LifecycleState) { panic("first") }),
		HandlerFunc(func(state.LifecycleState) { panic("second") }),
		rec,
	})

	require.NoError(t, p.Enqueue(state.New("com.x", state.Installed)))
	require.NoError(t, p.Enqueue(state.New("com.y", state.Removed)))
	p.Close(Drain)
	waitDone(t, p)

	assert.Equal(t, []state.LifecycleState{
		state.New("com.x", state.Installed),
		state.New("com.y", state.Removed),
	}, rec.Snapshot())
	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.Panics)
	assert.Equal(t, uint64(0), stats.Delivered)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"drain", Drain, false},
		{"DISCARD", Discard, false},
		{" discard ", Discard, false},
		{"flush", Drain, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownPolicy)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) Policy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}
