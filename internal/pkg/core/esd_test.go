package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rettrjo/gtx8/internal/pkg/hw"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
)

// fakeOps is a scriptable hardware capability set.
type fakeOps struct {
	mu sync.Mutex

	healthErr   error
	healthCalls int
	resets      int

	events      []proto.TouchEvent
	handleCalls int

	suspends int
	resumes  int

	version proto.Version
	configs [][]byte
}

func (f *fakeOps) Init(context.Context) error   { return nil }
func (f *fakeOps) Detect(context.Context) error { return nil }

func (f *fakeOps) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeOps) Read(_ context.Context, _ uint16, n int) ([]byte, error) {
	return make([]byte, n), nil
}

func (f *fakeOps) Write(context.Context, uint16, []byte) error { return nil }

func (f *fakeOps) SendCmd(context.Context, proto.Command) error { return nil }

func (f *fakeOps) SendConfig(_ context.Context, cfg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, append([]byte(nil), cfg...))
	return nil
}

func (f *fakeOps) ReadVersion(context.Context) (proto.Version, error) {
	return f.version, nil
}

func (f *fakeOps) HandleEvent(context.Context) (proto.TouchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handleCalls++
	if len(f.events) == 0 {
		return proto.TouchEvent{}, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *fakeOps) CheckHealth(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthCalls++
	return f.healthErr
}

func (f *fakeOps) Suspend(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspends++
	return nil
}

func (f *fakeOps) Resume(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return nil
}

func (f *fakeOps) counts() (health, resets, handles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthCalls, f.resets, f.handleCalls
}

func (f *fakeOps) setHealthErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthErr = err
}

var _ hw.Ops = (*fakeOps)(nil)

func TestWatchdogInitialState(t *testing.T) {
	assert.Equal(t, true, newWatchdog(&fakeOps{}, true, time.Hour).Armed())
	assert.Equal(t, false, newWatchdog(&fakeOps{}, false, time.Hour).Armed())
}

func TestNotifySuspendDisarms(t *testing.T) {
	fo := &fakeOps{healthErr: errors.New("wedged")}
	w := newWatchdog(fo, true, time.Hour)

	w.Notify(NotifySuspend)
	assert.Equal(t, false, w.Armed())

	// a tick racing with suspend must not reset a sleeping chip
	w.tick(context.Background())
	_, resets, _ := fo.counts()
	assert.Equal(t, 0, resets)
}

func TestNotifyResumeRestoresPriorState(t *testing.T) {
	w := newWatchdog(&fakeOps{}, true, time.Hour)
	w.Notify(NotifySuspend)
	w.Notify(NotifyResume)
	assert.Equal(t, true, w.Armed())

	w = newWatchdog(&fakeOps{}, false, time.Hour)
	w.Notify(NotifySuspend)
	w.Notify(NotifyResume)
	assert.Equal(t, false, w.Armed())
}

func TestNotifyEsdOverrides(t *testing.T) {
	w := newWatchdog(&fakeOps{}, true, time.Hour)

	w.Notify(NotifyEsdOff)
	assert.Equal(t, false, w.Armed())

	w.Notify(NotifyEsdOn)
	assert.Equal(t, true, w.Armed())
}

func TestTickFailureResetsExactlyOnce(t *testing.T) {
	fo := &fakeOps{healthErr: errors.New("wedged")}
	w := newWatchdog(fo, true, time.Hour)

	w.tick(context.Background())

	_, resets, _ := fo.counts()
	assert.Equal(t, 1, resets)
	assert.Equal(t, uint32(1), w.Failures())
	// self-healing, no terminal state
	assert.Equal(t, true, w.Armed())

	fo.setHealthErr(nil)
	w.tick(context.Background())
	_, resets, _ = fo.counts()
	assert.Equal(t, 1, resets)
	assert.Equal(t, uint32(0), w.Failures())
}

func TestWatchdogKeepsTickingAfterRecovery(t *testing.T) {
	fo := &fakeOps{healthErr: errors.New("wedged")}
	w := newWatchdog(fo, true, 2*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		health, resets, _ := fo.counts()
		if health >= 3 && resets >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("watchdog stopped ticking: %d checks, %d resets", health, resets)
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestWatchdogDisarmedDoesNotTouchBus(t *testing.T) {
	fo := &fakeOps{}
	w := newWatchdog(fo, false, 2*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go w.run(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	health, _, _ := fo.counts()
	assert.Equal(t, 0, health)
}
