package docbatch

import (
	"context"
	"testing"
	"time"
)

func TestTrackerSetAndCurrent(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	if got := tr.Current(); got != idleSnapshot {
		t.Errorf("new tracker = %+v, want idle", got)
	}

	snap := Snapshot{Percent: 50, Message: "5/10 completed", Ready: false}
	tr.Set(snap)
	if got := tr.Current(); got != snap {
		t.Errorf("Current() = %+v, want %+v", got, snap)
	}
}

func TestTrackerReset(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Set(Snapshot{Percent: 100, Message: "done", Ready: true})
	tr.Reset()

	got := tr.Current()
	if got.Percent != 0 || got.Ready {
		t.Errorf("Reset() left %+v, want percent 0 and not ready", got)
	}
}

func TestTrackerSubscribeDeliversCurrentImmediately(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	done := Snapshot{Percent: 100, Message: "documents ready", Ready: true}
	tr.Set(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A late subscriber observes the completed state on its first event.
	select {
	case got := <-tr.Subscribe(ctx):
		if !got.Ready || got.Percent != 100 {
			t.Errorf("first snapshot = %+v, want ready", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestTrackerSubscribeStopsOnCancel(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	ch := tr.Subscribe(ctx)

	<-ch
	cancel()

	// The channel closes once the subscription notices cancellation.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestTrackerSubscribeObservesLaterState(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := tr.Subscribe(ctx)

	<-ch // initial idle snapshot
	tr.Set(Snapshot{Percent: 100, Message: "documents ready", Ready: true})

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.Ready {
				return
			}
		case <-deadline:
			t.Fatal("subscriber never observed the updated state")
		}
	}
}
