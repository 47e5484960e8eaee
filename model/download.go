package model

import (
	"context"
	"sync"

	"ahme/ollama"
)

// DownloadState is a snapshot of the single in-flight model download.
type DownloadState struct {
	Active  bool
	Model   string
	Status  string
	Percent float64
	Err     error
}

// DownloadTracker is the single funnel for model pull progress. At most
// one download runs at a time; observers subscribe for state snapshots
// and every update flows through here, so there is no per-widget download
// state to fall out of sync.
type DownloadTracker struct {
	mu        sync.Mutex
	state     DownloadState
	cancel    context.CancelFunc
	observers map[int]func(DownloadState)
	nextObsID int
}

func NewDownloadTracker() *DownloadTracker {
	return &DownloadTracker{
		observers: make(map[int]func(DownloadState)),
	}
}

// Subscribe registers an observer and returns an unsubscribe func. The
// observer immediately receives the current state.
func (t *DownloadTracker) Subscribe(fn func(DownloadState)) func() {
	t.mu.Lock()
	id := t.nextObsID
	t.nextObsID++
	t.observers[id] = fn
	state := t.state
	t.mu.Unlock()

	fn(state)

	return func() {
		t.mu.Lock()
		delete(t.observers, id)
		t.mu.Unlock()
	}
}

// Begin claims the download slot. It returns false when another download
// is already active.
func (t *DownloadTracker) Begin(model string, cancel context.CancelFunc) bool {
	t.mu.Lock()
	if t.state.Active {
		t.mu.Unlock()
		return false
	}
	t.state = DownloadState{Active: true, Model: model, Percent: -1}
	t.cancel = cancel
	state := t.state
	obs := t.snapshotObservers()
	t.mu.Unlock()

	notify(obs, state)
	return true
}

// Update records pull progress and fans it out.
func (t *DownloadTracker) Update(p ollama.PullProgress) {
	t.mu.Lock()
	if !t.state.Active {
		t.mu.Unlock()
		return
	}
	t.state.Status = p.Status
	t.state.Percent = p.Percent
	state := t.state
	obs := t.snapshotObservers()
	t.mu.Unlock()

	notify(obs, state)
}

// Finish releases the slot, recording the terminal error if any.
func (t *DownloadTracker) Finish(err error) {
	t.mu.Lock()
	t.state.Active = false
	t.state.Err = err
	t.cancel = nil
	state := t.state
	obs := t.snapshotObservers()
	t.mu.Unlock()

	notify(obs, state)
}

// Cancel aborts the in-flight download, if any.
func (t *DownloadTracker) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// State returns the current snapshot.
func (t *DownloadTracker) State() DownloadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *DownloadTracker) snapshotObservers() []func(DownloadState) {
	obs := make([]func(DownloadState), 0, len(t.observers))
	for _, fn := range t.observers {
		obs = append(obs, fn)
	}
	return obs
}

// notify runs outside the lock so observers can call back into the tracker.
func notify(obs []func(DownloadState), state DownloadState) {
	for _, fn := range obs {
		fn(state)
	}
}
