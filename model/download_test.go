package model

import (
	"context"
	"testing"

	"ahme/ollama"
)

func TestDownloadTrackerSingleSlot(t *testing.T) {
	tr := NewDownloadTracker()

	if !tr.Begin("llama3.1:latest", func() {}) {
		t.Fatal("first Begin should claim the slot")
	}
	if tr.Begin("qwen2.5:7b", func() {}) {
		t.Fatal("second Begin should be refused while a download is active")
	}

	tr.Finish(nil)
	if !tr.Begin("qwen2.5:7b", func() {}) {
		t.Fatal("Begin should succeed after Finish releases the slot")
	}
}

func TestDownloadTrackerProgressFlow(t *testing.T) {
	tr := NewDownloadTracker()
	tr.Begin("llama3.1:latest", func() {})

	if got := tr.State().Percent; got != -1 {
		t.Fatalf("initial percent = %v, want -1 (unknown)", got)
	}

	tr.Update(ollama.PullProgress{Status: "pulling manifest", Percent: -1})
	tr.Update(ollama.PullProgress{Status: "downloading", Percent: 42.5})

	state := tr.State()
	if state.Status != "downloading" || state.Percent != 42.5 {
		t.Fatalf("state = %+v, want downloading at 42.5", state)
	}

	tr.Finish(nil)
	if tr.State().Active {
		t.Fatal("tracker still active after Finish")
	}
}

func TestDownloadTrackerObservers(t *testing.T) {
	tr := NewDownloadTracker()

	var seen []DownloadState
	unsubscribe := tr.Subscribe(func(s DownloadState) {
		seen = append(seen, s)
	})

	if len(seen) != 1 {
		t.Fatalf("observer should receive an immediate snapshot, got %d calls", len(seen))
	}
	if seen[0].Active {
		t.Fatal("initial snapshot should be inactive")
	}

	tr.Begin("llama3.1:latest", func() {})
	tr.Update(ollama.PullProgress{Status: "downloading", Percent: 10})

	if len(seen) != 3 {
		t.Fatalf("observer calls = %d, want 3", len(seen))
	}
	if !seen[1].Active || seen[2].Percent != 10 {
		t.Fatalf("unexpected snapshots: %+v", seen[1:])
	}

	unsubscribe()
	tr.Finish(nil)
	if len(seen) != 3 {
		t.Fatalf("unsubscribed observer still notified: %d calls", len(seen))
	}
}

func TestDownloadTrackerCancel(t *testing.T) {
	tr := NewDownloadTracker()

	ctx, cancel := context.WithCancel(context.Background())
	tr.Begin("llama3.1:latest", cancel)

	tr.Cancel()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("Cancel should fire the registered cancel func")
	}

	// Cancel with no active download is a no-op.
	tr.Finish(ctx.Err())
	tr.Cancel()
}

func TestDownloadTrackerUpdateAfterFinishIgnored(t *testing.T) {
	tr := NewDownloadTracker()
	tr.Begin("llama3.1:latest", func() {})
	tr.Finish(nil)

	tr.Update(ollama.PullProgress{Status: "late", Percent: 99})
	if got := tr.State().Status; got == "late" {
		t.Fatal("progress after Finish should be dropped")
	}
}
