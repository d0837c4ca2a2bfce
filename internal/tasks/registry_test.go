package tasks

import (
	"context"
	"errors"
	"testing"
)

func TestTaskLifecycle(t *testing.T) {
	reg := NewRegistry()
	task, _ := reg.Create(context.Background(), "https://kick.com/chan", "clip", 30, 90)

	if len(task.ID()) != 8 {
		t.Errorf("expected 8 character id, got %q", task.ID())
	}
	snap := task.Snapshot()
	if snap.Status != StatusPending || snap.Start != 30 || snap.End != 90 {
		t.Errorf("unexpected initial snapshot: %+v", snap)
	}

	task.SetStatus(StatusDownloading)
	task.SetMessage("Downloading segments (3/10)")
	task.SetProgress(0.24)
	snap = task.Snapshot()
	if snap.Status != StatusDownloading || snap.Progress != 0.24 {
		t.Errorf("unexpected mid snapshot: %+v", snap)
	}

	task.Finish(nil)
	snap = task.Snapshot()
	if snap.Status != StatusCompleted || snap.Progress != 1 {
		t.Errorf("unexpected final snapshot: %+v", snap)
	}
}

func TestTaskFinishWithError(t *testing.T) {
	reg := NewRegistry()
	task, _ := reg.Create(context.Background(), "u", "clip", 0, 10)
	task.Finish(errors.New("segment 3 download failed"))
	snap := task.Snapshot()
	if snap.Status != StatusFailed || snap.Error == "" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestProgressClamped(t *testing.T) {
	reg := NewRegistry()
	task, _ := reg.Create(context.Background(), "u", "clip", 0, 10)
	task.SetProgress(1.7)
	if task.Snapshot().Progress != 1 {
		t.Errorf("expected clamp to 1, got %f", task.Snapshot().Progress)
	}
	task.SetProgress(-0.2)
	if task.Snapshot().Progress != 0 {
		t.Errorf("expected clamp to 0, got %f", task.Snapshot().Progress)
	}
}

func TestCancelFiresContext(t *testing.T) {
	reg := NewRegistry()
	task, ctx := reg.Create(context.Background(), "u", "clip", 0, 10)
	if err := reg.Cancel(task.ID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be cancelled")
	}
	if task.Snapshot().Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", task.Snapshot().Status)
	}
	// The unwinding job must not overwrite the cancelled state.
	task.Finish(context.Canceled)
	task.SetStatus(StatusProcessing)
	if task.Snapshot().Status != StatusCancelled {
		t.Errorf("cancelled state was overwritten: %s", task.Snapshot().Status)
	}
}

func TestCancelFinishedTask(t *testing.T) {
	reg := NewRegistry()
	task, _ := reg.Create(context.Background(), "u", "clip", 0, 10)
	task.Finish(nil)
	if err := reg.Cancel(task.ID()); err == nil {
		t.Fatal("expected error cancelling a completed task")
	}
	if err := reg.Cancel("missing!"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestListNewestFirst(t *testing.T) {
	reg := NewRegistry()
	first, _ := reg.Create(context.Background(), "a", "clip", 0, 10)
	second, _ := reg.Create(context.Background(), "b", "grab", 0, 10)
	snaps := reg.List()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(snaps))
	}
	if snaps[0].ID != second.ID() || snaps[1].ID != first.ID() {
		t.Errorf("expected newest first ordering, got %s then %s", snaps[0].ID, snaps[1].ID)
	}
}
