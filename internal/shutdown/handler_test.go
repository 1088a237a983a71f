package shutdown

import (
	"context"
	"testing"
)

func TestShutdownRunsCleanupInReverseOnce(t *testing.T) {
	h := New(context.Background())

	var order []int
	h.AddCleanup(func() { order = append(order, 1) })
	h.AddCleanup(func() { order = append(order, 2) })

	h.Shutdown()
	h.Shutdown()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("cleanup order = %v, want [2 1]", order)
	}
	if h.Context().Err() == nil {
		t.Error("context should be cancelled after Shutdown")
	}
}

func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := New(parent)
	h.Listen()

	cancel()
	<-h.Context().Done()

	// Cleanup is only run by Shutdown.
	ran := false
	h.AddCleanup(func() { ran = true })
	h.Shutdown()
	if !ran {
		t.Error("cleanup should run on Shutdown after parent cancellation")
	}
}
