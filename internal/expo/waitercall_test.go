package expo

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWaiterCallAcknowledge(t *testing.T) {
	call := &WaiterCall{
		ID:        uuid.New(),
		TableID:   "7",
		Status:    StatusPending,
		CreatedAt: time.Now().Add(-time.Minute),
		UpdatedAt: time.Now().Add(-time.Minute),
	}

	before := call.UpdatedAt
	if err := call.Acknowledge(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", call.Status, StatusCompleted)
	}
	if !call.UpdatedAt.After(before) {
		t.Error("UpdatedAt not bumped")
	}
}

func TestWaiterCallAcknowledgeRejectsNonPending(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusCancelled} {
		call := &WaiterCall{ID: uuid.New(), Status: status}
		if err := call.Acknowledge(); err == nil {
			t.Errorf("expected error acknowledging %s call", status)
		}
		if call.Status != status {
			t.Errorf("status changed on rejected acknowledge: %s", call.Status)
		}
	}
}
