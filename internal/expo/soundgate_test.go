package expo

import (
	"errors"
	"testing"
)

func TestSoundGateStartsLocked(t *testing.T) {
	sink := NewMockSink()
	gate := NewSoundGate(sink, nil)

	gate.Notify()

	if len(sink.Played) != 0 {
		t.Errorf("locked gate played %v", sink.Played)
	}
}

func TestSoundGateUnlockPlaysConfirmation(t *testing.T) {
	sink := NewMockSink()
	gate := NewSoundGate(sink, nil)

	if !gate.Unlock() {
		t.Fatal("Unlock() = false, want true")
	}
	if !gate.Unlocked() {
		t.Error("gate not unlocked after Unlock")
	}
	if len(sink.Played) != 1 || sink.Played[0] != CueConfirm {
		t.Errorf("Played = %v, want single %s", sink.Played, CueConfirm)
	}

	gate.Notify()
	if len(sink.Played) != 2 || sink.Played[1] != CueNotify {
		t.Errorf("Played = %v, want %s appended", sink.Played, CueNotify)
	}
}

func TestSoundGateUnlockFailsWhenSinkErrors(t *testing.T) {
	sink := NewMockSink()
	sink.PlayFunc = func(cue string) error {
		return errors.New("no output")
	}
	gate := NewSoundGate(sink, nil)

	if gate.Unlock() {
		t.Fatal("Unlock() = true with failing sink")
	}
	if gate.Unlocked() {
		t.Error("gate unlocked despite failed confirmation cue")
	}
}

func TestSoundGateSuspendedSinkRelocksSilently(t *testing.T) {
	sink := NewMockSink()
	gate := NewSoundGate(sink, nil)
	gate.Unlock()

	sink.PlayFunc = func(cue string) error {
		return ErrSuspended
	}
	gate.Notify()

	if gate.Unlocked() {
		t.Error("gate still unlocked after suspended sink")
	}

	// subsequent notifies are silent no-ops until the next unlock
	sink.PlayFunc = nil
	played := len(sink.Played)
	gate.Notify()
	if len(sink.Played) != played {
		t.Error("relocked gate still played a cue")
	}
}

func TestSoundGateMuteIndependentOfUnlock(t *testing.T) {
	sink := NewMockSink()
	gate := NewSoundGate(sink, nil)
	gate.Unlock()

	gate.Mute()
	if !gate.Unlocked() {
		t.Error("muting relocked the gate")
	}

	played := len(sink.Played)
	gate.Notify()
	if len(sink.Played) != played {
		t.Error("muted gate played a cue")
	}

	gate.Unmute()
	gate.Notify()
	if len(sink.Played) != played+1 {
		t.Error("unmuted gate stayed silent")
	}
}

func TestSoundGateNilSink(t *testing.T) {
	gate := NewSoundGate(nil, nil)

	if gate.Unlock() {
		t.Error("Unlock() = true without a sink")
	}
	gate.Notify() // must not panic
}
