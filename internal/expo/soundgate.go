package expo

import (
	"errors"
	"sync"

	"github.com/appetiteclub/apt"
)

// Chime cues delivered to consoles. Confirm is the immediate feedback after
// unlocking; notify is the real alert for new pending items.
const (
	CueConfirm = "confirm"
	CueNotify  = "notify"
)

// ErrSuspended is returned by a Sink whose audio output cannot currently
// play, typically because no console with an unlocked audio context is
// attached. The gate treats it as a revoked unlock.
var ErrSuspended = errors.New("audio output suspended")

// Sink delivers a chime cue to the operator consoles.
type Sink interface {
	Play(cue string) error
}

// SoundGate controls when the board is allowed to chime. Audio starts locked
// and must be unlocked by an explicit staff action; muting is independent of
// the unlock state, so staff can silence the board without losing the
// unlock. When the sink reports a suspended output during a real
// notification, the gate silently relocks instead of erroring.
type SoundGate struct {
	mu       sync.Mutex
	unlocked bool
	muted    bool
	sink     Sink
	logger   apt.Logger
}

func NewSoundGate(sink Sink, logger apt.Logger) *SoundGate {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SoundGate{
		sink:   sink,
		logger: logger,
	}
}

// Unlock enables sound and plays the confirmation chime. Returns whether the
// unlock took effect.
func (g *SoundGate) Unlock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sink == nil {
		return false
	}

	if err := g.sink.Play(CueConfirm); err != nil {
		g.logger.Info("sound unlock failed, staying locked", "error", err)
		g.unlocked = false
		return false
	}

	g.unlocked = true
	return true
}

// Mute silences notifications without touching the unlock state.
func (g *SoundGate) Mute() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.muted = true
}

// Unmute re-enables notifications. No re-unlock is required.
func (g *SoundGate) Unmute() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.muted = false
}

// Unlocked reports whether audio is currently unlocked.
func (g *SoundGate) Unlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}

// Muted reports whether notifications are muted.
func (g *SoundGate) Muted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// Notify plays the alert chime if the gate allows it. Locked or muted gates
// skip playback silently; a suspended sink relocks the gate. Notify never
// propagates an error.
func (g *SoundGate) Notify() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.unlocked || g.muted || g.sink == nil {
		return
	}

	if err := g.sink.Play(CueNotify); err != nil {
		if errors.Is(err, ErrSuspended) {
			g.logger.Info("audio output suspended, relocking sound")
			g.unlocked = false
			return
		}
		g.logger.Error("cannot play chime", "error", err)
	}
}
