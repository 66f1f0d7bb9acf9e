package presence

import (
	"sync"
	"time"
)

// StopFunc is invoked when a sender's quiet window elapses without another
// typing signal.
type StopFunc func(senderID, recipientID string)

// TypingDebouncer turns a stream of typing signals into start/stop events.
// Each sender has at most one live timer; a new signal cancels and replaces
// the previous one, restarting the quiet window.
type TypingDebouncer struct {
	window time.Duration
	onStop StopFunc
	timers sync.Map // senderID -> *typingTimer
}

type typingTimer struct {
	mu          sync.Mutex
	timer       *time.Timer
	recipientID string
	gen         uint64
	dead        bool
}

func NewTypingDebouncer(window time.Duration, onStop StopFunc) *TypingDebouncer {
	return &TypingDebouncer{
		window: window,
		onStop: onStop,
	}
}

// Signal marks senderID as typing to recipientID and (re)arms the quiet
// window timer.
func (d *TypingDebouncer) Signal(senderID, recipientID string) {
	for {
		v, _ := d.timers.LoadOrStore(senderID, &typingTimer{})
		t := v.(*typingTimer)

		t.mu.Lock()
		if t.dead {
			// Expired or cancelled between LoadOrStore and lock; the entry
			// is already gone from the map, start over with a fresh one.
			t.mu.Unlock()
			continue
		}
		if t.timer != nil {
			t.timer.Stop()
		}
		t.gen++
		gen := t.gen
		t.recipientID = recipientID
		t.timer = time.AfterFunc(d.window, func() {
			d.expire(senderID, t, gen)
		})
		t.mu.Unlock()
		return
	}
}

// Cancel clears the sender's timer without emitting a stop event, for when
// content delivery itself implies typing ended.
func (d *TypingDebouncer) Cancel(senderID string) {
	v, ok := d.timers.Load(senderID)
	if !ok {
		return
	}
	t := v.(*typingTimer)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dead {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.dead = true
	d.timers.Delete(senderID)
}

func (d *TypingDebouncer) expire(senderID string, t *typingTimer, gen uint64) {
	t.mu.Lock()
	if t.dead || t.gen != gen {
		// Replaced by a newer signal or cancelled; this firing is stale.
		t.mu.Unlock()
		return
	}
	recipientID := t.recipientID
	t.timer = nil
	t.dead = true
	d.timers.Delete(senderID)
	t.mu.Unlock()

	d.onStop(senderID, recipientID)
}
