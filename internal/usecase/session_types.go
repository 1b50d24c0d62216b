package usecase

import (
	"time"

	"voicetask/internal/ports"
)

type activeCapture struct {
	session ports.CaptureSession
	done    chan struct{}
}

// timerSlot owns at most one pending timer. A callback only runs its body
// when its token still matches the slot, so a timer that fired while the
// slot was being cancelled or re-armed is ignored.
type timerSlot struct {
	timer *time.Timer
	token uint64
}

func (s *timerSlot) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.token = 0
}

func (s *timerSlot) active() bool {
	return s.token != 0
}

// arm schedules fn on the slot, replacing any pending timer. fn runs with
// the controller lock held and may return a follow-up to run after unlock.
func (c *SessionController) arm(slot *timerSlot, delay time.Duration, fn func() func()) {
	slot.cancel()
	c.nextToken++
	token := c.nextToken
	slot.token = token
	slot.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if slot.token != token {
			c.mu.Unlock()
			return
		}
		slot.timer = nil
		slot.token = 0
		after := fn()
		c.mu.Unlock()
		if after != nil {
			after()
		}
	})
}
