// Package anim contains the animation schedulers and the frame-loop
// primitive they run on.
package anim

import (
	"sync"
	"time"
)

// frameInterval is the tick period of a frame loop, roughly 60fps.
const frameInterval = 16 * time.Millisecond

// FrameHandle is a cancelable per-frame callback. Stop is idempotent; a tick
// racing a Stop observes the stop channel and does not invoke the callback
// again.
type FrameHandle struct {
	stop chan struct{}
	once sync.Once
}

// Stop cancels the frame loop. Safe to call repeatedly.
func (h *FrameHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// Stopped reports whether the handle has been canceled.
func (h *FrameHandle) Stopped() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

// Frames invokes fn once per frame with the elapsed time in seconds until fn
// returns false or the returned handle is stopped.
func Frames(fn func(dt float64) bool) *FrameHandle {
	h := &FrameHandle{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-h.stop:
				return
			case now := <-ticker.C:
				// Re-check after waking: Stop may have raced the tick.
				select {
				case <-h.stop:
					return
				default:
				}
				dt := now.Sub(last).Seconds()
				last = now
				if !fn(dt) {
					h.Stop()
					return
				}
			}
		}
	}()

	return h
}

// randDuration is shared by the schedulers' randomized cadences.
func randDuration(r *lockedRand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Float64()*float64(max-min))
}
