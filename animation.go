package statusicon

import (
	"sync"
	"time"
)

// animator drives a periodic frame advance against a fixed sequence of
// cached frames and pushes each one through its item.
//
// One mutex guards start, stop, and the tick body, so a stop racing a
// tick never observes partially cleared state and a tick never reads
// frames after a concurrent stop nulled them. Ticks take the item lock
// only through setAnimationFrame; item code never calls back into the
// animator, so no lock cycle exists.
type animator struct {
	item *Item

	mu       sync.Mutex
	frames   []string
	index    int
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
}

func newAnimator(item *Item) *animator {
	return &animator{item: item}
}

// start replaces any running animation with frames. All frames are
// pre-warmed first, then frame 0 is pushed synchronously and the
// periodic timer armed.
func (a *animator) start(frames []string, interval time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()

	// Dispose can race a start that already passed the item's own
	// disposed check; re-check here so no timer is armed afterwards.
	a.item.mu.Lock()
	disposed := a.item.disposed
	a.item.mu.Unlock()
	if disposed {
		return
	}

	a.frames = append([]string(nil), frames...)
	a.index = 0
	a.interval = interval

	a.item.cache.PreWarm(a.frames, a.item.iconSize)
	a.pushLocked()

	a.ticker = time.NewTicker(interval)
	a.done = make(chan struct{})

	go a.run(a.ticker, a.done)
}

func (a *animator) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

// tick advances to the next frame and pushes it.
func (a *animator) tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ticker == nil {
		return
	}

	a.index = (a.index + 1) % len(a.frames)
	a.pushLocked()
}

// pushLocked fetches the current frame from the cache, re-rendering it
// if the cache was cleared since pre-warm, and displays it. A frame
// that fails to render is logged and skipped; the animation keeps
// going.
func (a *animator) pushLocked() {
	path := a.frames[a.index]

	icon, err := a.item.cache.GetOrRender(path, a.item.iconSize)
	if err != nil {
		a.item.log.Warn().Err(err).Str("path", path).Int("frame", a.index).
			Msg("skipping animation frame that failed to render")
		return
	}

	a.item.setAnimationFrame(icon, a.index)
}

// stop halts the timer and clears animation state. Safe when no
// animation runs and after the item is disposed.
func (a *animator) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
}

func (a *animator) stopLocked() {
	if a.ticker == nil {
		return
	}

	a.ticker.Stop()
	close(a.done)

	a.ticker = nil
	a.done = nil
	a.frames = nil
	a.index = 0
	a.interval = 0
}
