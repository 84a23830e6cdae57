// Package progress drives the user-visible state of a scan.
//
// A Reporter moves forward through the scan phases and never backwards.
// While inference and OCR are outstanding a ticker advances the percentage
// along a decelerating curve capped at 80; later phases raise it to fixed
// floors and Complete sets it to 100. Failed is terminal and reachable from
// any non-terminal state. After Cancel the Reporter is silent.
package progress

import (
	"sync"
	"time"
)

// State is a scan phase.
type State string

const (
	StateIdle                 State = "idle"
	StateEncoding             State = "encoding"
	StateInferringAndScanning State = "inferring_and_scanning"
	StateLocalizing           State = "localizing"
	StateResolvingImages      State = "resolving_images"
	StatePreloading           State = "preloading"
	StateComplete             State = "complete"
	StateFailed               State = "failed"
)

// order ranks the forward-only states.
var order = map[State]int{
	StateIdle:                 0,
	StateEncoding:             1,
	StateInferringAndScanning: 2,
	StateLocalizing:           3,
	StateResolvingImages:      4,
	StatePreloading:           5,
	StateComplete:             6,
}

// floors is the minimum percentage on entering a state.
var floors = map[State]float64{
	StateEncoding:             0,
	StateInferringAndScanning: 10,
	StateLocalizing:           85,
	StateResolvingImages:      90,
	StatePreloading:           95,
	StateComplete:             100,
}

// Terminal reports whether s ends a scan.
func (s State) Terminal() bool { return s == StateComplete || s == StateFailed }

// Curve limits for the ticking phase.
const (
	TickCap     = 80.0
	DefaultTick = 100 * time.Millisecond
	fastBelow   = 30.0
	mediumBelow = 70.0
	fastStep    = 3.0
	mediumStep  = 1.0
	slowStep    = 0.3
)

// Advance returns the next ticking-phase value after p.
func Advance(p float64) float64 {
	switch {
	case p >= TickCap:
		return p
	case p < fastBelow:
		p += fastStep
	case p < mediumBelow:
		p += mediumStep
	default:
		p += slowStep
	}
	if p > TickCap {
		p = TickCap
	}
	return p
}

// Update is one observable change.
type Update struct {
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
}

// Listener receives updates in order. It is called with the Reporter's
// lock held and must not call back into the Reporter.
type Listener func(Update)

// StatusTexts maps states to their default status line.
type StatusTexts map[State]string

// DefaultStatusTexts returns the status lines for a menu or dish scan.
func DefaultStatusTexts(menu bool) StatusTexts {
	start := "Analyzing Dish..."
	if menu {
		start = "Scanning Menu..."
	}
	return StatusTexts{
		StateIdle:                 start,
		StateEncoding:             start,
		StateInferringAndScanning: "Analyzing image & text...",
		StateLocalizing:           "Refining locations...",
		StateResolvingImages:      "Finding dish images...",
		StatePreloading:           "Loading images...",
		StateComplete:             "Done",
		StateFailed:               "Error scanning. Try again.",
	}
}

// Reporter is safe for concurrent use.
type Reporter struct {
	mu       sync.Mutex
	state    State
	progress float64
	status   string
	texts    StatusTexts
	tick     time.Duration
	listener Listener
	canceled bool

	stopTick chan struct{}
	tickDone chan struct{}
}

// NewReporter creates a Reporter in StateIdle. A non-positive tick uses
// DefaultTick; a nil listener discards updates.
func NewReporter(tick time.Duration, texts StatusTexts, listener Listener) *Reporter {
	if tick <= 0 {
		tick = DefaultTick
	}
	if texts == nil {
		texts = DefaultStatusTexts(false)
	}
	if listener == nil {
		listener = func(Update) {}
	}
	return &Reporter{
		state:    StateIdle,
		status:   texts[StateIdle],
		texts:    texts,
		tick:     tick,
		listener: listener,
	}
}

// Snapshot returns the current state.
func (r *Reporter) Snapshot() Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reporter) snapshotLocked() Update {
	return Update{State: r.state, Progress: r.progress, Status: r.status}
}

// Enter moves to state s. It reports false, and changes nothing, when s
// is not ahead of the current state, the Reporter is terminal or canceled,
// or s is StateFailed (use Fail).
func (r *Reporter) Enter(s State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, ok := order[s]
	if !ok || r.canceled || r.state.Terminal() || next <= order[r.state] {
		return false
	}

	r.stopTickerLocked()
	r.state = s
	if f := floors[s]; f > r.progress {
		r.progress = f
	}
	r.status = r.texts[s]
	r.listener(r.snapshotLocked())

	if s == StateInferringAndScanning {
		r.startTickerLocked()
	}
	return true
}

// Fail moves to StateFailed with the given status line. Progress is left
// where it was. It reports false when already terminal or canceled.
func (r *Reporter) Fail(status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.canceled || r.state.Terminal() {
		return false
	}
	r.stopTickerLocked()
	r.state = StateFailed
	if status == "" {
		status = r.texts[StateFailed]
	}
	r.status = status
	r.listener(r.snapshotLocked())
	return true
}

// Cancel silences the Reporter and stops the ticker. Further calls to
// Enter and Fail are ignored.
func (r *Reporter) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = true
	r.stopTickerLocked()
}

// Canceled reports whether Cancel was called.
func (r *Reporter) Canceled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canceled
}

// Stop stops the ticker. It is safe to call more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTickerLocked()
}

func (r *Reporter) startTickerLocked() {
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stopTick = stop
	r.tickDone = done

	go func() {
		defer close(done)
		t := time.NewTicker(r.tick)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if !r.advance(stop) {
					return
				}
			}
		}
	}()
}

// advance applies one tick. It reports false once the ticker should exit.
func (r *Reporter) advance(stop chan struct{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-stop:
		return false
	default:
	}
	if r.canceled || r.state != StateInferringAndScanning {
		return false
	}
	next := Advance(r.progress)
	if next == r.progress {
		return true
	}
	r.progress = next
	r.listener(r.snapshotLocked())
	return true
}

// stopTickerLocked signals the ticker goroutine without waiting for it;
// the goroutine may be blocked on r.mu.
func (r *Reporter) stopTickerLocked() {
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
}

// tickerDone returns a channel closed when the last ticker goroutine has
// exited, or nil if none was started.
func (r *Reporter) tickerDone() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickDone
}
