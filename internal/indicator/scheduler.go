package indicator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/clock"
)

// DefaultInterval is how often an active scheduler samples the clock.
const DefaultInterval = time.Second

// ErrAlreadyMounted is returned by Mount when the scheduler is not unmounted.
var ErrAlreadyMounted = errors.New("indicator: already mounted")

// State is the lifecycle state of a Scheduler.
type State int

const (
	Unmounted State = iota
	Mounting
	Active
	Unmounting
)

func (s State) String() string {
	switch s {
	case Mounting:
		return "mounting"
	case Active:
		return "active"
	case Unmounting:
		return "unmounting"
	default:
		return "unmounted"
	}
}

// HeightFunc measures the timeline container. It reports false while the
// container has not been laid out yet.
type HeightFunc func() (float64, bool)

// PublishFunc receives every new offset. It runs with the scheduler lock held
// and must not call back into the Scheduler.
type PublishFunc func(offset float64)

// TickerFunc starts a recurring tick and returns its channel and a stop
// function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func stdTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Scheduler republishes the indicator offset whenever the clock advances or
// the container is remeasured.
type Scheduler struct {
	mu       sync.Mutex
	src      clock.Source
	measure  HeightFunc
	publish  PublishFunc
	interval time.Duration
	ticker   TickerFunc
	log      zerolog.Logger

	state     State
	height    float64
	measured  bool
	offset    float64
	published bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithTicker(fn TickerFunc) Option {
	return func(s *Scheduler) { s.ticker = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates an unmounted scheduler. measure and publish may be nil; a nil
// measure means the height only arrives through Resize.
func New(src clock.Source, measure HeightFunc, publish PublishFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		src:      src,
		measure:  measure,
		publish:  publish,
		interval: DefaultInterval,
		ticker:   stdTicker,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount measures the container, publishes the initial offset and starts the
// recurring tick. The tick stops on Unmount or when ctx is cancelled.
func (s *Scheduler) Mount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unmounted {
		return ErrAlreadyMounted
	}

	s.state = Mounting
	s.measureLocked()
	s.recomputeLocked()

	ticks, stop := s.ticker(s.interval)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, ticks, stop, s.done)

	s.state = Active
	s.log.Debug().Dur("interval", s.interval).Float64("height", s.height).Msg("indicator mounted")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, ticks <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			s.Tick()
		}
	}
}

// Unmount cancels the tick and waits for it to stop. No offset is published
// once Unmount returns. Calling it again, or before Mount, does nothing.
func (s *Scheduler) Unmount() {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}
	s.state = Unmounting
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.state = Unmounted
	s.cancel = nil
	s.done = nil
	s.published = false
	s.mu.Unlock()
	s.log.Debug().Msg("indicator unmounted")
}

// Tick recomputes the offset from the current time.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return
	}
	s.recomputeLocked()
}

// Remeasure queries the container height again and recomputes.
func (s *Scheduler) Remeasure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return
	}
	s.measureLocked()
	s.recomputeLocked()
}

// Resize records a height pushed by the layout, e.g. on a window resize.
// Invalid heights are ignored and the previous offset is kept.
func (s *Scheduler) Resize(height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return
	}
	s.setHeightLocked(height, true)
	s.recomputeLocked()
}

// Offset returns the last published offset and whether one was published
// since the last mount.
func (s *Scheduler) Offset() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, s.published
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) measureLocked() {
	if s.measure == nil {
		return
	}
	s.setHeightLocked(s.measure())
}

func (s *Scheduler) setHeightLocked(h float64, ok bool) {
	if !ok || !validHeight(h) {
		s.log.Debug().Float64("height", h).Msg("container height unavailable, holding offset")
		return
	}
	s.height = h
	s.measured = true
}

func (s *Scheduler) recomputeLocked() {
	if !s.measured {
		return
	}
	offset := ComputeOffset(clock.FractionOfDay(s.src), s.height)
	if s.published && offset == s.offset {
		return
	}
	s.offset = offset
	s.published = true
	if s.publish != nil {
		s.publish(offset)
	}
}
