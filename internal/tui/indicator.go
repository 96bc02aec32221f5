package tui

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/clock"
	"github.com/sadopc/dayplan/internal/indicator"
)

// indicatorModel bridges the offset scheduler into the Bubble Tea loop. The
// scheduler ticks on its own goroutine and only stores the offset; the view
// picks it up on every tickMsg.
type indicatorModel struct {
	sched *indicator.Scheduler
	src   clock.Source

	rows int       // timeline height in rows
	row  int       // row of the indicator, -1 until one is published
	now  time.Time // time of the last sync
}

func newIndicatorModel(src clock.Source, rows int, opts ...indicator.Option) indicatorModel {
	initial := float64(rows)
	measure := func() (float64, bool) { return initial, initial > 0 }
	return indicatorModel{
		sched: indicator.New(src, measure, nil, opts...),
		src:   src,
		rows:  rows,
		row:   -1,
		now:   src.Now(),
	}
}

func indicatorOptions(interval time.Duration, log zerolog.Logger) []indicator.Option {
	return []indicator.Option{
		indicator.WithInterval(interval),
		indicator.WithLogger(log),
	}
}

func (m *indicatorModel) mount(ctx context.Context) error {
	if err := m.sched.Mount(ctx); err != nil {
		return err
	}
	m.sync()
	return nil
}

func (m indicatorModel) unmount() {
	m.sched.Unmount()
}

func (m indicatorModel) mounted() bool {
	return m.sched.State() == indicator.Active
}

// resize pushes a new timeline height. Heights are ignored until mounted.
func (m *indicatorModel) resize(rows int) {
	m.rows = rows
	m.sched.Resize(float64(rows))
	m.sync()
}

// sync copies the last published offset into the model.
func (m *indicatorModel) sync() {
	m.now = m.src.Now()
	offset, ok := m.sched.Offset()
	if !ok {
		m.row = -1
		return
	}
	m.row = int(offset)
}
