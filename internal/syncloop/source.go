// Package syncloop keeps a client's view of a room in step with the shared store. A Source yields
// snapshots of one room; views are rebuilt from each snapshot from scratch, so a missed snapshot
// is never a problem, only a delay.
package syncloop

import (
	"context"
	"log/slog"
	"time"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/telemetry"
)

const DefaultInterval = 2 * time.Second

// Snapshot is one independent read of a room and its newest signal.
type Snapshot struct {
	Code string
	// Found is false when the room no longer exists. Room is nil then.
	Found  bool
	Room   *domain.Room
	Signal *domain.Signal
	At     time.Time
}

// Source delivers snapshots of a room until ctx is done, then closes the channel.
type Source interface {
	Subscribe(ctx context.Context, code string) (<-chan Snapshot, error)
}

// Reader reads the current state of a room.
type Reader interface {
	Snapshot(ctx context.Context, code string) (*domain.Room, error)
	LatestSignal(ctx context.Context, code string) (*domain.Signal, error)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type PollerConfig struct {
	Reader        Reader
	Interval      time.Duration
	NewTickerFunc func(d time.Duration) Ticker
	Now           func() time.Time
}

// Poller re-reads the room on a fixed interval. Reads run on one goroutine, so a tick never
// overlaps the previous one.
type Poller struct {
	reader    Reader
	interval  time.Duration
	newTicker func(d time.Duration) Ticker
	now       func() time.Time
}

func NewPoller(c PollerConfig) *Poller {
	p := &Poller{
		reader:    c.Reader,
		interval:  c.Interval,
		newTicker: c.NewTickerFunc,
		now:       c.Now,
	}

	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.newTicker == nil {
		p.newTicker = newTimeTicker
	}
	if p.now == nil {
		p.now = time.Now
	}

	return p
}

// Subscribe reads the room once immediately and then on every tick.
func (p *Poller) Subscribe(ctx context.Context, code string) (<-chan Snapshot, error) {
	ch := make(chan Snapshot, 1)
	t := p.newTicker(p.interval)

	go func() {
		defer close(ch)
		defer t.Stop()

		if !send(ctx, ch, p.reader, code, p.now) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				if !send(ctx, ch, p.reader, code, p.now) {
					return
				}
			}
		}
	}()

	return ch, nil
}

// send reads one snapshot and delivers it. It reports false once ctx is done.
// A failed read is logged and skipped.
func send(ctx context.Context, ch chan<- Snapshot, r Reader, code string, now func() time.Time) bool {
	s, ok := read(ctx, r, code, now)
	if !ok {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case ch <- s:
		return true
	}
}

func read(ctx context.Context, r Reader, code string, now func() time.Time) (Snapshot, bool) {
	s := Snapshot{Code: code, At: now()}

	room, err := r.Snapshot(ctx, code)
	switch {
	case errors.Is(err, errors.CodeNotFound):
		telemetry.SyncPolls.WithLabelValues("missing").Inc()
		return s, true
	case err != nil:
		if ctx.Err() == nil {
			telemetry.SyncPolls.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "syncloop: read room failed", "room", code, "error", err)
		}
		return s, false
	}

	s.Found = true
	s.Room = room

	sig, err := r.LatestSignal(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "syncloop: read signal failed", "room", code, "error", err)
	}
	s.Signal = sig

	telemetry.SyncPolls.WithLabelValues("ok").Inc()
	return s, true
}
