package syncloop

import (
	"context"
	"log/slog"

	"github.com/victornm/wordquiz/internal/game"
)

type LoopConfig struct {
	Source  Source
	Flashes *FlashTracker
}

// Loop drives a client's screen from a Source. The room is treated as read-only here: every
// change the loop sees comes from a snapshot.
type Loop struct {
	source  Source
	flashes *FlashTracker
}

func NewLoop(c LoopConfig) *Loop {
	return &Loop{
		source:  c.Source,
		flashes: c.Flashes,
	}
}

// RunHost renders the host view for every snapshot until ctx is done.
func (l *Loop) RunHost(ctx context.Context, h game.Host, render func(HostView)) error {
	ch, err := l.source.Subscribe(ctx, h.RoomCode)
	if err != nil {
		return err
	}

	for s := range ch {
		render(NewHostView(s))
	}

	return ctx.Err()
}

// RunParticipant renders the participant view for every snapshot until ctx is done.
func (l *Loop) RunParticipant(ctx context.Context, p game.Player, render func(ParticipantView)) error {
	ch, err := l.source.Subscribe(ctx, p.RoomCode)
	if err != nil {
		return err
	}

	for s := range ch {
		v := NewParticipantView(s, p.Name)

		if v.Phase == PhaseQuestion && l.flashes != nil {
			fire, err := l.flashes.Observe(ctx, s.Signal, v.Question.ID)
			if err != nil {
				slog.WarnContext(ctx, "syncloop: track flash failed", "room", p.RoomCode, "error", err)
			}
			v.Flash = fire
		}

		render(v)
	}

	return ctx.Err()
}
