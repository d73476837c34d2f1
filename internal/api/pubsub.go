package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/syncloop"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	RoomChange struct {
		Code    string `json:"code"`
		Version int64  `json:"version,omitempty"`
	}

	Leaderboard struct {
		RoomCode string             `json:"room_code"`
		Entries  []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		Rank   int    `json:"rank"`
		Player string `json:"player"`
		Points int    `json:"points"`
	}
)

func newLeaderboard(l domain.Leaderboard) Leaderboard {
	data := Leaderboard{
		RoomCode: l.RoomCode,
		Entries:  make([]LeaderboardEntry, 0, len(l.Entries)),
	}

	for i, entry := range l.Entries {
		data.Entries = append(data.Entries, LeaderboardEntry{
			Rank:   i + 1,
			Player: entry.Name,
			Points: entry.Points,
		})
	}

	return data
}

// PublishRoomChanged announces a committed change on the room channel. The payload only names
// the room; subscribers re-read it.
func (a *API) PublishRoomChanged(ctx context.Context, e domain.EventRoomChanged) error {
	return a.publishNotification(ctx, syncloop.RoomChannel(a.prefix, e.Room.Code), e.Name(), RoomChange{
		Code:    e.Room.Code,
		Version: e.Room.Version,
	})
}

func (a *API) PublishRoomDeleted(ctx context.Context, e domain.EventRoomDeleted) error {
	return a.publishNotification(ctx, syncloop.RoomChannel(a.prefix, e.Code), e.Name(), RoomChange{
		Code: e.Code,
	})
}

// PublishLeaderboardUpdated sends the leaderboard to the room's leaderboard channel and to the
// channel of every ranked player.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	data := newLeaderboard(e.Leaderboard)
	code := e.Leaderboard.RoomCode

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	eg.Go(func() error {
		return a.publishNotification(ctx, LeaderboardChannel(a.prefix, code), e.Name(), data)
	})
	for _, entry := range data.Entries {
		entry := entry
		eg.Go(func() error {
			return a.publishNotification(ctx, PlayerChannel(a.prefix, code, entry.Player), e.Name(), data)
		})
	}

	return eg.Wait()
}

func LeaderboardChannel(prefix, code string) string {
	return syncloop.RoomChannel(prefix, code) + ":leaderboard"
}

func PlayerChannel(prefix, code, player string) string {
	return syncloop.RoomChannel(prefix, code) + ":player:" + player
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}
