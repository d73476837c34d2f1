package syncloop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomChannel is the pub/sub channel announcing changes to a room.
func RoomChannel(prefix, code string) string {
	if prefix == "" {
		return fmt.Sprintf("room:%s", code)
	}
	return fmt.Sprintf("%s:room:%s", prefix, code)
}

type RedisSourceConfig struct {
	Redis  redis.UniversalClient
	Prefix string
	Reader Reader
	Now    func() time.Time
}

// RedisSource pushes a fresh snapshot whenever a change of the room is announced on its channel.
// Notifications carry no state; every one triggers a full re-read.
type RedisSource struct {
	rc     redis.UniversalClient
	prefix string
	reader Reader
	now    func() time.Time
}

func NewRedisSource(c RedisSourceConfig) *RedisSource {
	s := &RedisSource{
		rc:     c.Redis,
		prefix: c.Prefix,
		reader: c.Reader,
		now:    c.Now,
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func (s *RedisSource) Subscribe(ctx context.Context, code string) (<-chan Snapshot, error) {
	ps := s.rc.Subscribe(ctx, RoomChannel(s.prefix, code))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("syncloop: subscribe room %s: %w", code, err)
	}

	ch := make(chan Snapshot, 1)
	msgs := ps.Channel()

	go func() {
		defer close(ch)
		defer func() {
			if err := ps.Close(); err != nil {
				slog.WarnContext(ctx, "syncloop: close subscription failed", "room", code, "error", err)
			}
		}()

		if !send(ctx, ch, s.reader, code, s.now) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				drain(msgs)
				if !send(ctx, ch, s.reader, code, s.now) {
					return
				}
			}
		}
	}()

	return ch, nil
}

// drain discards queued notifications; one re-read covers all of them.
func drain(msgs <-chan *redis.Message) {
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
