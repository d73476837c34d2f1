package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/wordquiz/internal/domain"
)

// maxSignals is how many signals are kept per room. Observers only ever need the latest.
const maxSignals = 32

type RedisConfig struct {
	Redis       redis.UniversalClient
	Prefix      string
	MaxAttempts int
}

// Redis keeps the registry as one JSON document under a single key, so every write is a whole
// registry overwrite. Mutate guards the read-modify-write with WATCH.
type Redis struct {
	rc       redis.UniversalClient
	prefix   string
	attempts int
}

func NewRedis(c RedisConfig) *Redis {
	return &Redis{
		rc:       c.Redis,
		prefix:   c.Prefix,
		attempts: c.MaxAttempts,
	}
}

func (s *Redis) ReadAll(ctx context.Context) (Rooms, error) {
	b, err := s.rc.Get(ctx, s.roomsKey()).Bytes()
	if err != nil && !stderrors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("store: read rooms: %w", err)
	}

	rooms, err := decodeRooms(b)
	if err != nil {
		return nil, fmt.Errorf("store: decode rooms: %w", err)
	}

	return rooms, nil
}

func (s *Redis) WriteAll(ctx context.Context, rooms Rooms) error {
	b, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("store: encode rooms: %w", err)
	}

	if err := s.rc.Set(ctx, s.roomsKey(), b, 0).Err(); err != nil {
		return fmt.Errorf("store: write rooms: %w", err)
	}

	return nil
}

func (s *Redis) Mutate(ctx context.Context, fn func(rooms Rooms) error) error {
	key := s.roomsKey()

	return retry(ctx, s.attempts, func() error {
		err := s.rc.Watch(ctx, func(tx *redis.Tx) error {
			b, err := tx.Get(ctx, key).Bytes()
			if err != nil && !stderrors.Is(err, redis.Nil) {
				return fmt.Errorf("store: read rooms: %w", err)
			}

			rooms, err := decodeRooms(b)
			if err != nil {
				return fmt.Errorf("store: decode rooms: %w", err)
			}

			before, err := fingerprint(rooms)
			if err != nil {
				return err
			}

			if err := fn(rooms); err != nil {
				return err
			}

			changed, err := bumpVersions(before, rooms)
			if err != nil {
				return err
			}
			if len(changed) == 0 && len(before) == len(rooms) {
				return nil
			}

			out, err := json.Marshal(rooms)
			if err != nil {
				return fmt.Errorf("store: encode rooms: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				return nil
			})
			return err
		}, key)

		if stderrors.Is(err, redis.TxFailedErr) {
			return errConflict
		}
		return err
	})
}

func (s *Redis) Emit(ctx context.Context, sig domain.Signal) (domain.Signal, error) {
	seq, err := s.rc.Incr(ctx, s.key("room", sig.RoomCode, "signal", "seq")).Result()
	if err != nil {
		return sig, fmt.Errorf("store: next signal seq: %w", err)
	}
	sig.Seq = seq

	b, err := json.Marshal(sig)
	if err != nil {
		return sig, fmt.Errorf("store: encode signal: %w", err)
	}

	logKey := s.key("room", sig.RoomCode, "signals")
	_, err = s.rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, logKey, redis.Z{Score: float64(seq), Member: string(b)})
		pipe.ZRemRangeByRank(ctx, logKey, 0, -(maxSignals + 1))
		return nil
	})
	if err != nil {
		return sig, fmt.Errorf("store: append signal: %w", err)
	}

	return sig, nil
}

func (s *Redis) Latest(ctx context.Context, code string) (*domain.Signal, error) {
	res, err := s.rc.ZRevRange(ctx, s.key("room", code, "signals"), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("store: latest signal: %w", err)
	}

	if len(res) == 0 {
		return nil, nil
	}

	var sig domain.Signal
	if err := json.Unmarshal([]byte(res[0]), &sig); err != nil {
		return nil, fmt.Errorf("store: decode signal: %w", err)
	}

	return &sig, nil
}

func (s *Redis) Clear(ctx context.Context, code string) error {
	err := s.rc.Del(ctx,
		s.key("room", code, "signals"),
		s.key("room", code, "signal", "seq"),
	).Err()
	if err != nil {
		return fmt.Errorf("store: clear signals: %w", err)
	}

	return nil
}

func (s *Redis) roomsKey() string {
	return s.key("rooms")
}

func (s *Redis) key(parts ...string) string {
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return strings.Join(parts, ":")
}
