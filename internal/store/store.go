// Package store holds the shared state every quiz client reads and writes: the registry of rooms,
// the per-room signal log, and the client-local keyspace.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/telemetry"
)

const defaultMaxAttempts = 16

// Rooms is the whole registry, keyed by room code.
type Rooms map[string]*domain.Room

// Store persists the registry as one mapping.
type Store interface {
	// ReadAll returns a private copy of the registry.
	ReadAll(ctx context.Context) (Rooms, error)
	// WriteAll replaces the registry. Concurrent writers overwrite each other: last write wins.
	WriteAll(ctx context.Context, rooms Rooms) error
	// Mutate runs fn on a fresh copy of the registry and commits the result only if no
	// concurrent writer changed the rooms fn touched in between; otherwise it retries.
	// fn may run more than once and must not keep references to rooms. An error returned by
	// fn aborts the mutation without writing.
	Mutate(ctx context.Context, fn func(rooms Rooms) error) error
}

// Signals is the per-room log of one-shot notifications.
type Signals interface {
	// Emit appends s to the log of s.RoomCode and returns it with its assigned sequence number.
	Emit(ctx context.Context, s domain.Signal) (domain.Signal, error)
	// Latest returns the newest signal of a room, or nil when the log is empty.
	Latest(ctx context.Context, code string) (*domain.Signal, error)
	Clear(ctx context.Context, code string) error
}

// Local is a client-local keyspace inside the shared medium.
type Local interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// errConflict marks an attempt that lost an optimistic concurrency race.
var errConflict = stderrors.New("store: concurrent modification")

func retry(ctx context.Context, attempts int, try func() error) error {
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := try()
		if !stderrors.Is(err, errConflict) {
			return err
		}

		telemetry.StoreConflicts.Inc()
		slog.DebugContext(ctx, "store: write conflict, retrying", "attempt", i+1)
	}

	return errors.Aborted(errConflict, "store: gave up after %d conflicting attempts", attempts)
}

func decodeRooms(b []byte) (Rooms, error) {
	rooms := Rooms{}
	if len(b) == 0 {
		return rooms, nil
	}
	if err := json.Unmarshal(b, &rooms); err != nil {
		return nil, err
	}
	for code, r := range rooms {
		if r == nil {
			delete(rooms, code)
		}
	}
	return rooms, nil
}

func fingerprint(rooms Rooms) (map[string][]byte, error) {
	fp := make(map[string][]byte, len(rooms))
	for code, r := range rooms {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		fp[code] = b
	}
	return fp, nil
}

// bumpVersions increments the version of every room that is new or differs from its fingerprint,
// and returns the codes of those rooms.
func bumpVersions(before map[string][]byte, rooms Rooms) ([]string, error) {
	var changed []string
	for code, r := range rooms {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		if prev, ok := before[code]; ok && bytes.Equal(prev, b) {
			continue
		}
		r.Version++
		changed = append(changed, code)
	}
	return changed, nil
}
