package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/store"
)

func TestRedis_ReadAllEmpty(t *testing.T) {
	s, _ := makeStore(t)

	rooms, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, rooms)
}

func TestRedis_WriteAllReadAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := makeStore(t)

	require.NoError(t, s.WriteAll(ctx, store.Rooms{"ABC123": makeRoom("ABC123")}))

	first, err := s.ReadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.WriteAll(ctx, first))

	second, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRedis_WriteAllLostUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := makeStore(t)
	require.NoError(t, s.WriteAll(ctx, store.Rooms{"ABC123": makeRoom("ABC123")}))

	a, err := s.ReadAll(ctx)
	require.NoError(t, err)
	b, err := s.ReadAll(ctx)
	require.NoError(t, err)

	a["ABC123"].Participants = append(a["ABC123"].Participants, "Alice")
	require.NoError(t, s.WriteAll(ctx, a))

	b["ABC123"].Participants = append(b["ABC123"].Participants, "Bob")
	require.NoError(t, s.WriteAll(ctx, b))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Bob"}, got["ABC123"].Participants, "the later whole-registry write wins")
	require.Equal(t, "ABC123", got["ABC123"].Code)
}

func TestRedis_MutateKeepsConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s, _ := makeStore(t)
	require.NoError(t, s.WriteAll(ctx, store.Rooms{"ABC123": makeRoom("ABC123")}))

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Mutate(ctx, func(rooms store.Rooms) error {
				r := rooms["ABC123"]
				r.Participants = append(r.Participants, fmt.Sprintf("p%d", i))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got["ABC123"].Participants, n)
	require.Equal(t, int64(n), got["ABC123"].Version)
}

func TestRedis_Mutate(t *testing.T) {
	tests := map[string]struct {
		fn     func(rooms store.Rooms) error
		assert func(t *testing.T, err error, rooms store.Rooms)
	}{
		"error from fn aborts without writing": {
			fn: func(rooms store.Rooms) error {
				rooms["ABC123"].Name = "changed"
				return errors.Validation("nope")
			},
			assert: func(t *testing.T, err error, rooms store.Rooms) {
				require.True(t, errors.Is(err, errors.CodeInvalidArgument))
				require.Equal(t, "Quiz", rooms["ABC123"].Name)
				require.Equal(t, int64(0), rooms["ABC123"].Version)
			},
		},
		"untouched rooms keep their version": {
			fn: func(rooms store.Rooms) error {
				rooms["NEW999"] = makeRoom("NEW999")
				return nil
			},
			assert: func(t *testing.T, err error, rooms store.Rooms) {
				require.NoError(t, err)
				require.Equal(t, int64(0), rooms["ABC123"].Version)
				require.Equal(t, int64(1), rooms["NEW999"].Version)
			},
		},
		"deleting a room is committed": {
			fn: func(rooms store.Rooms) error {
				delete(rooms, "ABC123")
				return nil
			},
			assert: func(t *testing.T, err error, rooms store.Rooms) {
				require.NoError(t, err)
				require.NotContains(t, rooms, "ABC123")
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := makeStore(t)
			require.NoError(t, s.WriteAll(ctx, store.Rooms{"ABC123": makeRoom("ABC123")}))

			err := s.Mutate(ctx, tt.fn)

			rooms, rerr := s.ReadAll(ctx)
			require.NoError(t, rerr)
			tt.assert(t, err, rooms)
		})
	}
}

func TestRedis_MutateGivesUpOnPersistentConflict(t *testing.T) {
	ctx := context.Background()
	rs := miniredis.RunT(t)
	rc := makeRedis(t, rs)
	s := store.NewRedis(store.RedisConfig{Redis: rc, Prefix: "test", MaxAttempts: 3})
	require.NoError(t, s.WriteAll(ctx, store.Rooms{"ABC123": makeRoom("ABC123")}))

	calls := 0
	err := s.Mutate(ctx, func(rooms store.Rooms) error {
		calls++
		// Another writer commits between our read and our write.
		require.NoError(t, s.WriteAll(ctx, store.Rooms{"ABC123": makeRoom("ABC123")}))
		rooms["ABC123"].Name = "mine"
		return nil
	})

	require.True(t, errors.Is(err, errors.CodeAborted))
	require.Equal(t, 3, calls)
}

func TestRedis_Signals(t *testing.T) {
	ctx := context.Background()
	s, _ := makeStore(t)

	latest, err := s.Latest(ctx, "ABC123")
	require.NoError(t, err)
	require.Nil(t, latest)

	now := time.Now().UTC().Truncate(time.Millisecond)
	for i := 1; i <= 40; i++ {
		sig, err := s.Emit(ctx, domain.Signal{
			Kind:       domain.SignalWrongAnswer,
			RoomCode:   "ABC123",
			QuestionID: fmt.Sprintf("q%d", i),
			At:         now,
		})
		require.NoError(t, err)
		require.Equal(t, int64(i), sig.Seq)
	}

	latest, err = s.Latest(ctx, "ABC123")
	require.NoError(t, err)
	require.Equal(t, &domain.Signal{
		Seq:        40,
		Kind:       domain.SignalWrongAnswer,
		RoomCode:   "ABC123",
		QuestionID: "q40",
		At:         now,
	}, latest)

	other, err := s.Latest(ctx, "OTHER1")
	require.NoError(t, err)
	require.Nil(t, other)

	require.NoError(t, s.Clear(ctx, "ABC123"))
	latest, err = s.Latest(ctx, "ABC123")
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestRedisLocal(t *testing.T) {
	ctx := context.Background()
	rs := miniredis.RunT(t)
	rc := makeRedis(t, rs)

	host := store.NewRedisLocal(store.RedisLocalConfig{Redis: rc, Prefix: "test", ClientID: "host"})
	player := store.NewRedisLocal(store.RedisLocalConfig{Redis: rc, Prefix: "test", ClientID: "player"})

	_, ok, err := host.Get(ctx, "currentHostRoom")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, host.Set(ctx, "currentHostRoom", "ABC123"))

	v, ok, err := host.Get(ctx, "currentHostRoom")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ABC123", v)

	_, ok, err = player.Get(ctx, "currentHostRoom")
	require.NoError(t, err)
	require.False(t, ok, "clients must not see each other's keys")

	require.NoError(t, host.Delete(ctx, "currentHostRoom"))
	_, ok, err = host.Get(ctx, "currentHostRoom")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, host.Set(ctx, "seq_A_q1", "1"))
	require.NoError(t, host.Set(ctx, "seq_A_q2", "2"))
	require.NoError(t, host.Set(ctx, "seq_B_q1", "3"))
	require.NoError(t, player.Set(ctx, "seq_A_q1", "4"))

	require.NoError(t, host.DeletePrefix(ctx, "seq_A_"))
	require.NoError(t, host.DeletePrefix(ctx, "missing_"))

	for key, want := range map[string]bool{"seq_A_q1": false, "seq_A_q2": false, "seq_B_q1": true} {
		_, ok, err = host.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, want, ok, key)
	}
	_, ok, err = player.Get(ctx, "seq_A_q1")
	require.NoError(t, err)
	require.True(t, ok, "other clients keep their keys")
}

func makeStore(t *testing.T) (*store.Redis, *miniredis.Miniredis) {
	rs := miniredis.RunT(t)
	return store.NewRedis(store.RedisConfig{Redis: makeRedis(t, rs), Prefix: "test"}), rs
}

func makeRedis(t *testing.T, rs *miniredis.Miniredis) redis.UniversalClient {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	t.Cleanup(func() { rc.Close() })
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return rc
}

func makeRoom(code string) *domain.Room {
	return &domain.Room{
		Code:         code,
		Name:         "Quiz",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Participants: []string{},
		Status:       domain.RoomStatusWaiting,
		Questions:    []domain.Question{},
		PlayerScores: domain.Scores{},
	}
}
