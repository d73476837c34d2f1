package client_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/wordquiz/internal/client"
	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/store"
	"github.com/victornm/wordquiz/internal/syncloop"
)

func TestState_Host(t *testing.T) {
	ctx := context.Background()
	s, _ := makeState(t, "host-1")

	_, ok, err := s.Host(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetHost(ctx, game.Host{RoomCode: "ABC123"}))
	h, ok, err := s.Host(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ABC123", h.RoomCode)

	require.NoError(t, s.ClearHost(ctx))
	_, ok, err = s.Host(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestState_Player(t *testing.T) {
	ctx := context.Background()
	s, _ := makeState(t, "player-1")

	p := game.Player{RoomCode: "ABC123", Name: "Ana"}
	require.NoError(t, s.SetPlayer(ctx, p))

	got, ok, err := s.Player(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p, got)

	require.NoError(t, s.ClearPlayer(ctx))
	_, ok, err = s.Player(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestState_LastFlashSeq(t *testing.T) {
	ctx := context.Background()
	s, rs := makeState(t, "player-1")

	seq, err := s.LastFlashSeq(ctx, "AAAAAA", "q1")
	require.NoError(t, err)
	require.Zero(t, seq)

	require.NoError(t, s.SetLastFlashSeq(ctx, "AAAAAA", "q1", 7))
	seq, err = s.LastFlashSeq(ctx, "AAAAAA", "q1")
	require.NoError(t, err)
	require.Equal(t, int64(7), seq)

	seq, err = s.LastFlashSeq(ctx, "AAAAAA", "q2")
	require.NoError(t, err)
	require.Zero(t, seq, "sequences are tracked per question")

	seq, err = s.LastFlashSeq(ctx, "BBBBBB", "q1")
	require.NoError(t, err)
	require.Zero(t, seq, "sequences are tracked per room")

	require.NoError(t, rs.Set("test:client:player-1:lastWrongFlashSeq_AAAAAA_q3", "garbage"))
	seq, err = s.LastFlashSeq(ctx, "AAAAAA", "q3")
	require.NoError(t, err)
	require.Zero(t, seq)
}

func TestState_ClearPlayerDropsFlashesOfItsRoom(t *testing.T) {
	ctx := context.Background()
	s, rs := makeState(t, "player-1")

	require.NoError(t, s.SetPlayer(ctx, game.Player{RoomCode: "AAAAAA", Name: "Ana"}))
	require.NoError(t, s.SetLastFlashSeq(ctx, "AAAAAA", "q1", 3))
	require.NoError(t, s.SetLastFlashSeq(ctx, "AAAAAA", "q2", 5))
	require.NoError(t, s.SetLastFlashSeq(ctx, "BBBBBB", "q1", 2))

	require.NoError(t, s.ClearPlayer(ctx))

	for _, qid := range []string{"q1", "q2"} {
		seq, err := s.LastFlashSeq(ctx, "AAAAAA", qid)
		require.NoError(t, err)
		require.Zero(t, seq, qid)
	}
	require.False(t, rs.Exists("test:client:player-1:lastWrongFlashSeq_AAAAAA_q1"))

	seq, err := s.LastFlashSeq(ctx, "BBBBBB", "q1")
	require.NoError(t, err)
	require.Equal(t, int64(2), seq, "other rooms are untouched")
}

func TestState_FlashesFireInEveryRoom(t *testing.T) {
	ctx := context.Background()
	s, _ := makeState(t, "player-1")
	f := syncloop.NewFlashTracker(s)

	observe := func(code string, seqs ...int64) []bool {
		var fired []bool
		for _, seq := range seqs {
			sig := &domain.Signal{Seq: seq, Kind: domain.SignalWrongAnswer, RoomCode: code, QuestionID: "q1"}
			fire, err := f.Observe(ctx, sig, "q1")
			require.NoError(t, err)
			fired = append(fired, fire)
		}
		return fired
	}

	require.NoError(t, s.SetPlayer(ctx, game.Player{RoomCode: "AAAAAA", Name: "Ana"}))
	require.Equal(t, []bool{true, true, true}, observe("AAAAAA", 1, 2, 3))

	require.NoError(t, s.ClearPlayer(ctx))
	require.NoError(t, s.SetPlayer(ctx, game.Player{RoomCode: "BBBBBB", Name: "Ana"}))
	require.Equal(t, []bool{true, true, true}, observe("BBBBBB", 1, 2, 3))
}

func TestState_ClientsAreIsolated(t *testing.T) {
	ctx := context.Background()
	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{rs.Addr()}})
	t.Cleanup(func() { rc.Close() })

	a := client.NewState(store.NewRedisLocal(store.RedisLocalConfig{Redis: rc, Prefix: "test", ClientID: "a"}))
	b := client.NewState(store.NewRedisLocal(store.RedisLocalConfig{Redis: rc, Prefix: "test", ClientID: "b"}))

	require.NoError(t, a.SetHost(ctx, game.Host{RoomCode: "AAAAAA"}))
	_, ok, err := b.Host(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func makeState(t *testing.T, id string) (*client.State, *miniredis.Miniredis) {
	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{rs.Addr()}})
	t.Cleanup(func() { rc.Close() })

	return client.NewState(store.NewRedisLocal(store.RedisLocalConfig{Redis: rc, Prefix: "test", ClientID: id})), rs
}
