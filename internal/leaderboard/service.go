package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/event"
)

const (
	defaultPublishInterval = 200 * time.Millisecond
)

// ScoreReader returns a room's scores highest first.
type ScoreReader interface {
	Scores(ctx context.Context, code string) ([]domain.ScoreEntry, error)
}

type Config struct {
	EventBus        *event.Bus
	Scores          ScoreReader
	Redis           redis.UniversalClient
	Prefix          string
	PublishInterval time.Duration
}

type Service struct {
	eb       *event.Bus
	scores   ScoreReader
	redis    redis.UniversalClient
	prefix   string
	interval time.Duration

	mu          sync.Mutex
	closed      bool
	trailing    map[string]*time.Timer
	unsubscribe func()
}

func NewService(c Config) *Service {
	s := &Service{
		eb:       c.EventBus,
		scores:   c.Scores,
		redis:    c.Redis,
		prefix:   c.Prefix,
		interval: c.PublishInterval,
		trailing: make(map[string]*time.Timer),
	}

	if s.interval <= 0 {
		s.interval = defaultPublishInterval
	}

	s.unsubscribe = s.eb.Subscribe(domain.EventNameScoreAwarded, func(ctx context.Context, e event.Event) error {
		return s.ScoreAwarded(ctx, e.(domain.EventScoreAwarded))
	})

	return s
}

type GetLeaderboardRequest struct {
	RoomCode string
}

// GetLeaderboard returns the ranked scores of a room.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	entries, err := s.scores.Scores(ctx, req.RoomCode)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	return &domain.Leaderboard{
		RoomCode: req.RoomCode,
		Entries:  entries,
	}, nil
}

// ScoreAwarded publishes the leaderboard of the room of e at most once per interval, since a
// host often awards several players in a row. The first award of a window publishes at once;
// later awards in the same window are covered by one trailing publication when it ends.
func (s *Service) ScoreAwarded(ctx context.Context, e domain.EventScoreAwarded) error {
	// SETNX keeps multiple instances from publishing the same window twice.
	ok, err := s.redis.SetNX(ctx, s.getLeaderboardTimeKey(e.RoomCode), time.Now().UnixMilli(), s.interval).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}

	if !ok {
		s.scheduleTrailing(e.RoomCode)
		return nil
	}

	return s.publishLeaderboard(ctx, e.RoomCode)
}

func (s *Service) scheduleTrailing(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if _, ok := s.trailing[code]; ok {
		return
	}

	s.trailing[code] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		delete(s.trailing, code)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.publishLeaderboard(ctx, code); err != nil {
			slog.ErrorContext(ctx, "leaderboard: trailing publish failed", "room", code, "error", err)
		}
	})
}

// Close stops listening for awards and drops trailing publications that are not due yet.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.unsubscribe()

	for code, t := range s.trailing {
		t.Stop()
		delete(s.trailing, code)
	}
}

func (s *Service) publishLeaderboard(ctx context.Context, code string) error {
	l, err := s.GetLeaderboard(ctx, GetLeaderboardRequest{
		RoomCode: code,
	})
	if err != nil {
		return fmt.Errorf("get leaderboard failed: room=%s: %w", code, err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
		Leaderboard: *l,
	})

	return s.redis.Set(ctx, s.getLeaderboardTimeKey(code), time.Now().UnixMilli(), s.interval).Err()
}

func (s *Service) getLeaderboardTimeKey(code string) string {
	return fmt.Sprintf("%s:room:%s:leaderboard:time", s.prefix, code)
}
