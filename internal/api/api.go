package api

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/victornm/wordquiz/internal/api/quizv1"
	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/event"
	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/leaderboard"
	"github.com/victornm/wordquiz/internal/syncloop"
)

type Config struct {
	GRPC        *grpc.Server
	HTTP        gin.IRouter
	EventBus    *event.Bus
	Game        *game.Service
	Leaderboard *leaderboard.Service
	// Source feeds the WebSocket streams.
	Source       syncloop.Source
	Redis        Redis
	PubsubPrefix string
	// JoinURL is the participant page encoded in room QR codes. The room code is appended as the
	// "room" query parameter. Empty means a URL on the requesting host.
	JoinURL string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	game   *game.Service
	ls     *leaderboard.Service
	source syncloop.Source

	redis   Redis
	prefix  string
	joinURL string
}

func New(c Config) *API {
	a := &API{
		game:    c.Game,
		ls:      c.Leaderboard,
		source:  c.Source,
		redis:   c.Redis,
		prefix:  c.PubsubPrefix,
		joinURL: c.JoinURL,
	}

	// gRPC APIs
	if c.GRPC != nil {
		quizv1.RegisterQuizServiceServer(c.GRPC, a)
	}

	// HTTP APIs
	if c.HTTP != nil {
		a.registerRoutes(c.HTTP)
	}

	// Register event handlers
	if a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameRoomChanged, func(ctx context.Context, e event.Event) error {
			return a.PublishRoomChanged(ctx, e.(domain.EventRoomChanged))
		})
		c.EventBus.Subscribe(domain.EventNameRoomDeleted, func(ctx context.Context, e event.Event) error {
			return a.PublishRoomDeleted(ctx, e.(domain.EventRoomDeleted))
		})
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
	}

	return a
}

func (a *API) GetRoom(ctx context.Context, req *quizv1.GetRoomRequest) (*quizv1.GetRoomResponse, error) {
	v, err := a.participantView(ctx, req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	return &quizv1.GetRoomResponse{View: v}, nil
}

func (a *API) JoinRoom(ctx context.Context, req *quizv1.JoinRoomRequest) (*quizv1.JoinRoomResponse, error) {
	p := game.Player{RoomCode: req.Code, Name: req.Name}

	r, err := a.game.Join(ctx, p)
	if err != nil {
		return nil, err
	}

	v := syncloop.NewParticipantView(syncloop.Snapshot{Code: r.Code, Found: true, Room: r}, strings.TrimSpace(req.Name))
	return &quizv1.JoinRoomResponse{View: v}, nil
}

func (a *API) LeaveRoom(ctx context.Context, req *quizv1.LeaveRoomRequest) (*quizv1.LeaveRoomResponse, error) {
	if err := a.game.Leave(ctx, game.Player{RoomCode: req.Code, Name: req.Name}); err != nil {
		return nil, err
	}

	return &quizv1.LeaveRoomResponse{}, nil
}

func (a *API) SubmitGuess(ctx context.Context, req *quizv1.SubmitGuessRequest) (*quizv1.SubmitGuessResponse, error) {
	correct, err := a.game.SubmitGuess(ctx, game.Player{RoomCode: req.Code, Name: req.Name}, req.Guess)
	if err != nil {
		return nil, err
	}

	return &quizv1.SubmitGuessResponse{Correct: correct}, nil
}

func (a *API) participantView(ctx context.Context, code, name string) (syncloop.ParticipantView, error) {
	r, err := a.game.Snapshot(ctx, code)
	if err != nil {
		return syncloop.ParticipantView{}, err
	}

	return syncloop.NewParticipantView(syncloop.Snapshot{Code: code, Found: true, Room: r}, name), nil
}
