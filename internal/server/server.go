package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/victornm/wordquiz/internal/api"
	"github.com/victornm/wordquiz/internal/event"
	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/leaderboard"
	"github.com/victornm/wordquiz/internal/room"
	"github.com/victornm/wordquiz/internal/store"
	"github.com/victornm/wordquiz/internal/syncloop"
	"github.com/victornm/wordquiz/internal/telemetry"
)

const (
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Log struct {
		Level slog.Level
	}

	HTTP struct {
		Port        int32
		CORSOrigins []string
		// JoinURL is the participant page encoded in room QR codes.
		JoinURL string
	}

	GRPC struct {
		Port int32
	}

	Store struct {
		// Driver is either "redis" or "postgres".
		Driver      string
		Prefix      string
		MaxAttempts int
	}

	Redis struct {
		Addrs []string
		Pass  string
	}

	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}

	Sync struct {
		Interval time.Duration
		// Push streams snapshots on Redis notifications instead of polling.
		Push bool
	}

	Leaderboard struct {
		PublishInterval time.Duration
	}
}

// DefaultConfig returns the configuration used for every key the config file and environment
// leave unset.
func DefaultConfig() Config {
	var c Config
	c.Log.Level = slog.LevelInfo
	c.HTTP.Port = 8080
	c.HTTP.CORSOrigins = []string{"*"}
	c.GRPC.Port = 8081
	c.Store.Driver = StoreDriverRedis
	c.Store.Prefix = "wordquiz"
	c.Store.MaxAttempts = 16
	c.Redis.Addrs = []string{"localhost:6379"}
	c.Sync.Interval = syncloop.DefaultInterval
	c.Leaderboard.PublishInterval = 200 * time.Millisecond
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	store struct {
		rooms   store.Store
		signals store.Signals
	}

	service struct {
		room        *room.Service
		game        *game.Service
		leaderboard *leaderboard.Service
	}

	http *http.Server
	grpc *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initStore(); err != nil {
		return nil, fmt.Errorf("server: init store: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if s.c.Store.Driver == StoreDriverPostgres {
		if err := s.initPostgres(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}

	return nil
}

func (s *Server) initRedis() error {
	r, err := ConnectRedis(s.c.Redis.Addrs, s.c.Redis.Pass)
	if err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

// ConnectRedis opens an instrumented Redis client and checks it is reachable.
func ConnectRedis(addrs []string, pass string) (redis.UniversalClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return nil, err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg := s.c.Postgres
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pg.User, pg.Pass, pg.Addr, pg.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return err
	}

	s.infra.postgres = db
	return nil
}

func (s *Server) initStore() error {
	switch s.c.Store.Driver {
	case StoreDriverRedis, "":
		rs := store.NewRedis(store.RedisConfig{
			Redis:       s.infra.redis,
			Prefix:      s.c.Store.Prefix,
			MaxAttempts: s.c.Store.MaxAttempts,
		})
		s.store.rooms, s.store.signals = rs, rs

	case StoreDriverPostgres:
		ps := store.NewPostgres(store.PostgresConfig{
			DB:          s.infra.postgres,
			MaxAttempts: s.c.Store.MaxAttempts,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ps.EnsureSchema(ctx); err != nil {
			return err
		}
		s.store.rooms, s.store.signals = ps, ps

	default:
		return fmt.Errorf("unknown driver %q", s.c.Store.Driver)
	}

	return nil
}

func (s *Server) initService() {
	s.service.room = room.NewService(room.Config{
		Store:   s.store.rooms,
		Signals: s.store.signals,
	})

	s.service.game = game.NewService(game.Config{
		Rooms:    s.service.room,
		Signals:  s.store.signals,
		EventBus: s.eb,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus:        s.eb,
		Scores:          s.service.game,
		Redis:           s.infra.redis,
		Prefix:          s.c.Store.Prefix,
		PublishInterval: s.c.Leaderboard.PublishInterval,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())
	e.Use(cors.New(s.corsConfig()))

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor(slog.Default()))

	var source syncloop.Source
	if s.c.Sync.Push {
		source = syncloop.NewRedisSource(syncloop.RedisSourceConfig{
			Redis:  s.infra.redis,
			Prefix: s.c.Store.Prefix,
			Reader: s.service.game,
		})
	} else {
		source = syncloop.NewPoller(syncloop.PollerConfig{
			Reader:   s.service.game,
			Interval: s.c.Sync.Interval,
		})
	}

	api.New(api.Config{
		GRPC:         s.grpc,
		HTTP:         e,
		EventBus:     s.eb,
		Game:         s.service.game,
		Leaderboard:  s.service.leaderboard,
		Source:       source,
		Redis:        s.infra.redis,
		PubsubPrefix: s.c.Store.Prefix,
		JoinURL:      s.c.HTTP.JoinURL,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) corsConfig() cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}

	if len(s.c.HTTP.CORSOrigins) == 0 || slices.Contains(s.c.HTTP.CORSOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = s.c.HTTP.CORSOrigins
	}

	return c
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.service.leaderboard.Close()
	s.eb.Stop()

	if s.infra.postgres != nil {
		s.infra.postgres.Close()
	}
	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
