package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/wordquiz/internal/api"
	"github.com/victornm/wordquiz/internal/client"
	"github.com/victornm/wordquiz/internal/event"
	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/room"
	"github.com/victornm/wordquiz/internal/server"
	"github.com/victornm/wordquiz/internal/store"
	"github.com/victornm/wordquiz/internal/syncloop"
)

// app holds everything one quizctl invocation talks to.
type app struct {
	cfg *Config

	redis    redis.UniversalClient
	postgres *pgxpool.Pool
	eb       *event.Bus

	game  *game.Service
	state *client.State
}

func newApp(ctx context.Context, cfg *Config) (*app, error) {
	a := &app{cfg: cfg, eb: event.NewBus()}

	rc, err := server.ConnectRedis(cfg.redisAddrs, cfg.redisPass)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = rc

	var (
		rooms   store.Store
		signals store.Signals
	)
	switch cfg.storeDriver {
	case server.StoreDriverPostgres:
		db, err := pgxpool.New(ctx, cfg.postgresURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.postgres = db

		ps := store.NewPostgres(store.PostgresConfig{DB: db, MaxAttempts: cfg.maxAttempts})
		if err := ps.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		rooms, signals = ps, ps

	default:
		rs := store.NewRedis(store.RedisConfig{Redis: rc, Prefix: cfg.prefix, MaxAttempts: cfg.maxAttempts})
		rooms, signals = rs, rs
	}

	a.game = game.NewService(game.Config{
		Rooms:    room.NewService(room.Config{Store: rooms, Signals: signals}),
		Signals:  signals,
		EventBus: a.eb,
	})

	// Announce changes on the room channels so that push watchers elsewhere see them.
	api.New(api.Config{
		EventBus:     a.eb,
		Game:         a.game,
		Redis:        rc,
		PubsubPrefix: cfg.prefix,
	})

	id, err := resolveClientID(cfg.clientID)
	if err != nil {
		a.close()
		return nil, err
	}

	a.state = client.NewState(store.NewRedisLocal(store.RedisLocalConfig{
		Redis:    rc,
		Prefix:   cfg.prefix,
		ClientID: id,
	}))

	return a, nil
}

// source returns how watch learns about changes: Redis notifications or polling.
func (a *app) source() syncloop.Source {
	if a.cfg.push {
		return syncloop.NewRedisSource(syncloop.RedisSourceConfig{
			Redis:  a.redis,
			Prefix: a.cfg.prefix,
			Reader: a.game,
		})
	}

	return syncloop.NewPoller(syncloop.PollerConfig{
		Reader:   a.game,
		Interval: a.cfg.interval,
	})
}

func (a *app) host(ctx context.Context) (game.Host, error) {
	h, ok, err := a.state.Host(ctx)
	if err != nil {
		return game.Host{}, err
	}
	if !ok {
		return game.Host{}, fmt.Errorf("not hosting a room: run 'quizctl host create' first")
	}
	return h, nil
}

func (a *app) player(ctx context.Context) (game.Player, error) {
	p, ok, err := a.state.Player(ctx)
	if err != nil {
		return game.Player{}, err
	}
	if !ok {
		return game.Player{}, fmt.Errorf("not in a room: run 'quizctl play join <code> <name>' first")
	}
	return p, nil
}

// close waits for pending notifications before dropping the connections.
func (a *app) close() {
	a.eb.Stop()

	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// withApp runs fn against a fresh app and closes it afterwards.
func withApp(ctx context.Context, cfg *Config, fn func(a *app) error) error {
	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a, err := newApp(setupCtx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(a)
}

// resolveClientID returns id, or the id remembered in the user's config directory, creating one
// on first use.
func resolveClientID(id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}

	return loadClientID(filepath.Join(dir, "wordquiz", "client-id"))
}

func loadClientID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read client id: %w", err)
	}

	id := uuid.NewString()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write client id: %w", err)
	}

	return id, nil
}
