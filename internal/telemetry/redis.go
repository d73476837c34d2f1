package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// slowCommand is well under the poll interval; anything slower delays every client's view.
const slowCommand = 100 * time.Millisecond

// MonitorRedis instruments r with tracing, metrics, command latency and logging.
func MonitorRedis(r redis.UniversalClient) error {
	if err := redisotel.InstrumentTracing(r); err != nil {
		return fmt.Errorf("instrument tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(r); err != nil {
		return fmt.Errorf("instrument metrics: %w", err)
	}
	r.AddHook(redisHook{})
	return nil
}

type redisHook struct{}

func (redisHook) DialHook(hook redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := hook(ctx, network, addr)
		if err != nil {
			slog.ErrorContext(ctx, "redis: dial failed", "network", network, "addr", addr, "error", err)
			return nil, err
		}
		slog.DebugContext(ctx, "redis: dialed", "network", network, "addr", addr)
		return conn, nil
	}
}

func (redisHook) ProcessHook(hook redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := hook(ctx, cmd)
		observeRedis(ctx, cmd.Name(), time.Since(start), err)
		return err
	}
}

func (redisHook) ProcessPipelineHook(hook redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := hook(ctx, cmds)
		observeRedis(ctx, "pipeline", time.Since(start), err)
		return err
	}
}

// observeRedis records the latency of a command. A missing key and a lost WATCH race are normal
// outcomes, not failures.
func observeRedis(ctx context.Context, name string, d time.Duration, err error) {
	RedisCommandDuration.WithLabelValues(name).Observe(d.Seconds())

	switch {
	case err != nil && !errors.Is(err, redis.Nil) && !errors.Is(err, redis.TxFailedErr):
		slog.WarnContext(ctx, "redis: command failed", "cmd", name, "duration", d, "error", err)
	case d > slowCommand:
		slog.WarnContext(ctx, "redis: slow command", "cmd", name, "duration", d)
	default:
		slog.DebugContext(ctx, "redis: processed", "cmd", name, "duration", d)
	}
}
