package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/victornm/wordquiz/internal/server"
	"github.com/victornm/wordquiz/internal/syncloop"
)

type Config struct {
	clientID    string
	interval    time.Duration
	maxAttempts int
	postgresURL string
	prefix      string
	push        bool
	redisAddrs  []string
	redisPass   string
	storeDriver string
	verbose     bool
}

func (c *Config) validate() error {
	if len(c.redisAddrs) == 0 {
		return errors.New("at least one --redis-addr is required")
	}
	switch c.storeDriver {
	case server.StoreDriverRedis:
	case server.StoreDriverPostgres:
		if c.postgresURL == "" {
			return errors.New("--postgres-url is required with --store postgres")
		}
	default:
		return fmt.Errorf("invalid store (must be redis or postgres): %q", c.storeDriver)
	}
	if c.interval <= 0 {
		return fmt.Errorf("invalid interval (must be positive): %s", c.interval)
	}
	return nil
}

func (c *Config) setupLogging() {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Host or play a word quiz from the terminal.",
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.setupLogging()
			return cfg.validate()
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.clientID, "client-id", "", "identity of this client's local state; generated and remembered when empty (env: QUIZCTL_CLIENT_ID)")
	fs.DurationVar(&cfg.interval, "interval", syncloop.DefaultInterval, "how often watch re-reads the room (env: QUIZCTL_INTERVAL)")
	fs.IntVar(&cfg.maxAttempts, "max-attempts", 16, "attempts per update before giving up on concurrent writers (env: QUIZCTL_MAX_ATTEMPTS)")
	fs.StringVar(&cfg.postgresURL, "postgres-url", "", "postgres connection URL for --store postgres (env: QUIZCTL_POSTGRES_URL)")
	fs.StringVar(&cfg.prefix, "prefix", "wordquiz", "key prefix inside the shared store (env: QUIZCTL_PREFIX)")
	fs.BoolVar(&cfg.push, "push", false, "watch Redis notifications instead of polling (env: QUIZCTL_PUSH)")
	fs.StringSliceVar(&cfg.redisAddrs, "redis-addr", []string{"localhost:6379"}, "redis address, repeatable (env: QUIZCTL_REDIS_ADDR)")
	fs.StringVar(&cfg.redisPass, "redis-pass", "", "redis password (env: QUIZCTL_REDIS_PASS)")
	fs.StringVar(&cfg.storeDriver, "store", server.StoreDriverRedis, "shared store: redis or postgres (env: QUIZCTL_STORE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display debug logs (env: QUIZCTL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newHostCmd(cfg), newPlayCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizctl v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
