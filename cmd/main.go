package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/victornm/wordquiz/internal/config"
	"github.com/victornm/wordquiz/internal/server"
)

// envPrefix namespaces every setting, e.g. WORDQUIZ_STORE_DRIVER for Store.Driver.
const envPrefix = "WORDQUIZ"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: c.Log.Level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	s, err := server.Init(c)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	go s.Start()

	<-ctx.Done()
	s.Shutdown()
	return nil
}

// loadConfig reads the file named by WORDQUIZ_CONFIG_PATH when set. Without it the defaults and
// the environment apply.
func loadConfig() (server.Config, error) {
	c := server.DefaultConfig()

	if err := config.Load(os.Getenv(envPrefix+"_CONFIG_PATH"), &c, config.WithEnvPrefix(envPrefix)); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}
