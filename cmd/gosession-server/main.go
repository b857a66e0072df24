// Command gosession-server serves the goSession JSON API.
//
// Configuration is read from the environment and from the .env files named
// by -env (default ".env" when present). See goSession.Config for the
// variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"go.uber.org/zap"
)

func main() {
	envFiles := flag.String("env", "", "comma-separated .env files to load")
	flag.Parse()

	var files []string
	if *envFiles != "" {
		files = strings.Split(*envFiles, ",")
	}

	cfg, err := goSession.LoadConfig(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Must(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Development(),
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
