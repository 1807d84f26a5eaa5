package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"bet-books/internal/adapters/cli"
	"bet-books/internal/adapters/repl"
	"bet-books/internal/app"
	"bet-books/internal/config"
	"bet-books/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	svc, closeStorage, err := app.Open(ctx, cfg, logger.WithComponent("books"))
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	if len(os.Args) < 2 {
		repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
		closeStorage()
		return
	}

	err = cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	closeStorage()
	if err != nil {
		cmdLog := logger.WithComponent("cmd")
		cmdLog.Debug().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
