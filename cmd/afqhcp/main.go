package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pluto-org-co/afqhcp/cmd/afqhcp/example"
	"github.com/pluto-org-co/afqhcp/cmd/afqhcp/run"
	"github.com/urfave/cli/v3"
)

var AfqHcp = cli.Command{
	Name:  "afqhcp",
	Usage: "run the tractography pipeline over HCP subjects and upload the results",
	Commands: []*cli.Command{
		run.RunCommand,
		example.ExampleCommand,
	},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Credentials may come from a .env file in the working directory
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = AfqHcp.Run(ctx, os.Args)
	if err != nil {
		stop()
		log.Fatal(err)
	}
}
