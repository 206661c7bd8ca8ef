package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/strudel/cli"
	"github.com/ardnew/strudel/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error(
			"run failed",
			slog.Any("error", err),
		) // slog resolves LogValue
		os.Exit(1)
	}
}
