package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vidshare/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("vidshare exited", "error", err, "args", os.Args[1:])
		os.Exit(1)
	}
}
