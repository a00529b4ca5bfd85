package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/rawready/internal/cli"
	"github.com/JonMunkholm/rawready/internal/core"
)

func main() {
	// Unlike the server, explicit environment variables win over .env here
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		var ue *core.UserError
		switch {
		case errors.Is(err, cli.ErrChecksFailed):
			// The check table already says what failed
		case errors.As(err, &ue):
			fmt.Fprintln(os.Stderr, "error:", core.FormatUserError(ue.Technical))
			fmt.Fprintln(os.Stderr, "  detail:", ue.Technical)
		default:
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
