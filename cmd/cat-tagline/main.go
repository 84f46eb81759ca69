// @title Cat Tagline API
// @version 1.0
// @description Random cat images with generated descriptions and taglines
// @host localhost:8080
// @BasePath /api
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cat-tagline-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			_, _ = fmt.Fprintf(os.Stderr, "cat-tagline failed: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
