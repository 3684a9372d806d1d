package main

import (
	"context"

	"github.com/niksmo/foodex/config"
	"github.com/niksmo/foodex/internal/app"
	"github.com/niksmo/foodex/pkg/sigctx"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	foodex := app.New(sigCtx, cfg)

	foodex.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(
		context.Background(), cfg.HTTPServer.ShutdownTimeout,
	)
	defer cancel()

	foodex.Close(ctx)
}
