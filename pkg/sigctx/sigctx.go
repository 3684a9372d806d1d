package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context done on the first
// SIGINT, SIGTERM or SIGQUIT.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
