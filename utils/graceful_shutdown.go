package utils

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/loopai/constants/lipgloss"
)

// GracefulShutdown cancels the run context on SIGINT or SIGTERM and runs the
// cleanup hooks. It returns silently when the context ends first, so a normal
// completion never triggers the shutdown path. Once it returns the default
// signal disposition is restored and a further interrupt kills the process.
func GracefulShutdown(ctx context.Context, cancel context.CancelFunc, cleanup func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case <-signals:
		cancel()
		fmt.Println(lipgloss.Yellow.Render("\n🔄 Interrupt received, finishing up..."))
		if cleanup != nil {
			cleanup()
		}
	case <-ctx.Done():
	}
}
