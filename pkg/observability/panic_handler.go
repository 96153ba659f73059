package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic logs a recovered panic with its stack and swallows it. Use it
// as the first deferred call of background goroutines (pool sampler,
// template watcher) so one bad tick cannot take the process down:
//
//	go func() {
//		defer observability.RecoverPanic(logger, "template watcher")
//		watcher.Run(ctx)
//	}()
//
// Request handlers do not use this; middleware.Recovery turns their panics
// into 500 responses.
func RecoverPanic(logger *Logger, goroutine string) {
	r := recover()
	if r == nil {
		return
	}
	logger.WithFields(map[string]interface{}{
		"panic":     fmt.Sprint(r),
		"goroutine": goroutine,
		"stack":     string(debug.Stack()),
	}).Error("recovered panic in background goroutine")
}
