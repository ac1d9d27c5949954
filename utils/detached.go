package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Go runs fn in its own goroutine without the caller waiting for it.
// Each task gets its own recover: a panic or error is logged under name and
// never reaches the caller or any other task.
// The returned channel is closed once fn has returned or panicked.
func Go(logger *slog.Logger, name string, fn func() error) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("detached task panicked",
				"task", name,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}()

		err := fn()
		if err != nil {
			logger.Warn("detached task failed", "task", name, "error", err)
		}
	}()
	return finished
}
