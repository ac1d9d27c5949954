package utils

import "log/slog"

// ConsumeChannel drains c until it is closed so its producer can finish
func ConsumeChannel[T any](c chan T) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		slog.Default().Error("failed to consume channel", "panic", err)
	}()
	for range c {
	}
}
