package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// connectTimeout bounds connecting to a remote store at startup.
	connectTimeout = 10 * time.Second
)
