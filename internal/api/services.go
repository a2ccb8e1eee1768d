package api

import (
	"context"

	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

// Pinger reports whether a backing component is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the business logic used by the API server.
type Services struct {
	Auth   *service.AuthService
	Book   *service.BookService
	Review *service.ReviewService

	// Store and Search are only used by the health check. Search may be nil.
	Store  Pinger
	Search *search.BookIndex
}
