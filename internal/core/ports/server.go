package ports

import "context"

// DevServer serves the built site.
//
//go:generate go run go.uber.org/mock/mockgen -source=server.go -destination=mocks/mock_server.go -package=mocks
type DevServer interface {
	// Serve blocks until ctx is done or the server fails.
	Serve(ctx context.Context) error
	// URL returns the address browsers should open.
	URL() string
}
