package ports

import "go.trai.ch/press/internal/core/domain"

// BuildInfoStore defines the interface for storing and retrieving build records.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the build record for a given task name.
	// Returns nil, nil if not found.
	Get(taskName string) (*domain.BuildInfo, error)

	// Put stores the build record.
	Put(info domain.BuildInfo) error

	// List returns every stored record ordered by task name.
	List() ([]domain.BuildInfo, error)
}
