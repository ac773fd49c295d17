// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/press/internal/core/domain"
)

// Executor runs the action bound to a task.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the action of the given task and returns the files it wrote.
	// Progress lines are written to out. Tasks without an action succeed
	// without output.
	Execute(ctx context.Context, task *domain.Task, out io.Writer) ([]string, error)
}
