package ports

import "time"

// Metrics records pipeline measurements.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveTask records one execution of a task.
	ObserveTask(name string, d time.Duration, err error)
	// ObserveReload records a reload signal sent to browsers.
	ObserveReload(kind ReloadKind)
	// ObserveChange records a source change event for a category.
	ObserveChange(category string)
}
