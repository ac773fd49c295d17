// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/press/internal/adapters/cas"
	_ "go.trai.ch/press/internal/adapters/config"
	_ "go.trai.ch/press/internal/adapters/fs"
	_ "go.trai.ch/press/internal/adapters/linear"
	_ "go.trai.ch/press/internal/adapters/logger"
	_ "go.trai.ch/press/internal/adapters/metrics"
	_ "go.trai.ch/press/internal/adapters/prefixer"
	_ "go.trai.ch/press/internal/adapters/shell"
	_ "go.trai.ch/press/internal/adapters/telemetry"
	_ "go.trai.ch/press/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/press/internal/app"
)
