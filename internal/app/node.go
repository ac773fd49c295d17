package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/press/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/prefixer"  //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			shell.NodeID,
			fs.ResolverNodeID,
			fs.HasherNodeID,
			cas.NodeID,
			prefixer.NodeID,
			watcher.NodeID,
			telemetry.TracerNodeID,
			linear.NodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	var (
		d   Deps
		err error
	)

	if d.ConfigLoader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if d.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	if d.Commands, err = graft.Dep[ports.CommandRunner](ctx); err != nil {
		return nil, err
	}
	if d.Resolver, err = graft.Dep[ports.SourceResolver](ctx); err != nil {
		return nil, err
	}
	if d.Hasher, err = graft.Dep[ports.Hasher](ctx); err != nil {
		return nil, err
	}
	if d.Store, err = graft.Dep[ports.BuildInfoStore](ctx); err != nil {
		return nil, err
	}
	if d.Prefixer, err = graft.Dep[ports.Prefixer](ctx); err != nil {
		return nil, err
	}
	if d.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}
	if d.Tracer, err = graft.Dep[ports.Tracer](ctx); err != nil {
		return nil, err
	}
	if d.Renderer, err = graft.Dep[ports.Renderer](ctx); err != nil {
		return nil, err
	}
	if d.Metrics, err = graft.Dep[*metrics.Recorder](ctx); err != nil {
		return nil, err
	}

	return New(d), nil
}
