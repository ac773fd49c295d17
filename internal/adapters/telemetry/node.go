package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/press/internal/adapters/linear"
	"go.trai.ch/press/internal/core/ports"
)

// TracerNodeID is the unique identifier for the telemetry Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

// InstrumentationName names the tracer of the pipeline.
const InstrumentationName = "go.trai.ch/press"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{linear.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			renderer, err := graft.Dep[ports.Renderer](ctx)
			if err != nil {
				return nil, err
			}
			NewProvider(renderer)
			return NewOTelTracer(InstrumentationName, renderer), nil
		},
	})
}
