package prefixer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/press/internal/core/ports"
)

// NodeID is the unique identifier for the prefixer Graft node.
const NodeID graft.ID = "adapter.prefixer"

func init() {
	graft.Register(graft.Node[ports.Prefixer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Prefixer, error) {
			return New(), nil
		},
	})
}
