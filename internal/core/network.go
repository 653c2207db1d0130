package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// NetworkService manages network entities. Network endpoints of a region are
// handled by a CatalogService.
type NetworkService struct {
	*Resource[model.Network, model.NetworkUpdate]
}

func NewNetworkService(store graph.Store, c *cruds) *NetworkService {
	r := newResource[model.Network, model.NetworkUpdate](store, c.networks,
		link{key: "service", rel: relServiceNetworks},
		link{key: "project", rel: relProjectNetworks},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Network, in model.NetworkUpdate) error {
		if in.IsShared != nil && *in.IsShared != cur.IsShared {
			return newError(ErrInvalidTransition, "Network visibility can't be changed")
		}
		return checkServiceScoped(ctx, tx, c.networks, relServiceNetworks, cur.UID,
			cur.Name, in.Name, cur.UUID, in.UUID,
			func(n model.Network) (string, string) { return n.Name, n.UUID })
	}
	return &NetworkService{Resource: r}
}
