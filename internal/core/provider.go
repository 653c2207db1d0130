package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// ProviderService manages providers. Besides the collection operations it
// creates and synchronizes a provider together with everything it owns, see
// CreateExtended and UpdateExtended.
type ProviderService struct {
	*Resource[model.Provider, model.ProviderUpdate]
	c       *cruds
	observe SyncObserver
}

func NewProviderService(store graph.Store, c *cruds, observe SyncObserver) *ProviderService {
	r := newResource[model.Provider, model.ProviderUpdate](store, c.providers,
		link{key: "projects", rel: relProviderProjects, out: true},
		link{key: "regions", rel: relProviderRegions, out: true},
		link{key: "identity_providers", rel: relProviderIdPs, out: true, props: "relationship"},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Provider, in model.ProviderUpdate) error {
		if in.Name == nil || *in.Name == cur.Name {
			return nil
		}
		all, err := c.providers.List(ctx, tx)
		if err != nil {
			return err
		}
		return unique(c.providers.Kind, "name", cur.UID, in.Name, all, func(p model.Provider) string { return p.Name })
	}
	r.remove = removeProvider
	if observe == nil {
		observe = func(string, string) {}
	}
	return &ProviderService{Resource: r, c: c, observe: observe}
}
