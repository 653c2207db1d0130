package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// CatalogService manages the services of one type exposed by regions.
type CatalogService struct {
	*Resource[model.Service, model.ServiceUpdate]
	Type string
}

func NewCatalogService(store graph.Store, c *cruds, typ string) *CatalogService {
	crud := c.services[typ]
	links := []link{{key: "region", rel: regionServiceRels[typ]}}
	switch typ {
	case model.ServiceTypeCompute:
		links = append(links,
			link{key: "flavors", rel: relServiceFlavors, out: true},
			link{key: "images", rel: relServiceImages, out: true},
		)
	case model.ServiceTypeNetwork:
		links = append(links, link{key: "networks", rel: relServiceNetworks, out: true})
	}
	if rel, ok := quotaServiceRels[typ]; ok {
		links = append(links, link{key: "quotas", rel: rel})
	}

	r := newResource[model.Service, model.ServiceUpdate](store, crud, links...)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Service, in model.ServiceUpdate) error {
		if in.Endpoint == nil || *in.Endpoint == cur.Endpoint {
			return nil
		}
		all, err := crud.List(ctx, tx)
		if err != nil {
			return err
		}
		return unique(crud.Kind, "endpoint", cur.UID, in.Endpoint, all, func(s model.Service) string { return s.Endpoint })
	}
	r.remove = removeServiceByUID
	return &CatalogService{Resource: r, Type: typ}
}
