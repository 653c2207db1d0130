package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

type LocationService struct {
	*Resource[model.Location, model.LocationUpdate]
}

func NewLocationService(store graph.Store, c *cruds) *LocationService {
	r := newResource[model.Location, model.LocationUpdate](store, c.locations,
		link{key: "regions", rel: relRegionLocation},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Location, in model.LocationUpdate) error {
		if in.Site == nil || *in.Site == cur.Site {
			return nil
		}
		all, err := c.locations.List(ctx, tx)
		if err != nil {
			return err
		}
		return unique(c.locations.Kind, "site", cur.UID, in.Site, all, func(l model.Location) string { return l.Site })
	}
	return &LocationService{Resource: r}
}
