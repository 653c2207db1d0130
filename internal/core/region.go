package core

import (
	"context"
	"errors"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

type RegionService struct {
	*Resource[model.Region, model.RegionUpdate]
	c *cruds
}

func NewRegionService(store graph.Store, c *cruds) *RegionService {
	r := newResource[model.Region, model.RegionUpdate](store, c.regions,
		link{key: "provider", rel: relProviderRegions},
		link{key: "location", rel: relRegionLocation, out: true},
		link{key: "block_storage_services", rel: relRegionBlockStorage, out: true},
		link{key: "compute_services", rel: relRegionCompute, out: true},
		link{key: "identity_services", rel: relRegionIdentity, out: true},
		link{key: "network_services", rel: relRegionNetwork, out: true},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Region, in model.RegionUpdate) error {
		if in.Name == nil || *in.Name == cur.Name {
			return nil
		}
		peers, err := siblings(ctx, tx, c.regions, relProviderRegions, cur.UID)
		if err != nil {
			return err
		}
		return unique(c.regions.Kind, "name", cur.UID, in.Name, peers, func(r model.Region) string { return r.Name })
	}
	r.remove = removeRegion
	return &RegionService{Resource: r, c: c}
}

// ConnectLocation places the region at the given location, replacing any
// previous one.
func (s *RegionService) ConnectLocation(ctx context.Context, regionUID, locationUID string) (bool, error) {
	var changed bool
	err := s.store.WriteTx(ctx, func(tx graph.Tx) error {
		if _, err := s.c.regions.Get(ctx, tx, regionUID); err != nil {
			return err
		}
		if _, err := s.c.locations.Get(ctx, tx, locationUID); err != nil {
			return err
		}
		ok, err := setLocation(ctx, tx, regionUID, locationUID)
		changed = ok
		return err
	})
	return changed, storeError(err)
}

// DisconnectLocation detaches the region from the given location.
func (s *RegionService) DisconnectLocation(ctx context.Context, regionUID, locationUID string) (bool, error) {
	var changed bool
	err := s.store.WriteTx(ctx, func(tx graph.Tx) error {
		if _, err := s.c.regions.Get(ctx, tx, regionUID); err != nil {
			return err
		}
		if _, err := s.c.locations.Get(ctx, tx, locationUID); err != nil {
			return err
		}
		ok, err := relRegionLocation.Out(tx, regionUID).Disconnect(ctx, locationUID)
		changed = ok
		return connectErr(err)
	})
	return changed, storeError(err)
}

func setLocation(ctx context.Context, tx graph.Tx, regionUID, locationUID string) (bool, error) {
	t := relRegionLocation.Out(tx, regionUID)
	cur, err := t.Single(ctx)
	switch {
	case errors.Is(err, graph.ErrNotFound):
	case err != nil:
		return false, err
	case cur.UID == locationUID:
		return false, nil
	default:
		if _, err := t.Disconnect(ctx, cur.UID); err != nil {
			return false, err
		}
	}
	ok, err := t.Connect(ctx, locationUID, nil)
	return ok, connectErr(err)
}
