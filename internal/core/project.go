package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// ProjectService manages projects and their access to private flavors,
// images and networks.
type ProjectService struct {
	*Resource[model.Project, model.ProjectUpdate]
	c *cruds
}

func NewProjectService(store graph.Store, c *cruds) *ProjectService {
	r := newResource[model.Project, model.ProjectUpdate](store, c.projects,
		link{key: "provider", rel: relProviderProjects},
		link{key: "flavors", rel: relProjectFlavors, out: true},
		link{key: "images", rel: relProjectImages, out: true},
		link{key: "networks", rel: relProjectNetworks, out: true},
		link{key: "sla", rel: relSLAProjects},
		link{key: "block_storage_quotas", rel: relBlockStorageQuotaProject},
		link{key: "compute_quotas", rel: relComputeQuotaProject},
		link{key: "network_quotas", rel: relNetworkQuotaProject},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Project, in model.ProjectUpdate) error {
		nameChanged := in.Name != nil && *in.Name != cur.Name
		uuidChanged := in.UUID != nil && *in.UUID != cur.UUID
		if !nameChanged && !uuidChanged {
			return nil
		}
		peers, err := siblings(ctx, tx, c.projects, relProviderProjects, cur.UID)
		if err != nil {
			return err
		}
		if nameChanged {
			if err := unique(c.projects.Kind, "name", cur.UID, in.Name, peers, func(p model.Project) string { return p.Name }); err != nil {
				return err
			}
		}
		if uuidChanged {
			return unique(c.projects.Kind, "uuid", cur.UID, in.UUID, peers, func(p model.Project) string { return p.UUID })
		}
		return nil
	}
	r.remove = removeProject
	return &ProjectService{Resource: r, c: c}
}

func (s *ProjectService) ConnectFlavor(ctx context.Context, projectUID, flavorUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.flavors, relProjectFlavors, projectUID, flavorUID, flavorPrivate, true)
}

func (s *ProjectService) DisconnectFlavor(ctx context.Context, projectUID, flavorUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.flavors, relProjectFlavors, projectUID, flavorUID, flavorPrivate, false)
}

func (s *ProjectService) ConnectImage(ctx context.Context, projectUID, imageUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.images, relProjectImages, projectUID, imageUID, imagePrivate, true)
}

func (s *ProjectService) DisconnectImage(ctx context.Context, projectUID, imageUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.images, relProjectImages, projectUID, imageUID, imagePrivate, false)
}

func (s *ProjectService) ConnectNetwork(ctx context.Context, projectUID, networkUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.networks, relProjectNetworks, projectUID, networkUID, networkPrivate, true)
}

func (s *ProjectService) DisconnectNetwork(ctx context.Context, projectUID, networkUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.networks, relProjectNetworks, projectUID, networkUID, networkPrivate, false)
}

func flavorPrivate(f model.Flavor) error {
	if f.IsPublic {
		return newError(ErrInvalid, "Flavor %s is a public flavor", f.UID)
	}
	return nil
}

func imagePrivate(i model.Image) error {
	if i.IsPublic {
		return newError(ErrInvalid, "Image %s is a public image", i.UID)
	}
	return nil
}

func networkPrivate(n model.Network) error {
	if n.IsShared {
		return newError(ErrInvalid, "Network %s is a shared network", n.UID)
	}
	return nil
}

// linkPrivate connects or disconnects a project and a private resource after
// checking both exist and the resource is not public.
func linkPrivate[T model.Entity](
	ctx context.Context,
	store graph.Store,
	projects *CRUD[model.Project],
	items *CRUD[T],
	rel graph.Relation,
	projectUID, itemUID string,
	private func(T) error,
	connect bool,
) (bool, error) {
	var changed bool
	err := store.WriteTx(ctx, func(tx graph.Tx) error {
		if _, err := projects.Get(ctx, tx, projectUID); err != nil {
			return err
		}
		item, err := items.Get(ctx, tx, itemUID)
		if err != nil {
			return err
		}
		if err := private(item); err != nil {
			return err
		}
		t := rel.Out(tx, projectUID)
		if connect {
			changed, err = t.Connect(ctx, itemUID, nil)
		} else {
			changed, err = t.Disconnect(ctx, itemUID)
		}
		return connectErr(err)
	})
	return changed, storeError(err)
}
