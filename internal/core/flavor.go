package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

type FlavorService struct {
	*Resource[model.Flavor, model.FlavorUpdate]
	c *cruds
}

func NewFlavorService(store graph.Store, c *cruds) *FlavorService {
	r := newResource[model.Flavor, model.FlavorUpdate](store, c.flavors,
		link{key: "services", rel: relServiceFlavors},
		link{key: "projects", rel: relProjectFlavors},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Flavor, in model.FlavorUpdate) error {
		if in.IsPublic != nil && *in.IsPublic != cur.IsPublic {
			return newError(ErrInvalidTransition, "Flavor visibility can't be changed")
		}
		return checkServiceScoped(ctx, tx, c.flavors, relServiceFlavors, cur.UID,
			cur.Name, in.Name, cur.UUID, in.UUID,
			func(f model.Flavor) (string, string) { return f.Name, f.UUID })
	}
	return &FlavorService{Resource: r, c: c}
}

func (s *FlavorService) ConnectProject(ctx context.Context, flavorUID, projectUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.flavors, relProjectFlavors, projectUID, flavorUID, flavorPrivate, true)
}

func (s *FlavorService) DisconnectProject(ctx context.Context, flavorUID, projectUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.flavors, relProjectFlavors, projectUID, flavorUID, flavorPrivate, false)
}

// checkServiceScoped rejects a name or uuid already used by another item
// offered by the same service.
func checkServiceScoped[T model.Entity](
	ctx context.Context,
	tx graph.Tx,
	crud *CRUD[T],
	rel graph.Relation,
	uid, curName string, name *string,
	curUUID string, id *string,
	keys func(T) (string, string),
) error {
	nameChanged := name != nil && *name != curName
	uuidChanged := id != nil && *id != curUUID
	if !nameChanged && !uuidChanged {
		return nil
	}
	peers, err := siblings(ctx, tx, crud, rel, uid)
	if err != nil {
		return err
	}
	if nameChanged {
		get := func(v T) string {
			n, _ := keys(v)
			return n
		}
		if err := unique(crud.Kind, "name", uid, name, peers, get); err != nil {
			return err
		}
	}
	if uuidChanged {
		get := func(v T) string {
			_, u := keys(v)
			return u
		}
		return unique(crud.Kind, "uuid", uid, id, peers, get)
	}
	return nil
}
