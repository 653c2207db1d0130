package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// QuotaService manages one kind of quota. A project holds at most one quota
// of each flavor (project wide, per user, usage) for a given service.
type QuotaService[T model.Entity, U any] struct {
	*Resource[T, U]
}

func newQuotaService[T model.Entity, U any](
	store graph.Store,
	crud *CRUD[T],
	typ string,
	base func(T) model.QuotaBase,
	flags func(U) (perUser, usage *bool),
) *QuotaService[T, U] {
	projectRel, serviceRel := quotaProjectRels[typ], quotaServiceRels[typ]
	r := newResource[T, U](store, crud,
		link{key: "project", rel: projectRel, out: true},
		link{key: "service", rel: serviceRel, out: true},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur T, in U) error {
		b := base(cur)
		perUser, usage := b.PerUser, b.Usage
		p, u := flags(in)
		if p != nil {
			perUser = *p
		}
		if u != nil {
			usage = *u
		}
		if perUser == b.PerUser && usage == b.Usage {
			return nil
		}
		peers, err := quotaPeers(ctx, tx, crud, projectRel, serviceRel, cur.GetUID())
		if err != nil {
			return err
		}
		for _, p := range peers {
			pb := base(p)
			if p.GetUID() != cur.GetUID() && pb.PerUser == perUser && pb.Usage == usage {
				project, err := projectRel.Out(tx, cur.GetUID()).Single(ctx)
				if err != nil {
					return storeError(err)
				}
				return newError(ErrConflict, "Multiple quotas on same project %s", project.UID)
			}
		}
		return nil
	}
	return &QuotaService[T, U]{Resource: r}
}

// quotaPeers returns the quotas sharing both project and service with uid.
func quotaPeers[T model.Entity](ctx context.Context, tx graph.Tx, crud *CRUD[T], projectRel, serviceRel graph.Relation, uid string) ([]T, error) {
	project, err := projectRel.Out(tx, uid).Single(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	service, err := serviceRel.Out(tx, uid).Single(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	byProject, err := projectRel.In(tx, project.UID).All(ctx)
	if err != nil {
		return nil, err
	}
	byService, err := serviceRel.In(tx, service.UID).All(ctx)
	if err != nil {
		return nil, err
	}
	onService := map[string]bool{}
	for _, n := range byService {
		onService[n.UID] = true
	}
	var shared []graph.Node
	for _, n := range byProject {
		if onService[n.UID] {
			shared = append(shared, n)
		}
	}
	return crud.decodeAll(shared)
}

func newBlockStorageQuotaService(store graph.Store, c *cruds) *QuotaService[model.BlockStorageQuota, model.BlockStorageQuotaUpdate] {
	return newQuotaService(store, c.bsQuotas, model.ServiceTypeBlockStorage,
		func(q model.BlockStorageQuota) model.QuotaBase { return q.QuotaBase },
		func(u model.BlockStorageQuotaUpdate) (*bool, *bool) { return u.PerUser, u.Usage })
}

func newComputeQuotaService(store graph.Store, c *cruds) *QuotaService[model.ComputeQuota, model.ComputeQuotaUpdate] {
	return newQuotaService(store, c.computeQuotas, model.ServiceTypeCompute,
		func(q model.ComputeQuota) model.QuotaBase { return q.QuotaBase },
		func(u model.ComputeQuotaUpdate) (*bool, *bool) { return u.PerUser, u.Usage })
}

func newNetworkQuotaService(store graph.Store, c *cruds) *QuotaService[model.NetworkQuota, model.NetworkQuotaUpdate] {
	return newQuotaService(store, c.networkQuotas, model.ServiceTypeNetwork,
		func(q model.NetworkQuota) model.QuotaBase { return q.QuotaBase },
		func(u model.NetworkQuotaUpdate) (*bool, *bool) { return u.PerUser, u.Usage })
}
