package core

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// SyncObserver is told about every entity the synchronization creates,
// updates, removes or disconnects.
type SyncObserver func(entity, action string)

// CreateExtended creates a provider together with its projects, identity
// providers, user groups, SLAs, regions and everything the regions offer.
// Identity providers and locations already registered are reused.
func (s *ProviderService) CreateExtended(ctx context.Context, in model.ProviderCreateExtended) (any, error) {
	if err := in.Check(); err != nil {
		return nil, newError(ErrInvalid, "%s", err.Error())
	}
	var out any
	err := s.store.WriteTx(ctx, func(tx graph.Tx) error {
		_, exists, err := s.c.providers.GetBy(ctx, tx, func(p model.Provider) bool { return p.Name == in.Name })
		if err != nil {
			return err
		}
		if exists {
			return alreadyRegistered(s.c.providers.Kind, "name", in.Name)
		}
		sy := &syncer{ctx: ctx, tx: tx, c: s.c, observe: s.observe}
		provider, err := create(sy, s.c.providers, in.Provider)
		if err != nil {
			return err
		}
		if err := sy.provider(provider, in); err != nil {
			return err
		}
		out, err = render(ctx, tx, provider, ShapeExtended, s.links)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

// UpdateExtended converges the stored provider to the payload: missing
// entities are created, present ones force-updated and the ones no longer
// listed removed or disconnected. The boolean is false when nothing changed.
func (s *ProviderService) UpdateExtended(ctx context.Context, uid string, in model.ProviderCreateExtended) (any, bool, error) {
	if err := in.Check(); err != nil {
		return nil, false, newError(ErrInvalid, "%s", err.Error())
	}
	var (
		out     any
		changed bool
	)
	err := s.store.WriteTx(ctx, func(tx graph.Tx) error {
		cur, err := s.c.providers.Get(ctx, tx, uid)
		if err != nil {
			return err
		}
		if in.Name != cur.Name {
			all, err := s.c.providers.List(ctx, tx)
			if err != nil {
				return err
			}
			if err := unique(s.c.providers.Kind, "name", uid, &in.Name, all, func(p model.Provider) string { return p.Name }); err != nil {
				return err
			}
		}
		sy := &syncer{ctx: ctx, tx: tx, c: s.c, observe: s.observe}
		provider, err := forceUpdate(sy, s.c.providers, cur, in.Provider)
		if err != nil {
			return err
		}
		if err := sy.provider(provider, in); err != nil {
			return err
		}
		changed = sy.changed
		if changed {
			out, err = render(ctx, tx, provider, ShapeExtended, s.links)
		}
		return err
	})
	if err != nil {
		return nil, false, storeError(err)
	}
	return out, changed, nil
}

// syncOps tells reconcile how to match, create, update and drop children.
type syncOps[T, I any] struct {
	key      func(T) string
	inKey    func(I) string
	create   func(I) (T, error)
	update   func(T, I) (T, error)
	leftover func(T) error
}

// reconcile matches existing children to incoming items by natural key.
// Unmatched items are created, matched ones updated and unmatched existing
// children handed to leftover. The converged children follow the order of
// incoming.
func reconcile[T, I any](existing []T, incoming []I, ops syncOps[T, I]) ([]T, error) {
	byKey := make(map[string]T, len(existing))
	order := make([]string, 0, len(existing))
	for _, e := range existing {
		k := ops.key(e)
		byKey[k] = e
		order = append(order, k)
	}
	out := make([]T, 0, len(incoming))
	for _, in := range incoming {
		var (
			v   T
			err error
		)
		k := ops.inKey(in)
		if cur, ok := byKey[k]; ok {
			delete(byKey, k)
			v, err = ops.update(cur, in)
		} else {
			v, err = ops.create(in)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	for _, k := range order {
		if e, ok := byKey[k]; ok {
			if err := ops.leftover(e); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

type syncer struct {
	ctx     context.Context
	tx      graph.Tx
	c       *cruds
	observe SyncObserver
	changed bool
}

func (s *syncer) note(entity, action string) {
	s.changed = true
	s.observe(entity, action)
}

func create[T model.Entity](s *syncer, crud *CRUD[T], item T) (T, error) {
	v, err := crud.Create(s.ctx, s.tx, item)
	if err != nil {
		return v, err
	}
	s.note(crud.Kind, "created")
	return v, nil
}

func forceUpdate[T model.Entity](s *syncer, crud *CRUD[T], cur T, in any) (T, error) {
	v, changed, err := crud.Update(s.ctx, s.tx, cur, in, true)
	if err != nil {
		return v, err
	}
	if changed {
		s.note(crud.Kind, "updated")
	}
	return v, nil
}

func children[T model.Entity](s *syncer, crud *CRUD[T], t graph.Traversal) ([]T, error) {
	nodes, err := t.All(s.ctx)
	if err != nil {
		return nil, err
	}
	return crud.decodeAll(nodes)
}

func (s *syncer) connect(t graph.Traversal, peer string, props any) error {
	ok, err := t.Connect(s.ctx, peer, props)
	if err != nil {
		return connectErr(err)
	}
	if ok {
		s.changed = true
	}
	return nil
}

func (s *syncer) disconnect(kind string, t graph.Traversal, peer string) error {
	ok, err := t.Disconnect(s.ctx, peer)
	if err != nil {
		return connectErr(err)
	}
	if ok {
		s.note(kind, "disconnected")
	}
	return nil
}

func (s *syncer) remove(kind string, fn func(context.Context, graph.Tx, string) error, uid string) error {
	if err := fn(s.ctx, s.tx, uid); err != nil {
		return err
	}
	s.note(kind, "removed")
	return nil
}

// projectIndex maps the provider's project uuids to stored projects.
type projectIndex map[string]model.Project

func (idx projectIndex) get(uuid string) (model.Project, error) {
	p, ok := idx[uuid]
	if !ok {
		return p, newError(ErrInvalid, "Project %s not in this provider", uuid)
	}
	return p, nil
}

func (idx projectIndex) has(uid string) bool {
	for _, p := range idx {
		if p.UID == uid {
			return true
		}
	}
	return false
}

func (s *syncer) provider(p model.Provider, in model.ProviderCreateExtended) error {
	existing, err := children(s, s.c.projects, relProviderProjects.Out(s.tx, p.UID))
	if err != nil {
		return err
	}
	projects, err := reconcile(existing, in.Projects, syncOps[model.Project, model.Project]{
		key:   func(v model.Project) string { return v.UUID },
		inKey: func(v model.Project) string { return v.UUID },
		create: func(v model.Project) (model.Project, error) {
			created, err := create(s, s.c.projects, v)
			if err != nil {
				return created, err
			}
			return created, s.connect(relProviderProjects.Out(s.tx, p.UID), created.UID, nil)
		},
		update: func(cur, v model.Project) (model.Project, error) {
			return forceUpdate(s, s.c.projects, cur, v)
		},
		leftover: func(v model.Project) error {
			return s.remove(s.c.projects.Kind, removeProject, v.UID)
		},
	})
	if err != nil {
		return err
	}
	idx := projectIndex{}
	for _, pr := range projects {
		idx[pr.UUID] = pr
	}

	if err := s.identityProviders(p, in.IdentityProviders, idx); err != nil {
		return err
	}

	regions, err := children(s, s.c.regions, relProviderRegions.Out(s.tx, p.UID))
	if err != nil {
		return err
	}
	_, err = reconcile(regions, in.Regions, syncOps[model.Region, model.RegionCreateExtended]{
		key:   func(v model.Region) string { return v.Name },
		inKey: func(v model.RegionCreateExtended) string { return v.Name },
		create: func(v model.RegionCreateExtended) (model.Region, error) {
			created, err := create(s, s.c.regions, v.Region)
			if err != nil {
				return created, err
			}
			if err := s.connect(relProviderRegions.Out(s.tx, p.UID), created.UID, nil); err != nil {
				return created, err
			}
			return created, s.region(created, v, idx)
		},
		update: func(cur model.Region, v model.RegionCreateExtended) (model.Region, error) {
			updated, err := forceUpdate(s, s.c.regions, cur, v.Region)
			if err != nil {
				return updated, err
			}
			return updated, s.region(updated, v, idx)
		},
		leftover: func(v model.Region) error {
			return s.remove(s.c.regions.Kind, removeRegionTree, v.UID)
		},
	})
	return err
}

func (s *syncer) identityProviders(p model.Provider, in []model.IdentityProviderCreateExtended, idx projectIndex) error {
	existing, err := children(s, s.c.idps, relProviderIdPs.Out(s.tx, p.UID))
	if err != nil {
		return err
	}
	auth := relProviderIdPs.Out(s.tx, p.UID)
	_, err = reconcile(existing, in, syncOps[model.IdentityProvider, model.IdentityProviderCreateExtended]{
		key:   func(v model.IdentityProvider) string { return v.Endpoint },
		inKey: func(v model.IdentityProviderCreateExtended) string { return v.Endpoint },
		create: func(v model.IdentityProviderCreateExtended) (model.IdentityProvider, error) {
			idp, found, err := s.c.idps.GetBy(s.ctx, s.tx, func(i model.IdentityProvider) bool { return i.Endpoint == v.Endpoint })
			if err != nil {
				return idp, err
			}
			if found {
				idp, err = forceUpdate(s, s.c.idps, idp, v.IdentityProvider)
			} else {
				idp, err = create(s, s.c.idps, v.IdentityProvider)
			}
			if err != nil {
				return idp, err
			}
			if err := s.connect(auth, idp.UID, v.Relationship); err != nil {
				return idp, err
			}
			return idp, s.userGroups(idp, v.UserGroups, idx)
		},
		update: func(cur model.IdentityProvider, v model.IdentityProviderCreateExtended) (model.IdentityProvider, error) {
			idp, err := forceUpdate(s, s.c.idps, cur, v.IdentityProvider)
			if err != nil {
				return idp, err
			}
			if err := s.connect(auth, idp.UID, v.Relationship); err != nil {
				return idp, err
			}
			return idp, s.userGroups(idp, v.UserGroups, idx)
		},
		leftover: func(v model.IdentityProvider) error {
			n, err := countIn(s.ctx, s.tx, relProviderIdPs, v.UID)
			if err != nil {
				return err
			}
			if n <= 1 {
				return s.remove(s.c.idps.Kind, removeIdentityProvider, v.UID)
			}
			if err := s.detachUserGroups(v, idx); err != nil {
				return err
			}
			return s.disconnect(s.c.idps.Kind, auth, v.UID)
		},
	})
	return err
}

// userGroups reconciles the user groups of an identity provider that hold an
// SLA on the provider's projects. Groups serving other providers only are
// left alone.
func (s *syncer) userGroups(idp model.IdentityProvider, in []model.UserGroupCreateExtended, idx projectIndex) error {
	all, err := children(s, s.c.userGroups, relIdPUserGroups.Out(s.tx, idp.UID))
	if err != nil {
		return err
	}
	byName := map[string]bool{}
	for _, v := range in {
		byName[v.Name] = true
	}
	var existing []model.UserGroup
	for _, g := range all {
		mine, err := s.groupSLAs(g, idx)
		if err != nil {
			return err
		}
		if len(mine) > 0 || byName[g.Name] {
			existing = append(existing, g)
		}
	}
	_, err = reconcile(existing, in, syncOps[model.UserGroup, model.UserGroupCreateExtended]{
		key:   func(v model.UserGroup) string { return v.Name },
		inKey: func(v model.UserGroupCreateExtended) string { return v.Name },
		create: func(v model.UserGroupCreateExtended) (model.UserGroup, error) {
			g, err := create(s, s.c.userGroups, v.UserGroup)
			if err != nil {
				return g, err
			}
			if err := s.connect(relIdPUserGroups.Out(s.tx, idp.UID), g.UID, nil); err != nil {
				return g, err
			}
			return g, s.sla(g, v.SLA, idx)
		},
		update: func(cur model.UserGroup, v model.UserGroupCreateExtended) (model.UserGroup, error) {
			g, err := forceUpdate(s, s.c.userGroups, cur, v.UserGroup)
			if err != nil {
				return g, err
			}
			return g, s.sla(g, v.SLA, idx)
		},
		leftover: func(g model.UserGroup) error {
			return s.dropGroup(g, idx)
		},
	})
	return err
}

// detachUserGroups drops the provider's SLAs from the groups of an identity
// provider the provider no longer uses.
func (s *syncer) detachUserGroups(idp model.IdentityProvider, idx projectIndex) error {
	groups, err := children(s, s.c.userGroups, relIdPUserGroups.Out(s.tx, idp.UID))
	if err != nil {
		return err
	}
	for _, g := range groups {
		mine, err := s.groupSLAs(g, idx)
		if err != nil {
			return err
		}
		if len(mine) > 0 {
			if err := s.dropGroup(g, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

// dropGroup removes the group's SLAs on the provider's projects and the group
// itself once it has no SLA left.
func (s *syncer) dropGroup(g model.UserGroup, idx projectIndex) error {
	mine, err := s.groupSLAs(g, idx)
	if err != nil {
		return err
	}
	for _, sla := range mine {
		if err := s.dropSLA(sla, idx); err != nil {
			return err
		}
	}
	left, err := relUserGroupSLAs.Out(s.tx, g.UID).Count(s.ctx)
	if err != nil {
		return err
	}
	if left == 0 {
		return s.remove(s.c.userGroups.Kind, removeUserGroup, g.UID)
	}
	return nil
}

// groupSLAs returns the SLAs of g referring to at least one of the
// provider's projects.
func (s *syncer) groupSLAs(g model.UserGroup, idx projectIndex) ([]model.SLA, error) {
	slas, err := children(s, s.c.slas, relUserGroupSLAs.Out(s.tx, g.UID))
	if err != nil {
		return nil, err
	}
	var mine []model.SLA
	for _, sla := range slas {
		projects, err := relSLAProjects.Out(s.tx, sla.UID).All(s.ctx)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(projects, func(n graph.Node) bool { return idx.has(n.UID) }) {
			mine = append(mine, sla)
		}
	}
	return mine, nil
}

// dropSLA removes an SLA that refers only to the provider's projects and
// otherwise unlinks those projects from it.
func (s *syncer) dropSLA(sla model.SLA, idx projectIndex) error {
	projects, err := relSLAProjects.Out(s.tx, sla.UID).All(s.ctx)
	if err != nil {
		return err
	}
	var others int
	for _, n := range projects {
		if !idx.has(n.UID) {
			others++
		}
	}
	if others == 0 {
		return s.remove(s.c.slas.Kind, deleteNode, sla.UID)
	}
	for _, n := range projects {
		if idx.has(n.UID) {
			if err := s.disconnect(s.c.slas.Kind, relSLAProjects.Out(s.tx, sla.UID), n.UID); err != nil {
				return err
			}
		}
	}
	return nil
}

// sla makes in the group's only SLA on the provider's projects, linked to
// the requested project.
func (s *syncer) sla(g model.UserGroup, in model.SLACreateExtended, idx projectIndex) error {
	project, err := idx.get(in.Project)
	if err != nil {
		return err
	}
	mine, err := s.groupSLAs(g, idx)
	if err != nil {
		return err
	}
	var current *model.SLA
	for i := range mine {
		if mine[i].DocUUID == in.DocUUID {
			current = &mine[i]
			continue
		}
		if err := s.dropSLA(mine[i], idx); err != nil {
			return err
		}
	}

	var sla model.SLA
	switch {
	case current != nil:
		if sla, err = forceUpdate(s, s.c.slas, *current, in.SLA); err != nil {
			return err
		}
	default:
		existing, found, err := s.c.slas.GetBy(s.ctx, s.tx, func(v model.SLA) bool { return v.DocUUID == in.DocUUID })
		if err != nil {
			return err
		}
		if found {
			owner, err := relUserGroupSLAs.In(s.tx, existing.UID).Single(s.ctx)
			if err != nil {
				return storeError(err)
			}
			if owner.UID != g.UID {
				return newError(ErrConflict, "SLA %s already used by another user group", in.DocUUID)
			}
			if sla, err = forceUpdate(s, s.c.slas, existing, in.SLA); err != nil {
				return err
			}
		} else {
			if sla, err = create(s, s.c.slas, in.SLA); err != nil {
				return err
			}
			if err := s.connect(relUserGroupSLAs.Out(s.tx, g.UID), sla.UID, nil); err != nil {
				return err
			}
		}
	}

	// A project holds one SLA: evict whichever other SLA points at it.
	prev, err := relSLAProjects.In(s.tx, project.UID).Single(s.ctx)
	switch {
	case errors.Is(err, graph.ErrNotFound):
	case err != nil:
		return storeError(err)
	case prev.UID != sla.UID:
		n, err := relSLAProjects.Out(s.tx, prev.UID).Count(s.ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			if err := s.remove(s.c.slas.Kind, deleteNode, prev.UID); err != nil {
				return err
			}
		} else if err := s.disconnect(s.c.slas.Kind, relSLAProjects.Out(s.tx, prev.UID), project.UID); err != nil {
			return err
		}
	}
	if err := s.connect(relSLAProjects.Out(s.tx, sla.UID), project.UID, nil); err != nil {
		return err
	}

	// Other projects of this provider no longer belong to the SLA.
	linked, err := relSLAProjects.Out(s.tx, sla.UID).All(s.ctx)
	if err != nil {
		return err
	}
	for _, n := range linked {
		if n.UID != project.UID && idx.has(n.UID) {
			if err := s.disconnect(s.c.slas.Kind, relSLAProjects.Out(s.tx, sla.UID), n.UID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *syncer) region(r model.Region, in model.RegionCreateExtended, idx projectIndex) error {
	if err := s.location(r, in.Location); err != nil {
		return err
	}

	block := make([]serviceIn, 0, len(in.BlockStorageServices))
	for _, v := range in.BlockStorageServices {
		block = append(block, serviceIn{svc: v.Service, children: func(svc model.Service) error {
			return syncQuotas(s, s.c.bsQuotas, model.ServiceTypeBlockStorage, svc, v.Quotas, idx,
				func(q model.BlockStorageQuotaCreateExtended) (string, model.BlockStorageQuota) { return q.Project, q.BlockStorageQuota })
		}})
	}
	compute := make([]serviceIn, 0, len(in.ComputeServices))
	for _, v := range in.ComputeServices {
		compute = append(compute, serviceIn{svc: v.Service, children: func(svc model.Service) error {
			return s.computeChildren(svc, v, idx)
		}})
	}
	identity := make([]serviceIn, 0, len(in.IdentityServices))
	for _, v := range in.IdentityServices {
		identity = append(identity, serviceIn{svc: v})
	}
	network := make([]serviceIn, 0, len(in.NetworkServices))
	for _, v := range in.NetworkServices {
		network = append(network, serviceIn{svc: v.Service, children: func(svc model.Service) error {
			return s.networkChildren(svc, v, idx)
		}})
	}

	for _, group := range []struct {
		typ   string
		items []serviceIn
	}{
		{model.ServiceTypeBlockStorage, block},
		{model.ServiceTypeCompute, compute},
		{model.ServiceTypeIdentity, identity},
		{model.ServiceTypeNetwork, network},
	} {
		if err := s.services(r, group.typ, group.items); err != nil {
			return err
		}
	}
	return nil
}

// location attaches the region to the location with the requested site,
// registering it when new. Orphaned locations are kept.
func (s *syncer) location(r model.Region, in *model.Location) error {
	t := relRegionLocation.Out(s.tx, r.UID)
	if in == nil {
		cur, err := t.Single(s.ctx)
		if errors.Is(err, graph.ErrNotFound) {
			return nil
		}
		if err != nil {
			return storeError(err)
		}
		return s.disconnect(s.c.locations.Kind, t, cur.UID)
	}
	loc, found, err := s.c.locations.GetBy(s.ctx, s.tx, func(l model.Location) bool { return l.Site == in.Site })
	if err != nil {
		return err
	}
	if found {
		loc, err = forceUpdate(s, s.c.locations, loc, *in)
	} else {
		loc, err = create(s, s.c.locations, *in)
	}
	if err != nil {
		return err
	}
	ok, err := setLocation(s.ctx, s.tx, r.UID, loc.UID)
	if err != nil {
		return err
	}
	if ok {
		s.changed = true
	}
	return nil
}

type serviceIn struct {
	svc      model.Service
	children func(model.Service) error
}

func (s *syncer) services(r model.Region, typ string, in []serviceIn) error {
	crud := s.c.services[typ]
	rel := regionServiceRels[typ]
	existing, err := children(s, crud, rel.Out(s.tx, r.UID))
	if err != nil {
		return err
	}
	sync := func(svc model.Service, v serviceIn) (model.Service, error) {
		if v.children == nil {
			return svc, nil
		}
		return svc, v.children(svc)
	}
	_, err = reconcile(existing, in, syncOps[model.Service, serviceIn]{
		key:   func(v model.Service) string { return v.Endpoint },
		inKey: func(v serviceIn) string { return v.svc.Endpoint },
		create: func(v serviceIn) (model.Service, error) {
			item := v.svc
			item.Type = typ
			svc, err := create(s, crud, item)
			if err != nil {
				return svc, err
			}
			if err := s.connect(rel.Out(s.tx, r.UID), svc.UID, nil); err != nil {
				return svc, err
			}
			return sync(svc, v)
		},
		update: func(cur model.Service, v serviceIn) (model.Service, error) {
			item := v.svc
			item.Type = typ
			svc, err := forceUpdate(s, crud, cur, item)
			if err != nil {
				return svc, err
			}
			return sync(svc, v)
		},
		leftover: func(v model.Service) error {
			return s.remove(crud.Kind, removeServiceByUID, v.UID)
		},
	})
	return err
}

func (s *syncer) computeChildren(svc model.Service, in model.ComputeServiceCreateExtended, idx projectIndex) error {
	err := syncOffered(s, s.c.flavors, relServiceFlavors, relProjectFlavors, svc, in.Flavors, idx,
		func(v model.Flavor) string { return v.UUID },
		func(v model.FlavorCreateExtended) (model.Flavor, []string) { return v.Flavor, v.Projects })
	if err != nil {
		return err
	}
	err = syncOffered(s, s.c.images, relServiceImages, relProjectImages, svc, in.Images, idx,
		func(v model.Image) string { return v.UUID },
		func(v model.ImageCreateExtended) (model.Image, []string) { return v.Image, v.Projects })
	if err != nil {
		return err
	}
	return syncQuotas(s, s.c.computeQuotas, model.ServiceTypeCompute, svc, in.Quotas, idx,
		func(q model.ComputeQuotaCreateExtended) (string, model.ComputeQuota) { return q.Project, q.ComputeQuota })
}

func (s *syncer) networkChildren(svc model.Service, in model.NetworkServiceCreateExtended, idx projectIndex) error {
	err := syncOffered(s, s.c.networks, relServiceNetworks, relProjectNetworks, svc, in.Networks, idx,
		func(v model.Network) string { return v.UUID },
		func(v model.NetworkCreateExtended) (model.Network, []string) {
			if v.Project == nil {
				return v.Network, nil
			}
			return v.Network, []string{*v.Project}
		})
	if err != nil {
		return err
	}
	return syncQuotas(s, s.c.networkQuotas, model.ServiceTypeNetwork, svc, in.Quotas, idx,
		func(q model.NetworkQuotaCreateExtended) (string, model.NetworkQuota) { return q.Project, q.NetworkQuota })
}

// syncOffered reconciles the flavors, images or networks a service offers and
// the provider projects allowed to use each of them. Items still offered by
// another service are disconnected rather than removed.
func syncOffered[T model.Entity, I any](
	s *syncer,
	crud *CRUD[T],
	offer, access graph.Relation,
	svc model.Service,
	in []I,
	idx projectIndex,
	key func(T) string,
	split func(I) (T, []string),
) error {
	existing, err := children(s, crud, offer.Out(s.tx, svc.UID))
	if err != nil {
		return err
	}
	_, err = reconcile(existing, in, syncOps[T, I]{
		key: key,
		inKey: func(v I) string {
			item, _ := split(v)
			return key(item)
		},
		create: func(v I) (T, error) {
			item, projects := split(v)
			created, err := create(s, crud, item)
			if err != nil {
				return created, err
			}
			if err := s.connect(offer.Out(s.tx, svc.UID), created.GetUID(), nil); err != nil {
				return created, err
			}
			return created, s.projectAccess(crud.Kind, access, created.GetUID(), projects, idx)
		},
		update: func(cur T, v I) (T, error) {
			item, projects := split(v)
			updated, err := forceUpdate(s, crud, cur, item)
			if err != nil {
				return updated, err
			}
			return updated, s.projectAccess(crud.Kind, access, updated.GetUID(), projects, idx)
		},
		leftover: func(v T) error {
			n, err := countIn(s.ctx, s.tx, offer, v.GetUID())
			if err != nil {
				return err
			}
			if n <= 1 {
				return s.remove(crud.Kind, deleteNode, v.GetUID())
			}
			return s.disconnect(crud.Kind, offer.Out(s.tx, svc.UID), v.GetUID())
		},
	})
	return err
}

// projectAccess links item to exactly the requested provider projects.
// Links to projects of other providers are kept.
func (s *syncer) projectAccess(kind string, access graph.Relation, uid string, uuids []string, idx projectIndex) error {
	want := map[string]bool{}
	for _, u := range uuids {
		p, err := idx.get(u)
		if err != nil {
			return err
		}
		want[p.UID] = true
	}
	linked, err := access.In(s.tx, uid).All(s.ctx)
	if err != nil {
		return err
	}
	for _, n := range linked {
		if idx.has(n.UID) && !want[n.UID] {
			if err := s.disconnect(kind, access.Out(s.tx, n.UID), uid); err != nil {
				return err
			}
		}
	}
	for _, u := range uuids {
		if err := s.connect(access.Out(s.tx, idx[u].UID), uid, nil); err != nil {
			return err
		}
	}
	return nil
}

// syncQuotas replaces, per project, the quotas a service applies when the
// incoming set differs from the stored one. Quotas have no natural key, so
// any difference drops and recreates the whole set. An identical set is not
// recreated: its quotas keep their uids and a repeated payload reports no
// change.
func syncQuotas[T model.Entity, Q any](
	s *syncer,
	crud *CRUD[T],
	typ string,
	svc model.Service,
	in []Q,
	idx projectIndex,
	split func(Q) (string, T),
) error {
	projectRel, serviceRel := quotaProjectRels[typ], quotaServiceRels[typ]
	stored, err := children(s, crud, serviceRel.In(s.tx, svc.UID))
	if err != nil {
		return err
	}

	current := map[string][]T{}
	var order []string
	for _, q := range stored {
		p, err := projectRel.Out(s.tx, q.GetUID()).Single(s.ctx)
		if err != nil {
			return storeError(err)
		}
		if _, ok := current[p.UID]; !ok {
			order = append(order, p.UID)
		}
		current[p.UID] = append(current[p.UID], q)
	}
	wanted := map[string][]T{}
	for _, v := range in {
		uuid, q := split(v)
		p, err := idx.get(uuid)
		if err != nil {
			return err
		}
		if _, ok := wanted[p.UID]; !ok {
			if _, seen := current[p.UID]; !seen {
				order = append(order, p.UID)
			}
		}
		wanted[p.UID] = append(wanted[p.UID], q)
	}

	for _, project := range order {
		same, err := sameQuotas(current[project], wanted[project])
		if err != nil {
			return err
		}
		if same {
			continue
		}
		for _, q := range current[project] {
			if err := s.remove(crud.Kind, deleteNode, q.GetUID()); err != nil {
				return err
			}
		}
		for _, q := range wanted[project] {
			created, err := create(s, crud, q)
			if err != nil {
				return err
			}
			if err := s.connect(projectRel.Out(s.tx, created.GetUID()), project, nil); err != nil {
				return err
			}
			if err := s.connect(serviceRel.Out(s.tx, created.GetUID()), svc.UID, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// sameQuotas compares two quota sets ignoring uids and order.
func sameQuotas[T model.Entity](a, b []T) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	ka, err := quotaKeys(a)
	if err != nil {
		return false, err
	}
	kb, err := quotaKeys(b)
	if err != nil {
		return false, err
	}
	return slices.Equal(ka, kb), nil
}

func quotaKeys[T model.Entity](quotas []T) ([]string, error) {
	keys := make([]string, 0, len(quotas))
	for _, q := range quotas {
		m, err := toMap(q)
		if err != nil {
			return nil, err
		}
		delete(m, "uid")
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		keys = append(keys, string(b))
	}
	slices.Sort(keys)
	return keys, nil
}
