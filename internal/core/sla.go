package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

type SLAService struct {
	*Resource[model.SLA, model.SLAUpdate]
}

func NewSLAService(store graph.Store, c *cruds) *SLAService {
	r := newResource[model.SLA, model.SLAUpdate](store, c.slas,
		link{key: "user_group", rel: relUserGroupSLAs},
		link{key: "projects", rel: relSLAProjects, out: true},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.SLA, in model.SLAUpdate) error {
		if in.DocUUID == nil || *in.DocUUID == cur.DocUUID {
			return nil
		}
		all, err := c.slas.List(ctx, tx)
		if err != nil {
			return err
		}
		return unique(c.slas.Kind, "doc_uuid", cur.UID, in.DocUUID, all, func(s model.SLA) string { return s.DocUUID })
	}
	return &SLAService{Resource: r}
}

type UserGroupService struct {
	*Resource[model.UserGroup, model.UserGroupUpdate]
}

func NewUserGroupService(store graph.Store, c *cruds) *UserGroupService {
	r := newResource[model.UserGroup, model.UserGroupUpdate](store, c.userGroups,
		link{key: "identity_provider", rel: relIdPUserGroups},
		link{key: "slas", rel: relUserGroupSLAs, out: true},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.UserGroup, in model.UserGroupUpdate) error {
		if in.Name == nil || *in.Name == cur.Name {
			return nil
		}
		peers, err := siblings(ctx, tx, c.userGroups, relIdPUserGroups, cur.UID)
		if err != nil {
			return err
		}
		return unique(c.userGroups.Kind, "name", cur.UID, in.Name, peers, func(g model.UserGroup) string { return g.Name })
	}
	r.remove = removeUserGroup
	return &UserGroupService{Resource: r}
}

type IdentityProviderService struct {
	*Resource[model.IdentityProvider, model.IdentityProviderUpdate]
}

func NewIdentityProviderService(store graph.Store, c *cruds) *IdentityProviderService {
	r := newResource[model.IdentityProvider, model.IdentityProviderUpdate](store, c.idps,
		link{key: "providers", rel: relProviderIdPs, props: "relationship"},
		link{key: "user_groups", rel: relIdPUserGroups, out: true},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.IdentityProvider, in model.IdentityProviderUpdate) error {
		if in.Endpoint == nil || *in.Endpoint == cur.Endpoint {
			return nil
		}
		all, err := c.idps.List(ctx, tx)
		if err != nil {
			return err
		}
		return unique(c.idps.Kind, "endpoint", cur.UID, in.Endpoint, all, func(i model.IdentityProvider) string { return i.Endpoint })
	}
	r.remove = removeIdentityProvider
	return &IdentityProviderService{Resource: r}
}
