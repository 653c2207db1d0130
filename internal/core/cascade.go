package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// Deleting an entity removes what it owns. Shared children (flavors, images,
// networks and identity providers linked elsewhere) only lose the link, which
// DeleteNode drops together with the node.

func deleteNode(ctx context.Context, tx graph.Tx, uid string) error {
	if err := tx.DeleteNode(ctx, uid); err != nil && !errors.Is(err, graph.ErrNotFound) {
		return fmt.Errorf("delete node %s: %w", uid, err)
	}
	return nil
}

// deleteIfOnly removes the peers reached through out that are linked to no
// other source than uid.
func deleteIfOnly(ctx context.Context, tx graph.Tx, rel graph.Relation, uid string) error {
	peers, err := rel.Out(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, p := range peers {
		n, err := countIn(ctx, tx, rel, p.UID)
		if err != nil {
			return err
		}
		if n <= 1 {
			if err := deleteNode(ctx, tx, p.UID); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeProvider(ctx context.Context, tx graph.Tx, uid string) error {
	projects, err := relProviderProjects.Out(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if err := removeProject(ctx, tx, p.UID); err != nil {
			return err
		}
	}
	regions, err := relProviderRegions.Out(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, r := range regions {
		if err := removeRegionTree(ctx, tx, r.UID); err != nil {
			return err
		}
	}
	idps, err := relProviderIdPs.Out(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, idp := range idps {
		n, err := countIn(ctx, tx, relProviderIdPs, idp.UID)
		if err != nil {
			return err
		}
		if n <= 1 {
			if err := removeIdentityProvider(ctx, tx, idp.UID); err != nil {
				return err
			}
		}
	}
	return deleteNode(ctx, tx, uid)
}

// removeRegion refuses to delete the last region of a provider.
func removeRegion(ctx context.Context, tx graph.Tx, uid string) error {
	provider, err := relProviderRegions.In(tx, uid).Single(ctx)
	if err != nil {
		return storeError(err)
	}
	n, err := relProviderRegions.Out(tx, provider.UID).Count(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return newError(ErrDeleteBlocked, "Region %s is the last region of provider %s", uid, provider.UID)
	}
	return removeRegionTree(ctx, tx, uid)
}

func removeRegionTree(ctx context.Context, tx graph.Tx, uid string) error {
	for _, rel := range regionServiceRels {
		services, err := rel.Out(tx, uid).All(ctx)
		if err != nil {
			return err
		}
		for _, s := range services {
			if err := removeService(ctx, tx, s); err != nil {
				return err
			}
		}
	}
	loc, err := relRegionLocation.Out(tx, uid).Single(ctx)
	switch {
	case errors.Is(err, graph.ErrNotFound):
	case err != nil:
		return storeError(err)
	default:
		n, err := countIn(ctx, tx, relRegionLocation, loc.UID)
		if err != nil {
			return err
		}
		if n <= 1 {
			if err := deleteNode(ctx, tx, loc.UID); err != nil {
				return err
			}
		}
	}
	return deleteNode(ctx, tx, uid)
}

func serviceType(label string) string {
	for typ, l := range model.ServiceLabels {
		if l == label {
			return typ
		}
	}
	return ""
}

func removeService(ctx context.Context, tx graph.Tx, n graph.Node) error {
	typ := serviceType(n.Label)
	if rel, ok := quotaServiceRels[typ]; ok {
		quotas, err := rel.In(tx, n.UID).All(ctx)
		if err != nil {
			return err
		}
		for _, q := range quotas {
			if err := deleteNode(ctx, tx, q.UID); err != nil {
				return err
			}
		}
	}
	switch typ {
	case model.ServiceTypeCompute:
		if err := deleteIfOnly(ctx, tx, relServiceFlavors, n.UID); err != nil {
			return err
		}
		if err := deleteIfOnly(ctx, tx, relServiceImages, n.UID); err != nil {
			return err
		}
	case model.ServiceTypeNetwork:
		if err := deleteIfOnly(ctx, tx, relServiceNetworks, n.UID); err != nil {
			return err
		}
	}
	return deleteNode(ctx, tx, n.UID)
}

func removeProject(ctx context.Context, tx graph.Tx, uid string) error {
	for _, rel := range quotaProjectRels {
		quotas, err := rel.In(tx, uid).All(ctx)
		if err != nil {
			return err
		}
		for _, q := range quotas {
			if err := deleteNode(ctx, tx, q.UID); err != nil {
				return err
			}
		}
	}
	slas, err := relSLAProjects.In(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, s := range slas {
		n, err := relSLAProjects.Out(tx, s.UID).Count(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			if err := deleteNode(ctx, tx, s.UID); err != nil {
				return err
			}
		}
	}
	return deleteNode(ctx, tx, uid)
}

func removeIdentityProvider(ctx context.Context, tx graph.Tx, uid string) error {
	groups, err := relIdPUserGroups.Out(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := removeUserGroup(ctx, tx, g.UID); err != nil {
			return err
		}
	}
	return deleteNode(ctx, tx, uid)
}

func removeUserGroup(ctx context.Context, tx graph.Tx, uid string) error {
	slas, err := relUserGroupSLAs.Out(tx, uid).All(ctx)
	if err != nil {
		return err
	}
	for _, s := range slas {
		if err := deleteNode(ctx, tx, s.UID); err != nil {
			return err
		}
	}
	return deleteNode(ctx, tx, uid)
}

func removeServiceByUID(ctx context.Context, tx graph.Tx, uid string) error {
	n, err := tx.GetNode(ctx, uid)
	if err != nil {
		return fmt.Errorf("load service %s: %w", uid, err)
	}
	return removeService(ctx, tx, n)
}
