package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// Shape selects how an entity is rendered in a response.
type Shape int

const (
	ShapeRead Shape = iota
	ShapeShort
	ShapeExtended
	ShapePublic
	ShapeExtendedPublic
)

func (s Shape) String() string {
	switch s {
	case ShapeShort:
		return "short"
	case ShapeExtended:
		return "extended"
	case ShapePublic:
		return "public"
	case ShapeExtendedPublic:
		return "extended-public"
	default:
		return "read"
	}
}

// ChooseShape picks the output shape. Authenticated callers get full
// attributes, anonymous ones the public subset; with_conn adds the first level
// of connected entities and takes precedence over short.
func ChooseShape(auth, short, withConn bool) Shape {
	switch {
	case auth && withConn:
		return ShapeExtended
	case auth && short:
		return ShapeShort
	case auth:
		return ShapeRead
	case withConn:
		return ShapeExtendedPublic
	default:
		return ShapePublic
	}
}

func (s Shape) extended() bool { return s == ShapeExtended || s == ShapeExtendedPublic }

// base returns the shape used for the entity itself and for its connections.
func (s Shape) base() Shape {
	switch s {
	case ShapeExtended:
		return ShapeRead
	case ShapeExtendedPublic:
		return ShapePublic
	}
	return s
}

// link describes a connection rendered by the extended shapes.
type link struct {
	key string
	rel graph.Relation
	out bool
	// props names the attribute receiving the edge properties on each peer.
	props string
}

func (l link) traverse(tx graph.Tx, uid string) graph.Traversal {
	if l.out {
		return l.rel.Out(tx, uid)
	}
	return l.rel.In(tx, uid)
}

func (l link) many() bool {
	c := l.rel.InCard
	if l.out {
		c = l.rel.OutCard
	}
	return c != graph.ExactlyOne && c != graph.OptionalOne
}

func pick(e model.Entity, s Shape) any {
	switch s.base() {
	case ShapeShort:
		return e.Short()
	case ShapePublic:
		return e.Public()
	}
	return e
}

// render converts item to the requested shape, loading connections for the
// extended shapes.
func render(ctx context.Context, tx graph.Tx, item model.Entity, s Shape, links []link) (any, error) {
	if !s.extended() {
		return pick(item, s), nil
	}
	out, err := toMap(pick(item, s))
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		t := l.traverse(tx, item.GetUID())
		if !l.many() {
			n, err := t.Single(ctx)
			switch {
			case errors.Is(err, graph.ErrNotFound):
				out[l.key] = nil
				continue
			case err != nil:
				return nil, storeError(err)
			}
			v, err := renderPeer(ctx, t, n, s, l.props)
			if err != nil {
				return nil, err
			}
			out[l.key] = v
			continue
		}
		nodes, err := t.All(ctx)
		if err != nil {
			return nil, err
		}
		peers := make([]any, 0, len(nodes))
		for _, n := range nodes {
			v, err := renderPeer(ctx, t, n, s, l.props)
			if err != nil {
				return nil, err
			}
			peers = append(peers, v)
		}
		out[l.key] = peers
	}
	return out, nil
}

func renderPeer(ctx context.Context, t graph.Traversal, n graph.Node, s Shape, propsKey string) (any, error) {
	e, err := decodeEntity(n)
	if err != nil {
		return nil, err
	}
	v := pick(e, s)
	if propsKey == "" {
		return v, nil
	}
	edge, err := t.Link(ctx, n.UID)
	if err != nil {
		return nil, fmt.Errorf("load %s link to %s: %w", n.Label, n.UID, err)
	}
	m, err := toMap(v)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := json.Unmarshal(edge.Props, &props); err != nil {
		return nil, fmt.Errorf("decode %s link props: %w", n.Label, err)
	}
	m[propsKey] = props
	return m, nil
}

// decodeEntity decodes a node of any registry label.
func decodeEntity(n graph.Node) (model.Entity, error) {
	var (
		e   model.Entity
		err error
	)
	switch n.Label {
	case model.LabelProvider:
		e, err = graph.Decode[model.Provider](n)
	case model.LabelRegion:
		e, err = graph.Decode[model.Region](n)
	case model.LabelLocation:
		e, err = graph.Decode[model.Location](n)
	case model.LabelProject:
		e, err = graph.Decode[model.Project](n)
	case model.LabelFlavor:
		e, err = graph.Decode[model.Flavor](n)
	case model.LabelImage:
		e, err = graph.Decode[model.Image](n)
	case model.LabelNetwork:
		e, err = graph.Decode[model.Network](n)
	case model.LabelBlockStorageQuota:
		e, err = graph.Decode[model.BlockStorageQuota](n)
	case model.LabelComputeQuota:
		e, err = graph.Decode[model.ComputeQuota](n)
	case model.LabelNetworkQuota:
		e, err = graph.Decode[model.NetworkQuota](n)
	case model.LabelBlockStorageService, model.LabelComputeService, model.LabelIdentityService, model.LabelNetworkService:
		e, err = graph.Decode[model.Service](n)
	case model.LabelSLA:
		e, err = graph.Decode[model.SLA](n)
	case model.LabelIdentityProvider:
		e, err = graph.Decode[model.IdentityProvider](n)
	case model.LabelUserGroup:
		e, err = graph.Decode[model.UserGroup](n)
	default:
		return nil, fmt.Errorf("unknown node label %q", n.Label)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", n.Label, n.UID, err)
	}
	return e, nil
}
