package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
	"github.com/edvin/fedreg/internal/query"
)

// Resource exposes the collection operations of one entity: list, read,
// partial update and delete. T is the stored entity and U its partial update
// payload.
type Resource[T model.Entity, U any] struct {
	store graph.Store
	crud  *CRUD[T]
	links []link
	// check runs before a partial update and rejects conflicting or forbidden
	// changes.
	check func(ctx context.Context, tx graph.Tx, cur T, in U) error
	// remove deletes the entity and whatever it owns.
	remove func(ctx context.Context, tx graph.Tx, uid string) error
}

func newResource[T model.Entity, U any](store graph.Store, crud *CRUD[T], links ...link) *Resource[T, U] {
	return &Resource[T, U]{store: store, crud: crud, links: links}
}

func (r *Resource[T, U]) Kind() string { return r.crud.Kind }

// CRUD returns the storage operations of the resource.
func (r *Resource[T, U]) CRUD() *CRUD[T] { return r.crud }

// List returns the entities matching the filter and list parameters found in
// values, rendered for the caller.
func (r *Resource[T, U]) List(ctx context.Context, values url.Values, auth bool) ([]any, error) {
	params, err := query.ParseParams(values)
	if err != nil {
		return nil, newError(ErrInvalid, "%s", err.Error())
	}
	filter, err := r.crud.Fields.ParseFilter(values)
	if err != nil {
		return nil, newError(ErrInvalid, "%s", err.Error())
	}
	shape := ChooseShape(auth, params.Short, params.WithConn)

	var out []any
	err = r.store.ReadTx(ctx, func(tx graph.Tx) error {
		items, err := r.crud.GetMulti(ctx, tx, filter, params)
		if err != nil {
			return err
		}
		out = make([]any, 0, len(items))
		for _, item := range items {
			v, err := render(ctx, tx, item, shape, r.links)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return query.Paginate(out, params.Page, params.Size), nil
}

// Get returns the entity with the given uid in the requested shape.
func (r *Resource[T, U]) Get(ctx context.Context, uid string, shape Shape) (any, error) {
	var out any
	err := r.store.ReadTx(ctx, func(tx graph.Tx) error {
		item, err := r.crud.Get(ctx, tx, uid)
		if err != nil {
			return err
		}
		out, err = render(ctx, tx, item, shape, r.links)
		return err
	})
	return out, storeError(err)
}

// Patch applies a partial update. The boolean is false when the stored entity
// already matched the payload.
func (r *Resource[T, U]) Patch(ctx context.Context, uid string, in U) (any, bool, error) {
	var (
		out     any
		changed bool
	)
	err := r.store.WriteTx(ctx, func(tx graph.Tx) error {
		cur, err := r.crud.Get(ctx, tx, uid)
		if err != nil {
			return err
		}
		if r.check != nil {
			if err := r.check(ctx, tx, cur, in); err != nil {
				return err
			}
		}
		updated, ok, err := r.crud.Update(ctx, tx, cur, in, false)
		if err != nil {
			return err
		}
		changed = ok
		out = updated
		return nil
	})
	if err != nil {
		return nil, false, storeError(err)
	}
	return out, changed, nil
}

// Delete removes the entity and cascades to what it owns.
func (r *Resource[T, U]) Delete(ctx context.Context, uid string) error {
	err := r.store.WriteTx(ctx, func(tx graph.Tx) error {
		item, err := r.crud.Get(ctx, tx, uid)
		if err != nil {
			return err
		}
		if r.remove != nil {
			return r.remove(ctx, tx, uid)
		}
		return r.crud.Remove(ctx, tx, item)
	})
	return storeError(err)
}

// siblings returns the entities sharing a parent with uid through rel,
// including the entity itself.
func siblings[T model.Entity](ctx context.Context, tx graph.Tx, crud *CRUD[T], rel graph.Relation, uid string) ([]T, error) {
	parents, err := rel.In(tx, uid).All(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var nodes []graph.Node
	for _, p := range parents {
		children, err := rel.Out(tx, p.UID).All(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if !seen[c.UID] {
				seen[c.UID] = true
				nodes = append(nodes, c)
			}
		}
	}
	return crud.decodeAll(nodes)
}

// unique fails with ErrConflict when another entity among peers already uses
// value for field.
func unique[T model.Entity](kind, field, self string, value *string, peers []T, get func(T) string) error {
	if value == nil {
		return nil
	}
	for _, p := range peers {
		if p.GetUID() != self && get(p) == *value {
			return alreadyRegistered(kind, field, *value)
		}
	}
	return nil
}

// connectErr maps cardinality violations raised while linking to conflicts.
func connectErr(err error) error {
	if errors.Is(err, graph.ErrCardinality) {
		return &Error{Kind: ErrConflict, Msg: err.Error()}
	}
	return err
}

// countIn returns how many source nodes are linked to uid through rel.
func countIn(ctx context.Context, tx graph.Tx, rel graph.Relation, uid string) (int, error) {
	n, err := rel.In(tx, uid).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s links of %s: %w", rel.Type, uid, err)
	}
	return n, nil
}
