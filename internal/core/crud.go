package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
	"github.com/edvin/fedreg/internal/query"
)

// CRUD implements the storage operations shared by every entity. It is bound
// to one node label and to the entity's filter field table. Uniqueness is not
// checked here; callers look for conflicts with GetBy first.
type CRUD[T model.Entity] struct {
	Label    string
	Kind     string
	Fields   query.Fields[T]
	validate *validator.Validate
}

func NewCRUD[T model.Entity](label, kind string, fields query.Fields[T], v *validator.Validate) *CRUD[T] {
	return &CRUD[T]{Label: label, Kind: kind, Fields: fields, validate: v}
}

func (c *CRUD[T]) decode(n graph.Node) (T, error) {
	item, err := graph.Decode[T](n)
	if err != nil {
		return item, fmt.Errorf("decode %s %s: %w", c.Kind, n.UID, err)
	}
	return item, nil
}

func (c *CRUD[T]) decodeAll(nodes []graph.Node) ([]T, error) {
	items := make([]T, 0, len(nodes))
	for _, n := range nodes {
		if n.Label != c.Label {
			continue
		}
		item, err := c.decode(n)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Get returns the entity with the given uid.
func (c *CRUD[T]) Get(ctx context.Context, tx graph.Tx, uid string) (T, error) {
	var zero T
	n, err := tx.GetNode(ctx, uid)
	if errors.Is(err, graph.ErrNotFound) || (err == nil && n.Label != c.Label) {
		return zero, notFound(c.Kind, uid)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", c.Kind, uid, err)
	}
	return c.decode(n)
}

// List returns every entity with the CRUD's label ordered by uid.
func (c *CRUD[T]) List(ctx context.Context, tx graph.Tx) ([]T, error) {
	nodes, err := tx.ListNodes(ctx, c.Label)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.Kind, err)
	}
	return c.decodeAll(nodes)
}

// GetBy returns the single entity accepted by match. The boolean is false
// when nothing matches; more than one match means the database holds
// duplicates and ErrCorrupted is returned.
func (c *CRUD[T]) GetBy(ctx context.Context, tx graph.Tx, match func(T) bool) (T, bool, error) {
	var zero T
	items, err := c.List(ctx, tx)
	if err != nil {
		return zero, false, err
	}
	var found []T
	for _, item := range items {
		if match(item) {
			found = append(found, item)
		}
	}
	switch len(found) {
	case 0:
		return zero, false, nil
	case 1:
		return found[0], true, nil
	}
	return zero, false, newError(ErrCorrupted, "found %d %s items where one was expected", len(found), c.Kind)
}

// GetMulti filters, sorts and windows the stored entities. Pagination is
// applied by the caller after rendering.
func (c *CRUD[T]) GetMulti(ctx context.Context, tx graph.Tx, filter query.Filter[T], p query.Params) ([]T, error) {
	items, err := c.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	items = filter.Apply(items)
	if err := c.Fields.Sort(items, p.Sort); err != nil {
		return nil, newError(ErrInvalid, "%s", err.Error())
	}
	return query.Window(items, p.Skip, p.Limit), nil
}

// Create validates item, assigns a fresh uid and stores it.
func (c *CRUD[T]) Create(ctx context.Context, tx graph.Tx, item T) (T, error) {
	var zero T
	if err := c.check(item); err != nil {
		return zero, err
	}
	props, err := toMap(item)
	if err != nil {
		return zero, err
	}
	uid := uuid.NewString()
	props["uid"] = uid
	created, raw, err := fromMap[T](props)
	if err != nil {
		return zero, err
	}
	if err := tx.CreateNode(ctx, graph.Node{UID: uid, Label: c.Label, Props: raw}); err != nil {
		return zero, fmt.Errorf("create %s: %w", c.Kind, err)
	}
	return created, nil
}

// Update merges in into current. Without force, attributes left unset (null)
// in the incoming value are ignored; with force every attribute of in is
// applied, explicit empties included. The boolean reports whether anything was
// written.
func (c *CRUD[T]) Update(ctx context.Context, tx graph.Tx, current T, in any, force bool) (T, bool, error) {
	cur, err := toMap(current)
	if err != nil {
		return current, false, err
	}
	incoming, err := toMap(in)
	if err != nil {
		return current, false, err
	}

	changed := false
	for k, v := range incoming {
		if k == "uid" {
			continue
		}
		old, known := cur[k]
		if !known || (v == nil && !force) {
			continue
		}
		if reflect.DeepEqual(old, v) {
			continue
		}
		cur[k] = v
		changed = true
	}
	if !changed {
		return current, false, nil
	}

	updated, raw, err := fromMap[T](cur)
	if err != nil {
		return current, false, err
	}
	if err := c.check(updated); err != nil {
		return current, false, err
	}
	uid := current.GetUID()
	if err := tx.UpdateNode(ctx, graph.Node{UID: uid, Label: c.Label, Props: raw}); err != nil {
		return current, false, fmt.Errorf("update %s %s: %w", c.Kind, uid, err)
	}
	return updated, true, nil
}

// Remove deletes the node and every relationship touching it.
func (c *CRUD[T]) Remove(ctx context.Context, tx graph.Tx, item T) error {
	if err := tx.DeleteNode(ctx, item.GetUID()); err != nil {
		return fmt.Errorf("remove %s %s: %w", c.Kind, item.GetUID(), err)
	}
	return nil
}

func (c *CRUD[T]) check(item T) error {
	if c.validate == nil {
		return nil
	}
	if err := c.validate.Struct(item); err != nil {
		return newError(ErrInvalid, "validation error: %v", err)
	}
	return nil
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal props: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal props: %w", err)
	}
	return m, nil
}

func fromMap[T any](m map[string]any) (T, json.RawMessage, error) {
	var v T
	b, err := json.Marshal(m)
	if err != nil {
		return v, nil, fmt.Errorf("marshal props: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, nil, fmt.Errorf("unmarshal props: %w", err)
	}
	// Re-marshal so stored props are exactly what T serializes to.
	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil, fmt.Errorf("marshal props: %w", err)
	}
	return v, raw, nil
}
