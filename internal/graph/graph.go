// Package graph stores registry entities as labelled nodes connected by typed,
// directed edges. Both nodes and edges carry JSON properties.
package graph

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when a node or edge does not exist.
	ErrNotFound = errors.New("graph: not found")
	// ErrCardinality is returned when an operation would violate a relationship's
	// declared cardinality.
	ErrCardinality = errors.New("graph: cardinality violation")
	// ErrCorrupted is returned when more nodes are linked than a relationship allows.
	ErrCorrupted = errors.New("graph: multiple nodes found where one was expected")
)

// Node is a labelled vertex.
type Node struct {
	UID   string
	Label string
	Props json.RawMessage
}

// Edge is a typed, directed link between two nodes.
type Edge struct {
	Type  string
	From  string
	To    string
	Props json.RawMessage
}

// Direction selects which end of an edge a lookup starts from.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// Tx is the set of primitive operations available inside a store transaction.
type Tx interface {
	CreateNode(ctx context.Context, n Node) error
	GetNode(ctx context.Context, uid string) (Node, error)
	ListNodes(ctx context.Context, label string) ([]Node, error)
	UpdateNode(ctx context.Context, n Node) error
	// DeleteNode removes the node and every edge touching it.
	DeleteNode(ctx context.Context, uid string) error

	// PutEdge creates the edge or replaces the props of an existing one.
	PutEdge(ctx context.Context, e Edge) error
	// DeleteEdge reports whether an edge was removed.
	DeleteEdge(ctx context.Context, typ, from, to string) (bool, error)
	// Edges lists edges of the given type starting (Outgoing) or ending
	// (Incoming) at uid.
	Edges(ctx context.Context, typ, uid string, dir Direction) ([]Edge, error)
}

// Store runs functions inside read-only or read-write transactions. A
// non-nil error returned by fn rolls the transaction back.
type Store interface {
	ReadTx(ctx context.Context, fn func(Tx) error) error
	WriteTx(ctx context.Context, fn func(Tx) error) error
	Ping(ctx context.Context) error
}

// Decode unmarshals a node's properties into a value of type T.
func Decode[T any](n Node) (T, error) {
	var v T
	if len(n.Props) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(n.Props, &v); err != nil {
		return v, err
	}
	return v, nil
}

func normalizeProps(p json.RawMessage) json.RawMessage {
	if len(p) == 0 {
		return json.RawMessage(`{}`)
	}
	return p
}
