package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"
)

const (
	nodesTable = "nodes"
	edgesTable = "edges"
)

type memNode struct {
	UID   string
	Label string
	Props []byte
}

type memEdge struct {
	Type  string
	From  string
	To    string
	Props []byte
}

func memSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			nodesTable: {
				Name: nodesTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "UID"},
					},
					"label": {
						Name:    "label",
						Indexer: &memdb.StringFieldIndex{Field: "Label"},
					},
				},
			},
			edgesTable: {
				Name: edgesTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Type"},
							&memdb.StringFieldIndex{Field: "From"},
							&memdb.StringFieldIndex{Field: "To"},
						}},
					},
					"out": {
						Name: "out",
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Type"},
							&memdb.StringFieldIndex{Field: "From"},
						}},
					},
					"in": {
						Name: "in",
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Type"},
							&memdb.StringFieldIndex{Field: "To"},
						}},
					},
					"from": {
						Name:    "from",
						Indexer: &memdb.StringFieldIndex{Field: "From"},
					},
					"to": {
						Name:    "to",
						Indexer: &memdb.StringFieldIndex{Field: "To"},
					},
				},
			},
		},
	}
}

// MemStore keeps the graph in process memory. Write transactions are
// serialized, read transactions see a consistent snapshot.
type MemStore struct {
	db *memdb.MemDB
}

func NewMemStore() (*MemStore, error) {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemStore{db: db}, nil
}

func (s *MemStore) ReadTx(ctx context.Context, fn func(Tx) error) error {
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(&memTx{txn: txn})
}

func (s *MemStore) WriteTx(ctx context.Context, fn func(Tx) error) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(&memTx{txn: txn}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *MemStore) Ping(context.Context) error { return nil }

type memTx struct {
	txn *memdb.Txn
}

func (t *memTx) CreateNode(_ context.Context, n Node) error {
	existing, err := t.txn.First(nodesTable, "id", n.UID)
	if err != nil {
		return fmt.Errorf("lookup node %s: %w", n.UID, err)
	}
	if existing != nil {
		return fmt.Errorf("node %s already exists", n.UID)
	}
	return t.txn.Insert(nodesTable, &memNode{UID: n.UID, Label: n.Label, Props: copyBytes(normalizeProps(n.Props))})
}

func (t *memTx) GetNode(_ context.Context, uid string) (Node, error) {
	raw, err := t.txn.First(nodesTable, "id", uid)
	if err != nil {
		return Node{}, fmt.Errorf("lookup node %s: %w", uid, err)
	}
	if raw == nil {
		return Node{}, ErrNotFound
	}
	n := raw.(*memNode)
	return Node{UID: n.UID, Label: n.Label, Props: copyBytes(n.Props)}, nil
}

func (t *memTx) ListNodes(_ context.Context, label string) ([]Node, error) {
	it, err := t.txn.Get(nodesTable, "label", label)
	if err != nil {
		return nil, fmt.Errorf("list %s nodes: %w", label, err)
	}
	var nodes []Node
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n := obj.(*memNode)
		nodes = append(nodes, Node{UID: n.UID, Label: n.Label, Props: copyBytes(n.Props)})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].UID < nodes[j].UID })
	return nodes, nil
}

func (t *memTx) UpdateNode(_ context.Context, n Node) error {
	raw, err := t.txn.First(nodesTable, "id", n.UID)
	if err != nil {
		return fmt.Errorf("lookup node %s: %w", n.UID, err)
	}
	if raw == nil {
		return ErrNotFound
	}
	cur := raw.(*memNode)
	return t.txn.Insert(nodesTable, &memNode{UID: cur.UID, Label: cur.Label, Props: copyBytes(normalizeProps(n.Props))})
}

func (t *memTx) DeleteNode(_ context.Context, uid string) error {
	raw, err := t.txn.First(nodesTable, "id", uid)
	if err != nil {
		return fmt.Errorf("lookup node %s: %w", uid, err)
	}
	if raw == nil {
		return ErrNotFound
	}
	for _, idx := range []string{"from", "to"} {
		if _, err := t.txn.DeleteAll(edgesTable, idx, uid); err != nil {
			return fmt.Errorf("detach node %s: %w", uid, err)
		}
	}
	return t.txn.Delete(nodesTable, raw)
}

func (t *memTx) PutEdge(_ context.Context, e Edge) error {
	for _, uid := range []string{e.From, e.To} {
		raw, err := t.txn.First(nodesTable, "id", uid)
		if err != nil {
			return fmt.Errorf("lookup node %s: %w", uid, err)
		}
		if raw == nil {
			return fmt.Errorf("edge endpoint %s: %w", uid, ErrNotFound)
		}
	}
	return t.txn.Insert(edgesTable, &memEdge{Type: e.Type, From: e.From, To: e.To, Props: copyBytes(normalizeProps(e.Props))})
}

func (t *memTx) DeleteEdge(_ context.Context, typ, from, to string) (bool, error) {
	raw, err := t.txn.First(edgesTable, "id", typ, from, to)
	if err != nil {
		return false, fmt.Errorf("lookup %s edge: %w", typ, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := t.txn.Delete(edgesTable, raw); err != nil {
		return false, fmt.Errorf("delete %s edge: %w", typ, err)
	}
	return true, nil
}

func (t *memTx) Edges(_ context.Context, typ, uid string, dir Direction) ([]Edge, error) {
	idx := "out"
	if dir == Incoming {
		idx = "in"
	}
	it, err := t.txn.Get(edgesTable, idx, typ, uid)
	if err != nil {
		return nil, fmt.Errorf("list %s edges: %w", typ, err)
	}
	var edges []Edge
	for obj := it.Next(); obj != nil; obj = it.Next() {
		e := obj.(*memEdge)
		edges = append(edges, Edge{Type: e.Type, From: e.From, To: e.To, Props: copyBytes(e.Props)})
	}
	return edges, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
