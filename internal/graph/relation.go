package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

// Cardinality bounds how many nodes may sit at one end of a relation.
type Cardinality int

const (
	AnyNumber Cardinality = iota
	OptionalOne
	ExactlyOne
	AtLeastOne
)

func (c Cardinality) String() string {
	switch c {
	case OptionalOne:
		return "optional-one"
	case ExactlyOne:
		return "exactly-one"
	case AtLeastOne:
		return "at-least-one"
	default:
		return "any-number"
	}
}

func (c Cardinality) atMostOne() bool  { return c == ExactlyOne || c == OptionalOne }
func (c Cardinality) atLeastOne() bool { return c == ExactlyOne || c == AtLeastOne }

// Relation declares a typed edge between two node labels. Out bounds the number
// of To nodes linked to a single From node; In bounds the number of From nodes
// linked to a single To node.
type Relation struct {
	Type    string
	From    string
	To      string
	OutCard Cardinality
	InCard  Cardinality
}

// Traversal walks one side of a relation starting from a fixed node.
type Traversal interface {
	// Single returns the only linked node. ErrNotFound when nothing is linked
	// on an optional side, ErrCardinality when a mandatory side is empty and
	// ErrCorrupted when an at-most-one side holds several nodes.
	Single(ctx context.Context) (Node, error)
	All(ctx context.Context) ([]Node, error)
	Count(ctx context.Context) (int, error)
	// Link returns the edge to the given peer.
	Link(ctx context.Context, peer string) (Edge, error)
	// Connect links the peer and reports whether anything changed. Props are
	// replaced when the link already exists with different props.
	Connect(ctx context.Context, peer string, props any) (bool, error)
	// Disconnect removes the link to the peer and reports whether it existed.
	Disconnect(ctx context.Context, peer string) (bool, error)
}

// Out traverses the relation from a From node towards its To nodes.
func (r Relation) Out(tx Tx, uid string) Traversal {
	return &side{tx: tx, rel: r, uid: uid, dir: Outgoing}
}

// In traverses the relation from a To node back to its From nodes.
func (r Relation) In(tx Tx, uid string) Traversal {
	return &side{tx: tx, rel: r, uid: uid, dir: Incoming}
}

type side struct {
	tx  Tx
	rel Relation
	uid string
	dir Direction
}

func (s *side) card() Cardinality {
	if s.dir == Outgoing {
		return s.rel.OutCard
	}
	return s.rel.InCard
}

func (s *side) peerLabel() string {
	if s.dir == Outgoing {
		return s.rel.To
	}
	return s.rel.From
}

func (s *side) opposite(peer string) *side {
	dir := Incoming
	if s.dir == Incoming {
		dir = Outgoing
	}
	return &side{tx: s.tx, rel: s.rel, uid: peer, dir: dir}
}

func (s *side) peerOf(e Edge) string {
	if s.dir == Outgoing {
		return e.To
	}
	return e.From
}

// links returns the edges whose peer carries the expected label, paired with
// the peer nodes.
func (s *side) links(ctx context.Context) ([]Edge, []Node, error) {
	edges, err := s.tx.Edges(ctx, s.rel.Type, s.uid, s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("list %s edges of %s: %w", s.rel.Type, s.uid, err)
	}
	var (
		kept  []Edge
		nodes []Node
	)
	for _, e := range edges {
		n, err := s.tx.GetNode(ctx, s.peerOf(e))
		if err != nil {
			return nil, nil, fmt.Errorf("load %s peer %s: %w", s.rel.Type, s.peerOf(e), err)
		}
		if label := s.peerLabel(); label != "" && n.Label != label {
			continue
		}
		kept = append(kept, e)
		nodes = append(nodes, n)
	}
	return kept, nodes, nil
}

func (s *side) Single(ctx context.Context) (Node, error) {
	_, nodes, err := s.links(ctx)
	if err != nil {
		return Node{}, err
	}
	switch {
	case len(nodes) == 0 && s.card().atLeastOne():
		return Node{}, fmt.Errorf("%s of %s: %w: %s side is empty", s.rel.Type, s.uid, ErrCardinality, s.card())
	case len(nodes) == 0:
		return Node{}, ErrNotFound
	case len(nodes) > 1 && s.card().atMostOne():
		return Node{}, fmt.Errorf("%s of %s: %w", s.rel.Type, s.uid, ErrCorrupted)
	}
	return nodes[0], nil
}

func (s *side) All(ctx context.Context) ([]Node, error) {
	_, nodes, err := s.links(ctx)
	return nodes, err
}

func (s *side) Count(ctx context.Context) (int, error) {
	edges, _, err := s.links(ctx)
	return len(edges), err
}

func (s *side) Link(ctx context.Context, peer string) (Edge, error) {
	edges, _, err := s.links(ctx)
	if err != nil {
		return Edge{}, err
	}
	for _, e := range edges {
		if s.peerOf(e) == peer {
			return e, nil
		}
	}
	return Edge{}, ErrNotFound
}

func (s *side) Connect(ctx context.Context, peer string, props any) (bool, error) {
	raw := json.RawMessage(`{}`)
	if props != nil {
		b, err := json.Marshal(props)
		if err != nil {
			return false, fmt.Errorf("marshal %s props: %w", s.rel.Type, err)
		}
		raw = b
	}

	edges, _, err := s.links(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range edges {
		if s.peerOf(e) != peer {
			continue
		}
		if props == nil || jsonEqual(normalizeProps(e.Props), raw) {
			return false, nil
		}
		e.Props = raw
		if err := s.tx.PutEdge(ctx, e); err != nil {
			return false, fmt.Errorf("update %s edge: %w", s.rel.Type, err)
		}
		return true, nil
	}
	if s.card().atMostOne() && len(edges) > 0 {
		return false, fmt.Errorf("connect %s %s -> %s: %w: %s side already linked", s.rel.Type, s.uid, peer, ErrCardinality, s.card())
	}

	n, err := s.tx.GetNode(ctx, peer)
	if err != nil {
		return false, fmt.Errorf("connect %s to %s: %w", s.rel.Type, peer, err)
	}
	if label := s.peerLabel(); label != "" && n.Label != label {
		return false, fmt.Errorf("connect %s to %s: %w: expected %s, got %s", s.rel.Type, peer, ErrNotFound, label, n.Label)
	}

	back := s.opposite(peer)
	if back.card().atMostOne() {
		count, err := back.Count(ctx)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return false, fmt.Errorf("connect %s %s -> %s: %w: peer %s side already linked", s.rel.Type, s.uid, peer, ErrCardinality, back.card())
		}
	}

	e := Edge{Type: s.rel.Type, From: s.uid, To: peer, Props: raw}
	if s.dir == Incoming {
		e.From, e.To = peer, s.uid
	}
	if err := s.tx.PutEdge(ctx, e); err != nil {
		return false, fmt.Errorf("create %s edge: %w", s.rel.Type, err)
	}
	return true, nil
}

func (s *side) Disconnect(ctx context.Context, peer string) (bool, error) {
	edges, _, err := s.links(ctx)
	if err != nil {
		return false, err
	}
	var found *Edge
	for i := range edges {
		if s.peerOf(edges[i]) == peer {
			found = &edges[i]
			break
		}
	}
	if found == nil {
		return false, nil
	}
	if s.card().atLeastOne() && len(edges) == 1 {
		return false, fmt.Errorf("disconnect %s %s -> %s: %w: %s side would be empty", s.rel.Type, s.uid, peer, ErrCardinality, s.card())
	}
	back := s.opposite(peer)
	if back.card().atLeastOne() {
		count, err := back.Count(ctx)
		if err != nil {
			return false, err
		}
		if count <= 1 {
			return false, fmt.Errorf("disconnect %s %s -> %s: %w: peer %s side would be empty", s.rel.Type, s.uid, peer, ErrCardinality, back.card())
		}
	}
	return s.tx.DeleteEdge(ctx, found.Type, found.From, found.To)
}

func jsonEqual(a, b json.RawMessage) bool {
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
