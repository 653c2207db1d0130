package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface shared by pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps the graph in the graph_nodes and graph_edges tables.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ReadTx(ctx context.Context, fn func(Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		return fn(&pgTx{db: tx})
	})
}

func (s *PGStore) WriteTx(ctx context.Context, fn func(Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadWrite}, func(tx pgx.Tx) error {
		return fn(&pgTx{db: tx})
	})
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type pgTx struct {
	db DB
}

func (t *pgTx) CreateNode(ctx context.Context, n Node) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO graph_nodes (uid, label, props) VALUES ($1, $2, $3)`,
		n.UID, n.Label, []byte(normalizeProps(n.Props)),
	)
	if err != nil {
		return fmt.Errorf("create %s node: %w", n.Label, err)
	}
	return nil
}

func (t *pgTx) GetNode(ctx context.Context, uid string) (Node, error) {
	var (
		n     Node
		props []byte
	)
	err := t.db.QueryRow(ctx,
		`SELECT uid, label, props FROM graph_nodes WHERE uid = $1`, uid,
	).Scan(&n.UID, &n.Label, &props)
	if errors.Is(err, pgx.ErrNoRows) {
		return Node{}, ErrNotFound
	}
	if err != nil {
		return Node{}, fmt.Errorf("get node %s: %w", uid, err)
	}
	n.Props = props
	return n, nil
}

func (t *pgTx) ListNodes(ctx context.Context, label string) ([]Node, error) {
	rows, err := t.db.Query(ctx,
		`SELECT uid, label, props FROM graph_nodes WHERE label = $1 ORDER BY uid`, label,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s nodes: %w", label, err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var (
			n     Node
			props []byte
		)
		if err := rows.Scan(&n.UID, &n.Label, &props); err != nil {
			return nil, fmt.Errorf("scan %s node: %w", label, err)
		}
		n.Props = props
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s nodes: %w", label, err)
	}
	return nodes, nil
}

func (t *pgTx) UpdateNode(ctx context.Context, n Node) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE graph_nodes SET props = $2, updated_at = now() WHERE uid = $1`,
		n.UID, []byte(normalizeProps(n.Props)),
	)
	if err != nil {
		return fmt.Errorf("update node %s: %w", n.UID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteNode(ctx context.Context, uid string) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM graph_nodes WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete node %s: %w", uid, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) PutEdge(ctx context.Context, e Edge) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO graph_edges (type, src, dst, props) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (type, src, dst) DO UPDATE SET props = EXCLUDED.props`,
		e.Type, e.From, e.To, []byte(normalizeProps(e.Props)),
	)
	if err != nil {
		return fmt.Errorf("put %s edge: %w", e.Type, err)
	}
	return nil
}

func (t *pgTx) DeleteEdge(ctx context.Context, typ, from, to string) (bool, error) {
	tag, err := t.db.Exec(ctx,
		`DELETE FROM graph_edges WHERE type = $1 AND src = $2 AND dst = $3`,
		typ, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("delete %s edge: %w", typ, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) Edges(ctx context.Context, typ, uid string, dir Direction) ([]Edge, error) {
	query := `SELECT type, src, dst, props FROM graph_edges WHERE type = $1 AND src = $2 ORDER BY dst`
	if dir == Incoming {
		query = `SELECT type, src, dst, props FROM graph_edges WHERE type = $1 AND dst = $2 ORDER BY src`
	}
	rows, err := t.db.Query(ctx, query, typ, uid)
	if err != nil {
		return nil, fmt.Errorf("list %s edges: %w", typ, err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var (
			e     Edge
			props []byte
		)
		if err := rows.Scan(&e.Type, &e.From, &e.To, &props); err != nil {
			return nil, fmt.Errorf("scan %s edge: %w", typ, err)
		}
		e.Props = props
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s edges: %w", typ, err)
	}
	return edges, nil
}
