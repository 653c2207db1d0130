package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemStore(t *testing.T) *MemStore {
	t.Helper()
	s, err := NewMemStore()
	require.NoError(t, err)
	return s
}

func TestMemStore_NodeLifecycle(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	err := s.WriteTx(ctx, func(tx Tx) error {
		return tx.CreateNode(ctx, Node{UID: "p1", Label: "Provider", Props: []byte(`{"name":"a"}`)})
	})
	require.NoError(t, err)

	err = s.ReadTx(ctx, func(tx Tx) error {
		n, err := tx.GetNode(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Provider", n.Label)
		assert.JSONEq(t, `{"name":"a"}`, string(n.Props))
		return nil
	})
	require.NoError(t, err)

	err = s.WriteTx(ctx, func(tx Tx) error {
		return tx.UpdateNode(ctx, Node{UID: "p1", Props: []byte(`{"name":"b"}`)})
	})
	require.NoError(t, err)

	err = s.WriteTx(ctx, func(tx Tx) error {
		return tx.DeleteNode(ctx, "p1")
	})
	require.NoError(t, err)

	err = s.ReadTx(ctx, func(tx Tx) error {
		_, err := tx.GetNode(ctx, "p1")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_CreateDuplicateNode(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	err := s.WriteTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "x", Label: "Project"}))
		return tx.CreateNode(ctx, Node{UID: "x", Label: "Project"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestMemStore_ListNodesByLabelSorted(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTx(ctx, func(tx Tx) error {
		for _, n := range []Node{
			{UID: "c", Label: "Flavor"},
			{UID: "a", Label: "Flavor"},
			{UID: "b", Label: "Image"},
		} {
			if err := tx.CreateNode(ctx, n); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.ReadTx(ctx, func(tx Tx) error {
		nodes, err := tx.ListNodes(ctx, "Flavor")
		require.NoError(t, err)
		require.Len(t, nodes, 2)
		assert.Equal(t, "a", nodes[0].UID)
		assert.Equal(t, "c", nodes[1].UID)
		return nil
	}))
}

func TestMemStore_WriteTxRollsBackOnError(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WriteTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "n", Label: "SLA"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.ReadTx(ctx, func(tx Tx) error {
		_, err := tx.GetNode(ctx, "n")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_WriteTxReleasesLockOnPanic(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WriteTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.CreateNode(ctx, Node{UID: "n", Label: "SLA"}))
			panic("boom")
		})
	})

	done := make(chan error, 1)
	go func() {
		done <- s.WriteTx(ctx, func(tx Tx) error {
			return tx.CreateNode(ctx, Node{UID: "m", Label: "SLA"})
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write transaction still locked after panic")
	}

	err := s.ReadTx(ctx, func(tx Tx) error {
		_, err := tx.GetNode(ctx, "n")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_DeleteNodeDetachesEdges(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "r", Label: "Region"}))
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "s", Label: "ComputeService"}))
		require.NoError(t, tx.PutEdge(ctx, Edge{Type: "SUPPLY", From: "r", To: "s"}))
		return tx.DeleteNode(ctx, "s")
	}))

	require.NoError(t, s.ReadTx(ctx, func(tx Tx) error {
		edges, err := tx.Edges(ctx, "SUPPLY", "r", Outgoing)
		require.NoError(t, err)
		assert.Empty(t, edges)
		return nil
	}))
}

func TestMemStore_PutEdgeRequiresEndpoints(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	err := s.WriteTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "r", Label: "Region"}))
		return tx.PutEdge(ctx, Edge{Type: "SUPPLY", From: "r", To: "ghost"})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_PutEdgeReplacesProps(t *testing.T) {
	s := newTestMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "p", Label: "Provider"}))
		require.NoError(t, tx.CreateNode(ctx, Node{UID: "i", Label: "IdentityProvider"}))
		require.NoError(t, tx.PutEdge(ctx, Edge{Type: "AUTH", From: "p", To: "i", Props: []byte(`{"protocol":"oidc"}`)}))
		return tx.PutEdge(ctx, Edge{Type: "AUTH", From: "p", To: "i", Props: []byte(`{"protocol":"saml"}`)})
	}))

	require.NoError(t, s.ReadTx(ctx, func(tx Tx) error {
		edges, err := tx.Edges(ctx, "AUTH", "i", Incoming)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.JSONEq(t, `{"protocol":"saml"}`, string(edges[0].Props))
		return nil
	}))
}
