package graph

import (
	"context"
	"time"
)

// Observer is called once per finished transaction with its mode ("read" or
// "write"), duration and result.
type Observer func(mode string, took time.Duration, err error)

type observedStore struct {
	Store
	observe Observer
}

// WithObserver wraps a store so every transaction is reported to o.
func WithObserver(s Store, o Observer) Store {
	return &observedStore{Store: s, observe: o}
}

func (s *observedStore) ReadTx(ctx context.Context, fn func(Tx) error) error {
	start := time.Now()
	err := s.Store.ReadTx(ctx, fn)
	s.observe("read", time.Since(start), err)
	return err
}

func (s *observedStore) WriteTx(ctx context.Context, fn func(Tx) error) error {
	start := time.Now()
	err := s.Store.WriteTx(ctx, fn)
	s.observe("write", time.Since(start), err)
	return err
}
