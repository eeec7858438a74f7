package service

import "context"

// StoreTx runs a function as one unit of work: every store write inside fn
// commits together or not at all.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Snapshotter is implemented by the in-memory stores so they can participate
// in the in-memory unit of work.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// inMemoryStoreTx snapshots every participating store up front and restores
// all of them when fn fails. The guard already serializes mutating
// operations, so snapshots are taken against a quiescent state.
type inMemoryStoreTx struct {
	stores []Snapshotter
}

// NewInMemoryStoreTx builds a unit of work over the given in-memory stores.
func NewInMemoryStoreTx(stores ...Snapshotter) StoreTx {
	return &inMemoryStoreTx{stores: stores}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	snapshots := make([]any, len(t.stores))
	for i, s := range t.stores {
		snapshots[i] = s.Snapshot()
	}
	if err := fn(ctx); err != nil {
		for i, s := range t.stores {
			s.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
