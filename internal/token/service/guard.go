package service

import (
	"sync/atomic"

	"sigil/internal/token/models"
	derrors "sigil/pkg/domain-errors"
)

// guard enforces the serialized execution model: while a mutating entry point
// is in flight, any other mutating call fails immediately instead of queueing.
// This covers both reentrant calls made from inside a payment callback and
// plain concurrent requests.
type guard struct {
	busy atomic.Bool
}

// acquire claims the guard or fails with the reentrancy error. release must
// run on every exit path of the caller.
func (g *guard) acquire() error {
	if !g.busy.CompareAndSwap(false, true) {
		return derrors.New(models.CodeReentrant, "a mutating operation is already in flight")
	}
	return nil
}

func (g *guard) release() {
	g.busy.Store(false)
}
