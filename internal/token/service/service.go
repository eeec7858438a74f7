// Package service implements the mint and lock controller: it owns the
// minted-ID registry and per-token lock state, gates every mutating entry
// point on the administrator identity, and delegates fund movement to the
// distribution engine and ownership bookkeeping to the ledger.
//
// Execution is strictly serialized: one mutating operation at a time, each
// wrapped in a unit of work, with a reentrancy guard failing any nested or
// concurrent mutating call immediately.
package service

import (
	"context"
	"errors"
	"log/slog"

	"sigil/internal/ledger"
	"sigil/internal/token/distribute"
	tokenmetrics "sigil/internal/token/metrics"
	"sigil/internal/token/models"
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/requestcontext"
)

// StateStore persists the controller-owned state: the permanent minted-ID
// registry, lock flags, and the mint configuration.
type StateStore interface {
	// AddMinted registers an ID forever and bumps the mint counter.
	// ErrConflict when the ID was minted before.
	AddMinted(ctx context.Context, id domain.TokenID) error
	IsMinted(ctx context.Context, id domain.TokenID) (bool, error)
	MintCount(ctx context.Context) (uint64, error)
	SetLock(ctx context.Context, id domain.TokenID, locked bool) error
	IsLocked(ctx context.Context, id domain.TokenID) (bool, error)
	ClearLock(ctx context.Context, id domain.TokenID) error
	Config(ctx context.Context) (models.MintConfig, error)
	SetConfig(ctx context.Context, cfg models.MintConfig) error
}

// EventPublisher receives lifecycle events after an operation commits.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// LockCache is the optional read-path cache over lock flags.
type LockCache interface {
	Get(ctx context.Context, id domain.TokenID) (locked bool, ok bool)
	Set(ctx context.Context, id domain.TokenID, locked bool)
	Invalidate(ctx context.Context, id domain.TokenID)
}

// Service is the mint and lock controller.
type Service struct {
	ownership ledger.OwnershipStore
	payments  ledger.PaymentLedger
	state     StateStore
	engine    *distribute.Engine
	tx        StoreTx
	guard     guard

	logger    *slog.Logger
	metrics   *tokenmetrics.Metrics
	publisher EventPublisher
	lockCache LockCache
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *tokenmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithTx replaces the unit-of-work boundary. The PostgreSQL deployment passes
// a database transaction runner; the default snapshots the in-memory stores.
func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

func WithLockCache(c LockCache) Option {
	return func(s *Service) { s.lockCache = c }
}

// New creates the controller over the given capabilities.
func New(ownership ledger.OwnershipStore, payments ledger.PaymentLedger, state StateStore, opts ...Option) *Service {
	s := &Service{
		ownership: ownership,
		payments:  payments,
		state:     state,
		engine:    distribute.New(payments),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		stores := make([]Snapshotter, 0, 3)
		for _, candidate := range []any{ownership, payments, state} {
			if snap, ok := candidate.(Snapshotter); ok {
				stores = append(stores, snap)
			}
		}
		s.tx = NewInMemoryStoreTx(stores...)
	}
	return s
}

// SeedConfig installs the initial mint configuration when the state store
// holds none yet. Called once at startup, before the service accepts calls.
func (s *Service) SeedConfig(ctx context.Context, cfg models.MintConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := s.state.Config(ctx)
	if err == nil {
		return nil // already seeded; runtime config wins
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return derrors.Wrap(err, derrors.CodeInternal, "read mint config")
	}
	return s.state.SetConfig(ctx, cfg)
}

// config loads the current configuration; every operation reads it once, up
// front, so a concurrent setter can never be observed mid-operation.
func (s *Service) config(ctx context.Context) (models.MintConfig, error) {
	cfg, err := s.state.Config(ctx)
	if err != nil {
		return cfg, derrors.Wrap(err, derrors.CodeInternal, "mint configuration not initialized")
	}
	return cfg, nil
}

// authorize enforces the administrator identity check on entry to every
// administrator-only operation.
func (s *Service) authorize(ctx context.Context, cfg models.MintConfig) error {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() || caller != cfg.Admin {
		return derrors.New(derrors.CodeUnauthorized, "caller is not the administrator")
	}
	return nil
}

// publish emits a lifecycle event after commit. Best-effort: a publish
// failure is logged, never surfaced to the caller.
func (s *Service) publish(ctx context.Context, event models.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"type", string(event.Type),
			"token_id", event.TokenID.String(),
			"error", err,
		)
	}
}

// TokenStatus returns the read-only view of one token ID. A burned token
// reports Minted=true with Live=false; an ID never minted is NotFound.
func (s *Service) TokenStatus(ctx context.Context, id domain.TokenID) (models.TokenStatus, error) {
	status := models.TokenStatus{ID: id}

	minted, err := s.state.IsMinted(ctx, id)
	if err != nil {
		return status, derrors.Wrap(err, derrors.CodeInternal, "read registry")
	}
	status.Minted = minted

	token, err := s.ownership.Get(ctx, id)
	switch {
	case err == nil:
		status.Live = true
		status.Owner = token.Owner
		status.URI = token.URI
	case errors.Is(err, sentinel.ErrNotFound):
		if !minted {
			return status, derrors.Newf(derrors.CodeNotFound, "token %s does not exist", id)
		}
	default:
		return status, derrors.Wrap(err, derrors.CodeInternal, "read token")
	}

	locked, err := s.lockStatus(ctx, id)
	if err != nil {
		return status, err
	}
	status.Locked = locked
	return status, nil
}

// lockStatus reads the lock flag through the cache when one is configured.
func (s *Service) lockStatus(ctx context.Context, id domain.TokenID) (bool, error) {
	if s.lockCache != nil {
		if locked, ok := s.lockCache.Get(ctx, id); ok {
			return locked, nil
		}
	}
	locked, err := s.state.IsLocked(ctx, id)
	if err != nil {
		return false, derrors.Wrap(err, derrors.CodeInternal, "read lock state")
	}
	if s.lockCache != nil {
		s.lockCache.Set(ctx, id, locked)
	}
	return locked, nil
}

// Config returns the current mint configuration.
func (s *Service) Config(ctx context.Context) (models.MintConfig, error) {
	return s.config(ctx)
}

// Stats returns the aggregate read-only surface.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	count, err := s.state.MintCount(ctx)
	if err != nil {
		return models.Stats{}, derrors.Wrap(err, derrors.CodeInternal, "read mint count")
	}
	return models.Stats{TotalMinted: count, MaxSupply: cfg.MaxSupply}, nil
}

// ListTokens enumerates live tokens with their lock flags.
func (s *Service) ListTokens(ctx context.Context) ([]models.TokenStatus, error) {
	tokens, err := s.ownership.List(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list tokens")
	}
	out := make([]models.TokenStatus, 0, len(tokens))
	for _, t := range tokens {
		locked, err := s.state.IsLocked(ctx, t.ID)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "read lock state")
		}
		out = append(out, models.TokenStatus{
			ID:     t.ID,
			Minted: true,
			Live:   true,
			Owner:  t.Owner,
			URI:    t.URI,
			Locked: locked,
		})
	}
	return out, nil
}
