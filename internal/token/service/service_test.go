package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigil/internal/ledger"
	"sigil/internal/ledger/store/ownership"
	"sigil/internal/ledger/store/payment"
	"sigil/internal/token/events"
	"sigil/internal/token/models"
	"sigil/internal/token/service"
	"sigil/internal/token/store/state"
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
	"sigil/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ownership *ownership.InMemory
	payments  *payment.InMemory
	state     *state.InMemory
	events    *events.Memory
	svc       *service.Service

	admin    domain.Address
	buyer    domain.Address
	adminCtx context.Context
	buyerCtx context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ownership = ownership.NewInMemory()
	s.payments = payment.NewInMemory()
	s.state = state.NewInMemory()
	s.events = events.NewMemory()
	s.svc = service.New(s.ownership, s.payments, s.state,
		service.WithPublisher(s.events))

	s.admin = domain.NewAddress("admin")
	s.buyer = domain.NewAddress("buyer")
	s.adminCtx = requestcontext.WithCaller(context.Background(), s.admin)
	s.buyerCtx = requestcontext.WithCaller(context.Background(), s.buyer)

	s.Require().NoError(s.svc.SeedConfig(context.Background(), models.MintConfig{
		MaxSupply:     1000,
		MinMintAmount: 0,
		PaymentAsset:  domain.NewAddress("asset:test"),
		Admin:         s.admin,
	}))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) fund(addr domain.Address, amount uint64) {
	ctx := context.Background()
	s.Require().NoError(s.payments.Credit(ctx, addr, amount))
	s.Require().NoError(s.payments.Approve(ctx, addr, amount))
}

func (s *ServiceSuite) balance(addr string) uint64 {
	b, err := s.payments.BalanceOf(context.Background(), domain.NewAddress(addr))
	s.Require().NoError(err)
	return b
}

func (s *ServiceSuite) mintRequest(id domain.TokenID, total uint64, commissions ...models.Commission) models.MintRequest {
	return models.MintRequest{
		Buyer:         s.buyer,
		TokenID:       id,
		Commissions:   commissions,
		URI:           "ipfs://meta/" + id.String(),
		DeclaredTotal: total,
	}
}

// TestMintWithPayment covers the happy path: the buyer loses exactly the
// declared total, the split lands on the recipients, the remainder on the
// administrator, and the token comes out locked in the buyer's hands.
func (s *ServiceSuite) TestMintWithPayment() {
	s.Require().NoError(s.svc.SetMinMintAmount(s.adminCtx, 100))
	s.fund(s.buyer, 100)

	status, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(7, 100,
		models.Commission{Recipient: domain.NewAddress("r1"), Amount: 30},
		models.Commission{Recipient: domain.NewAddress("r2"), Amount: 20},
	))
	s.Require().NoError(err)

	s.Equal(domain.TokenID(7), status.ID)
	s.True(status.Minted)
	s.True(status.Live)
	s.True(status.Locked)
	s.Equal(s.buyer, status.Owner)

	s.Equal(uint64(0), s.balance("buyer"))
	s.Equal(uint64(30), s.balance("r1"))
	s.Equal(uint64(20), s.balance("r2"))
	s.Equal(uint64(50), s.balance("admin"))

	stats, err := s.svc.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(1), stats.TotalMinted)

	published := s.events.Events()
	s.Require().Len(published, 1)
	s.Equal(models.EventMintCompleted, published[0].Type)
	s.Equal(domain.TokenID(7), published[0].TokenID)
	s.Equal(uint64(100), published[0].Amount)
}

// TestMintRejectsOversubscribedSplit verifies commission amounts summing past
// the declared total abort before any balance moves.
func (s *ServiceSuite) TestMintRejectsOversubscribedSplit() {
	s.fund(s.buyer, 1000)

	_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 100,
		models.Commission{Recipient: domain.NewAddress("r1"), Amount: 60},
		models.Commission{Recipient: domain.NewAddress("r2"), Amount: 50},
	))
	s.Require().Error(err)
	s.True(derrors.HasCode(err, models.CodePaymentFailed))
	s.ErrorIs(err, models.ErrAmountsExceedTotal)

	s.Equal(uint64(1000), s.balance("buyer"))
	s.assertNoTrace(1)
}

// TestMintBelowMinimum verifies a declared total under the floor leaves no
// trace at all.
func (s *ServiceSuite) TestMintBelowMinimum() {
	s.Require().NoError(s.svc.SetMinMintAmount(s.adminCtx, 100))
	s.fund(s.buyer, 1000)

	_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 99))
	s.Require().Error(err)
	s.True(derrors.HasCode(err, models.CodeBelowMinimum))

	s.Equal(uint64(1000), s.balance("buyer"))
	s.assertNoTrace(1)
}

// TestMintRollsBackMidDistribution verifies a failure partway through the
// split restores every balance already moved.
func (s *ServiceSuite) TestMintRollsBackMidDistribution() {
	// Allowance covers both transfers, balance only the first.
	s.Require().NoError(s.payments.Credit(context.Background(), s.buyer, 40))
	s.Require().NoError(s.payments.Approve(context.Background(), s.buyer, 100))

	_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 100,
		models.Commission{Recipient: domain.NewAddress("r1"), Amount: 30},
		models.Commission{Recipient: domain.NewAddress("r2"), Amount: 30},
	))
	s.Require().Error(err)
	s.True(derrors.HasCode(err, models.CodePaymentFailed))

	s.Equal(uint64(40), s.balance("buyer"), "first transfer must be rolled back")
	s.Zero(s.balance("r1"))
	s.assertNoTrace(1)
}

// TestMintSupplyAndRegistryChecks verifies the bound and uniqueness checks on
// every entry point.
func (s *ServiceSuite) TestMintSupplyAndRegistryChecks() {
	s.fund(s.buyer, 1000)

	s.Run("ID above max supply", func() {
		_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1001, 10))
		s.True(derrors.HasCode(err, models.CodeSupplyExceeded))
	})

	s.Run("duplicate ID", func() {
		_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(5, 10))
		s.Require().NoError(err)
		_, err = s.svc.MintWithPayment(s.adminCtx, s.mintRequest(5, 10))
		s.True(derrors.HasCode(err, models.CodeAlreadyMinted))
	})

	s.Run("gift mint honors the same checks", func() {
		_, err := s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{
			To: s.buyer, TokenID: 1001,
		})
		s.True(derrors.HasCode(err, models.CodeSupplyExceeded))

		_, err = s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{
			To: s.buyer, TokenID: 5,
		})
		s.True(derrors.HasCode(err, models.CodeAlreadyMinted))
	})
}

// TestMintAuthorization verifies only the administrator may mint.
func (s *ServiceSuite) TestMintAuthorization() {
	s.fund(s.buyer, 100)

	_, err := s.svc.MintWithPayment(s.buyerCtx, s.mintRequest(1, 100))
	s.True(derrors.HasCode(err, derrors.CodeUnauthorized))

	_, err = s.svc.PrivilegedMint(s.buyerCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.True(derrors.HasCode(err, derrors.CodeUnauthorized))

	anonCtx := context.Background()
	_, err = s.svc.GiftMint(anonCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
}

// TestDirectMintLockFlags verifies privileged mints come out locked and gift
// mints unlocked.
func (s *ServiceSuite) TestDirectMintLockFlags() {
	to := domain.NewAddress("recipient")

	status, err := s.svc.PrivilegedMint(s.adminCtx, models.DirectMintRequest{To: to, TokenID: 1})
	s.Require().NoError(err)
	s.True(status.Locked)

	status, err = s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: to, TokenID: 2})
	s.Require().NoError(err)
	s.False(status.Locked)

	// The gift recipient can transfer immediately.
	recipientCtx := requestcontext.WithCaller(context.Background(), to)
	err = s.svc.Transfer(recipientCtx, 2, models.TransferRequest{
		From: to, To: domain.NewAddress("next"),
	})
	s.Require().NoError(err)
}

// TestTransferBlockedWhileLocked verifies the lock gates holder transfers.
func (s *ServiceSuite) TestTransferBlockedWhileLocked() {
	s.fund(s.buyer, 10)
	_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 10))
	s.Require().NoError(err)

	err = s.svc.Transfer(s.buyerCtx, 1, models.TransferRequest{
		From: s.buyer, To: domain.NewAddress("next"),
	})
	s.True(derrors.HasCode(err, models.CodeTransferBlocked))

	// Administrative unlock opens the path for a non-admin caller.
	s.Require().NoError(s.svc.SetLock(s.adminCtx, 1, false))
	err = s.svc.Transfer(s.buyerCtx, 1, models.TransferRequest{
		From: s.buyer, To: domain.NewAddress("next"),
	})
	s.Require().NoError(err)

	status, err := s.svc.TokenStatus(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal(domain.NewAddress("next"), status.Owner)
}

// TestTransferCallerChecks verifies only the named holder may transfer.
func (s *ServiceSuite) TestTransferCallerChecks() {
	_, err := s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.Require().NoError(err)

	// Caller is not the from address.
	malloryCtx := requestcontext.WithCaller(context.Background(), domain.NewAddress("mallory"))
	err = s.svc.Transfer(malloryCtx, 1, models.TransferRequest{
		From: s.buyer, To: domain.NewAddress("mallory"),
	})
	s.True(derrors.HasCode(err, derrors.CodeForbidden))

	// Caller matches from but does not hold the token.
	err = s.svc.Transfer(malloryCtx, 1, models.TransferRequest{
		From: domain.NewAddress("mallory"), To: domain.NewAddress("next"),
	})
	s.True(derrors.HasCode(err, derrors.CodeForbidden))
}

// TestUnlockAndTransfer verifies the one-shot release path.
func (s *ServiceSuite) TestUnlockAndTransfer() {
	s.fund(s.buyer, 10)
	_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 10))
	s.Require().NoError(err)

	holder := domain.NewAddress("holder")
	s.Require().NoError(s.svc.UnlockAndTransfer(s.adminCtx, 1, models.UnlockTransferRequest{To: holder}))

	status, err := s.svc.TokenStatus(context.Background(), 1)
	s.Require().NoError(err)
	s.False(status.Locked)
	s.Equal(holder, status.Owner)

	// Second unlock on the now-unlocked token fails.
	err = s.svc.UnlockAndTransfer(s.adminCtx, 1, models.UnlockTransferRequest{To: holder})
	s.True(derrors.HasCode(err, models.CodeAlreadyUnlocked))

	// The new holder can move it.
	holderCtx := requestcontext.WithCaller(context.Background(), holder)
	s.Require().NoError(s.svc.Transfer(holderCtx, 1, models.TransferRequest{
		From: holder, To: domain.NewAddress("next"),
	}))
}

// TestSetLockRequiresLiveToken verifies the override rejects unknown IDs and
// non-admin callers.
func (s *ServiceSuite) TestSetLockRequiresLiveToken() {
	err := s.svc.SetLock(s.adminCtx, 404, true)
	s.True(derrors.HasCode(err, derrors.CodeNotFound))

	_, err = s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.Require().NoError(err)

	err = s.svc.SetLock(s.buyerCtx, 1, true)
	s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
}

// TestBurnRetiresIDForever verifies burn removes the live token but keeps the
// registry entry, so the ID can never be minted again.
func (s *ServiceSuite) TestBurnRetiresIDForever() {
	s.fund(s.buyer, 10)
	_, err := s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 10))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Burn(s.adminCtx, 1))

	status, err := s.svc.TokenStatus(context.Background(), 1)
	s.Require().NoError(err)
	s.True(status.Minted, "registry entry survives burn")
	s.False(status.Live)

	// Every entry point refuses the retired ID.
	_, err = s.svc.MintWithPayment(s.adminCtx, s.mintRequest(1, 10))
	s.True(derrors.HasCode(err, models.CodeAlreadyMinted))
	_, err = s.svc.PrivilegedMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.True(derrors.HasCode(err, models.CodeAlreadyMinted))
	_, err = s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.True(derrors.HasCode(err, models.CodeAlreadyMinted))

	// The counter still counts the burned token.
	stats, err := s.svc.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(1), stats.TotalMinted)

	err = s.svc.Burn(s.adminCtx, 1)
	s.True(derrors.HasCode(err, derrors.CodeNotFound), "second burn finds no live token")
}

// TestConfigMutations verifies the administrator configuration surface.
func (s *ServiceSuite) TestConfigMutations() {
	s.Run("rejects zero values", func() {
		err := s.svc.SetMaxSupply(s.adminCtx, 0)
		s.True(derrors.HasCode(err, models.CodeInvalidConfiguration))
		err = s.svc.SetPaymentAsset(s.adminCtx, domain.ZeroAddress)
		s.True(derrors.HasCode(err, models.CodeInvalidConfiguration))
		err = s.svc.TransferAdmin(s.adminCtx, domain.ZeroAddress)
		s.True(derrors.HasCode(err, models.CodeInvalidConfiguration))
	})

	s.Run("rejects non-admin callers", func() {
		err := s.svc.SetMaxSupply(s.buyerCtx, 10)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("lowered supply bounds future mints only", func() {
		_, err := s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 500})
		s.Require().NoError(err)

		s.Require().NoError(s.svc.SetMaxSupply(s.adminCtx, 100))

		_, err = s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 101})
		s.True(derrors.HasCode(err, models.CodeSupplyExceeded))

		status, err := s.svc.TokenStatus(context.Background(), 500)
		s.Require().NoError(err)
		s.True(status.Live, "token above the lowered cap stays live")
	})

	s.Run("admin handover moves authority and residual", func() {
		next := domain.NewAddress("admin2")
		s.Require().NoError(s.svc.TransferAdmin(s.adminCtx, next))

		err := s.svc.SetMaxSupply(s.adminCtx, 50)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized), "old admin is out")

		nextCtx := requestcontext.WithCaller(context.Background(), next)
		s.Require().NoError(s.svc.SetMaxSupply(nextCtx, 2000))

		s.fund(s.buyer, 100)
		_, err = s.svc.MintWithPayment(nextCtx, s.mintRequest(9, 100))
		s.Require().NoError(err)
		s.Equal(uint64(100), s.balance("admin2"), "residual follows the new admin")
	})
}

// TestPaymentOperations verifies the fungible side plumbing.
func (s *ServiceSuite) TestPaymentOperations() {
	err := s.svc.CreditPayment(s.buyerCtx, s.buyer, 100)
	s.True(derrors.HasCode(err, derrors.CodeUnauthorized), "credit is admin-gated")

	s.Require().NoError(s.svc.CreditPayment(s.adminCtx, s.buyer, 100))

	err = s.svc.ApprovePayment(s.adminCtx, s.buyer, 100)
	s.True(derrors.HasCode(err, derrors.CodeForbidden), "only the owner approves")

	s.Require().NoError(s.svc.ApprovePayment(s.buyerCtx, s.buyer, 80))

	balance, err := s.svc.PaymentBalance(context.Background(), s.buyer)
	s.Require().NoError(err)
	s.Equal(uint64(100), balance)

	allowance, err := s.svc.PaymentAllowance(context.Background(), s.buyer)
	s.Require().NoError(err)
	s.Equal(uint64(80), allowance)
}

// TestReads verifies the read-only surface.
func (s *ServiceSuite) TestReads() {
	ctx := context.Background()

	_, err := s.svc.TokenStatus(ctx, 404)
	s.True(derrors.HasCode(err, derrors.CodeNotFound))

	_, err = s.svc.GiftMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 2})
	s.Require().NoError(err)
	_, err = s.svc.PrivilegedMint(s.adminCtx, models.DirectMintRequest{To: s.buyer, TokenID: 1})
	s.Require().NoError(err)

	tokens, err := s.svc.ListTokens(ctx)
	s.Require().NoError(err)
	s.Require().Len(tokens, 2)
	s.Equal(domain.TokenID(1), tokens[0].ID)
	s.True(tokens[0].Locked)
	s.Equal(domain.TokenID(2), tokens[1].ID)
	s.False(tokens[1].Locked)

	cfg, err := s.svc.Config(ctx)
	s.Require().NoError(err)
	s.Equal(s.admin, cfg.Admin)
}

// assertNoTrace checks a failed mint left neither a live token nor a registry
// entry.
func (s *ServiceSuite) assertNoTrace(id domain.TokenID) {
	ctx := context.Background()

	minted, err := s.state.IsMinted(ctx, id)
	s.Require().NoError(err)
	s.False(minted, "registry must be untouched")

	_, err = s.svc.TokenStatus(ctx, id)
	s.True(derrors.HasCode(err, derrors.CodeNotFound))

	stats, err := s.svc.Stats(ctx)
	s.Require().NoError(err)
	s.Zero(stats.TotalMinted)
}

// reentrantLedger wraps the in-memory payment ledger and calls back into the
// service from inside a transfer, imitating a payment capability that hands
// control to the payer mid-distribution.
type reentrantLedger struct {
	*payment.InMemory
	svc      *service.Service
	callback func(svc *service.Service) error
	inner    error
}

func (l *reentrantLedger) TransferFrom(ctx context.Context, owner, recipient domain.Address, amount uint64) error {
	if l.callback != nil {
		cb := l.callback
		l.callback = nil
		l.inner = cb(l.svc)
	}
	return l.InMemory.TransferFrom(ctx, owner, recipient, amount)
}

type ReentrancySuite struct {
	suite.Suite
	ledger *reentrantLedger
	state  *state.InMemory
	svc    *service.Service

	admin    domain.Address
	buyer    domain.Address
	adminCtx context.Context
}

func (s *ReentrancySuite) SetupTest() {
	own := ownership.NewInMemory()
	s.ledger = &reentrantLedger{InMemory: payment.NewInMemory()}
	s.state = state.NewInMemory()

	// Snapshot/Restore stay promoted from the embedded store, so the wrapper
	// participates in rollback as usual.
	s.svc = service.New(own, s.ledger, s.state)
	s.ledger.svc = s.svc

	s.admin = domain.NewAddress("admin")
	s.buyer = domain.NewAddress("buyer")
	s.adminCtx = requestcontext.WithCaller(context.Background(), s.admin)

	s.Require().NoError(s.svc.SeedConfig(context.Background(), models.MintConfig{
		MaxSupply:    1000,
		PaymentAsset: domain.NewAddress("asset:test"),
		Admin:        s.admin,
	}))

	ctx := context.Background()
	s.Require().NoError(s.ledger.Credit(ctx, s.buyer, 1000))
	s.Require().NoError(s.ledger.Approve(ctx, s.buyer, 1000))
}

func TestReentrancySuite(t *testing.T) {
	suite.Run(t, new(ReentrancySuite))
}

// TestNestedMintFailsImmediately verifies a callback re-entering the service
// during distribution is rejected without blocking and the outer operation
// rolls back in full.
func (s *ReentrancySuite) TestNestedMintFailsImmediately() {
	adminCtx := s.adminCtx
	s.ledger.callback = func(svc *service.Service) error {
		_, err := svc.GiftMint(adminCtx, models.DirectMintRequest{
			To: s.buyer, TokenID: 99,
		})
		return err
	}

	_, err := s.svc.MintWithPayment(s.adminCtx, models.MintRequest{
		Buyer:         s.buyer,
		TokenID:       1,
		Commissions:   []models.Commission{{Recipient: domain.NewAddress("r1"), Amount: 30}},
		DeclaredTotal: 100,
	})

	// The nested call fails with the reentrancy code.
	s.Require().Error(s.ledger.inner)
	s.True(derrors.HasCode(s.ledger.inner, models.CodeReentrant))

	// The outer mint itself succeeds: the callback failure did not abort the
	// transfer, and nothing of the nested attempt leaked into state.
	s.Require().NoError(err)

	minted, stateErr := s.state.IsMinted(context.Background(), 99)
	s.Require().NoError(stateErr)
	s.False(minted, "nested mint must leave no trace")
}

// TestNestedFailureAbortsOuter verifies that when the payment capability
// propagates the nested error, the outer mint rolls back in full.
func (s *ReentrancySuite) TestNestedFailureAbortsOuter() {
	failingLedger := &abortingLedger{InMemory: payment.NewInMemory()}
	own := ownership.NewInMemory()
	st := state.NewInMemory()
	svc := service.New(own, failingLedger, st)
	failingLedger.svc = svc

	s.Require().NoError(svc.SeedConfig(context.Background(), models.MintConfig{
		MaxSupply:    1000,
		PaymentAsset: domain.NewAddress("asset:test"),
		Admin:        s.admin,
	}))
	ctx := context.Background()
	s.Require().NoError(failingLedger.Credit(ctx, s.buyer, 1000))
	s.Require().NoError(failingLedger.Approve(ctx, s.buyer, 1000))

	_, err := svc.MintWithPayment(s.adminCtx, models.MintRequest{
		Buyer:         s.buyer,
		TokenID:       1,
		Commissions:   []models.Commission{{Recipient: domain.NewAddress("r1"), Amount: 30}},
		DeclaredTotal: 100,
	})
	s.Require().Error(err)
	s.True(derrors.HasCode(err, models.CodePaymentFailed))
	s.True(derrors.HasCode(err, models.CodeReentrant))

	balance, berr := failingLedger.BalanceOf(ctx, s.buyer)
	s.Require().NoError(berr)
	s.Equal(uint64(1000), balance, "full rollback on reentrant abort")

	minted, merr := st.IsMinted(ctx, 1)
	s.Require().NoError(merr)
	s.False(minted)
}

// abortingLedger re-enters the service and propagates the resulting error,
// aborting the transfer that triggered it.
type abortingLedger struct {
	*payment.InMemory
	svc  *service.Service
	done bool
}

func (l *abortingLedger) TransferFrom(ctx context.Context, owner, recipient domain.Address, amount uint64) error {
	if !l.done {
		l.done = true
		adminCtx := requestcontext.WithCaller(context.Background(), domain.NewAddress("admin"))
		if _, err := l.svc.GiftMint(adminCtx, models.DirectMintRequest{
			To: owner, TokenID: 99,
		}); err != nil {
			return err
		}
	}
	return l.InMemory.TransferFrom(ctx, owner, recipient, amount)
}

var _ ledger.PaymentLedger = (*reentrantLedger)(nil)
var _ ledger.PaymentLedger = (*abortingLedger)(nil)
