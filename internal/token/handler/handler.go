// Package handler is the thin HTTP layer over the mint controller. It
// delegates to the service without embedding business logic so transport
// concerns stay isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/internal/platform/middleware"
	"sigil/internal/token/models"
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
)

// Service defines the controller operations the HTTP layer exposes.
type Service interface {
	MintWithPayment(ctx context.Context, req models.MintRequest) (models.TokenStatus, error)
	PrivilegedMint(ctx context.Context, req models.DirectMintRequest) (models.TokenStatus, error)
	GiftMint(ctx context.Context, req models.DirectMintRequest) (models.TokenStatus, error)
	SetLock(ctx context.Context, id domain.TokenID, locked bool) error
	UnlockAndTransfer(ctx context.Context, id domain.TokenID, req models.UnlockTransferRequest) error
	Transfer(ctx context.Context, id domain.TokenID, req models.TransferRequest) error
	Burn(ctx context.Context, id domain.TokenID) error

	SetMaxSupply(ctx context.Context, maxSupply uint64) error
	SetMinMintAmount(ctx context.Context, minAmount uint64) error
	SetPaymentAsset(ctx context.Context, asset domain.Address) error
	TransferAdmin(ctx context.Context, admin domain.Address) error

	CreditPayment(ctx context.Context, addr domain.Address, amount uint64) error
	ApprovePayment(ctx context.Context, owner domain.Address, amount uint64) error
	PaymentBalance(ctx context.Context, addr domain.Address) (uint64, error)
	PaymentAllowance(ctx context.Context, owner domain.Address) (uint64, error)

	TokenStatus(ctx context.Context, id domain.TokenID) (models.TokenStatus, error)
	ListTokens(ctx context.Context) ([]models.TokenStatus, error)
	Config(ctx context.Context) (models.MintConfig, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Handler handles token endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New creates a token Handler.
func New(service Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, validator: validator, logger: logger}
}

// Register mounts the token routes. Reads are public; every mutating route
// requires an authenticated caller — whether that caller may act is decided
// by the service per operation.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tokens", h.handleListTokens)
	r.Get("/tokens/{id}", h.handleTokenStatus)
	r.Get("/config", h.handleGetConfig)
	r.Get("/stats", h.handleStats)
	r.Get("/payments/{address}", h.handlePaymentAccount)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/tokens/mint", h.handleMint)
		r.Post("/tokens/mint/privileged", h.handlePrivilegedMint)
		r.Post("/tokens/mint/gift", h.handleGiftMint)
		r.Put("/tokens/{id}/lock", h.handleSetLock)
		r.Post("/tokens/{id}/unlock-transfer", h.handleUnlockTransfer)
		r.Post("/tokens/{id}/transfer", h.handleTransfer)
		r.Delete("/tokens/{id}", h.handleBurn)

		r.Put("/config/max-supply", h.handleSetMaxSupply)
		r.Put("/config/min-mint-amount", h.handleSetMinMintAmount)
		r.Put("/config/payment-asset", h.handleSetPaymentAsset)
		r.Put("/config/admin", h.handleTransferAdmin)

		r.Post("/payments/credit", h.handleCredit)
		r.Post("/payments/approve", h.handleApprove)
	})
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req models.MintRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := h.service.MintWithPayment(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "mint", err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (h *Handler) handlePrivilegedMint(w http.ResponseWriter, r *http.Request) {
	var req models.DirectMintRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := h.service.PrivilegedMint(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "privileged mint", err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (h *Handler) handleGiftMint(w http.ResponseWriter, r *http.Request) {
	var req models.DirectMintRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := h.service.GiftMint(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "gift mint", err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (h *Handler) handleSetLock(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	var req models.SetLockRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetLock(r.Context(), id, req.Locked); err != nil {
		h.writeServiceError(w, r, "set lock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnlockTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	var req models.UnlockTransferRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.UnlockAndTransfer(r.Context(), id, req); err != nil {
		h.writeServiceError(w, r, "unlock transfer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	var req models.TransferRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.Transfer(r.Context(), id, req); err != nil {
		h.writeServiceError(w, r, "transfer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	if err := h.service.Burn(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "burn", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTokenStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	status, err := h.service.TokenStatus(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "token status", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.service.ListTokens(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Config(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "get config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeServiceError logs and translates a service failure.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	level := slog.LevelWarn
	if derrors.CodeOf(err) == derrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, op+" failed", "error", err.Error())
	writeError(w, err)
}

func tokenID(w http.ResponseWriter, r *http.Request) (domain.TokenID, bool) {
	id, err := domain.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid token ID"))
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
