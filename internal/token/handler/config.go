package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
)

type valueRequest struct {
	Value uint64 `json:"value"`
}

type addressRequest struct {
	Address string `json:"address"`
}

func (h *Handler) handleSetMaxSupply(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetMaxSupply(r.Context(), req.Value); err != nil {
		h.writeServiceError(w, r, "set max supply", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetMinMintAmount(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetMinMintAmount(r.Context(), req.Value); err != nil {
		h.writeServiceError(w, r, "set min mint amount", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetPaymentAsset(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetPaymentAsset(r.Context(), domain.NewAddress(req.Address)); err != nil {
		h.writeServiceError(w, r, "set payment asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.TransferAdmin(r.Context(), domain.NewAddress(req.Address)); err != nil {
		h.writeServiceError(w, r, "transfer admin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type creditRequest struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

type approveRequest struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

func (h *Handler) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.CreditPayment(r.Context(), domain.NewAddress(req.Address), req.Amount); err != nil {
		h.writeServiceError(w, r, "credit payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.ApprovePayment(r.Context(), domain.NewAddress(req.Owner), req.Amount); err != nil {
		h.writeServiceError(w, r, "approve payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePaymentAccount(w http.ResponseWriter, r *http.Request) {
	addr := domain.NewAddress(chi.URLParam(r, "address"))
	if addr.IsZero() {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid address"))
		return
	}
	balance, err := h.service.PaymentBalance(r.Context(), addr)
	if err != nil {
		h.writeServiceError(w, r, "payment balance", err)
		return
	}
	allowance, err := h.service.PaymentAllowance(r.Context(), addr)
	if err != nil {
		h.writeServiceError(w, r, "payment allowance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":   addr,
		"balance":   balance,
		"allowance": allowance,
	})
}
