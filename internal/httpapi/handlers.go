package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
)

// Handler holds dependencies for the API endpoints.
type Handler struct {
	svc      *journal.Service
	recorder *journal.Recorder
	log      *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service, log *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		recorder: journal.NewRecorder(svc, log),
		log:      log.Named("handlers"),
		now:      time.Now,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type entryRequest struct {
	Date       time.Time        `json:"date"`
	ProfitLoss *decimal.Decimal `json:"profitLoss"`
	Notes      *string          `json:"notes"`
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.GetAllAccounts(r.Context())
	if err != nil {
		h.fail(w, "Failed to get accounts", err)
		return
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in models.CreateAccountInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.svc.CreateAccount(r.Context(), in)
	if err != nil {
		h.fail(w, "Failed to create account", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")
	account, err := h.svc.GetAccountByID(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get account", err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// UpdateAccount edits name and currency. Balances only move through entries.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     *string `json:"name"`
		Currency *string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "accountID")
	in := models.UpdateAccountInput{Name: body.Name, Currency: body.Currency}
	if err := h.svc.UpdateAccount(r.Context(), id, in); err != nil {
		h.fail(w, "Failed to update account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAccount(r.Context(), chi.URLParam(r, "accountID")); err != nil {
		h.fail(w, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEntries returns the account's entries, most recent first.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.GetEntriesByAccount(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		h.fail(w, "Failed to get entries", err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var body entryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ProfitLoss == nil {
		writeError(w, http.StatusBadRequest, "profitLoss is required")
		return
	}
	if body.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	notes := ""
	if body.Notes != nil {
		notes = *body.Notes
	}

	entry, err := h.recorder.RecordEntry(r.Context(), chi.URLParam(r, "accountID"), body.Date, *body.ProfitLoss, notes)
	if err != nil {
		h.fail(w, "Failed to record entry", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var body entryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.recorder.EditEntry(r.Context(), chi.URLParam(r, "accountID"), chi.URLParam(r, "entryID"), body.ProfitLoss, body.Notes)
	if err != nil {
		h.fail(w, "Failed to edit entry", err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry removes the entry and returns the account with its recomputed balance.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	account, err := h.recorder.RemoveEntry(r.Context(), chi.URLParam(r, "accountID"), chi.URLParam(r, "entryID"))
	if err != nil {
		h.fail(w, "Failed to delete entry", err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// Statistics calculates and returns the dashboard figures of an account.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")
	account, err := h.svc.GetAccountByID(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get account", err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	entries, err := h.svc.GetEntriesByAccount(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to calculate statistics", err)
		return
	}
	h.writeJSON(w, http.StatusOK, journal.Summarize(account, entries, h.now()))
}

// fail maps the error taxonomy onto HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error(msg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
