package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanaplan/settled/internal/adapter/http/dto"
	"github.com/hanaplan/settled/internal/usecase"
)

// AccountHandler serves account reads.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
	historyUC *usecase.HistoryUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC *usecase.AccountUseCase, historyUC *usecase.HistoryUseCase) *AccountHandler {
	return &AccountHandler{
		accountUC: accountUC,
		historyUC: historyUC,
	}
}

// Get retrieves one account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accountUC.Get(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// History lists an account's ledger entries.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.historyUC.ListByAccount(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(entries))
}
