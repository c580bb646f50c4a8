package handler

import (
	"net/http"
	"time"

	"github.com/hanaplan/settled/internal/adapter/http/dto"
	"github.com/hanaplan/settled/internal/infrastructure/metrics"
	"github.com/hanaplan/settled/internal/usecase"
)

// SettlementHandler triggers settlement batches and serves run history.
type SettlementHandler struct {
	runner   *usecase.SettlementRunner
	reportUC *usecase.ReportUseCase
	metrics  *metrics.Metrics
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(runner *usecase.SettlementRunner, reportUC *usecase.ReportUseCase, m *metrics.Metrics) *SettlementHandler {
	return &SettlementHandler{
		runner:   runner,
		reportUC: reportUC,
		metrics:  m,
	}
}

// RunLoans triggers the loan repayment batch.
func (h *SettlementHandler) RunLoans(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, usecase.BatchLoan)
}

// RunSavings triggers the savings contribution batch.
func (h *SettlementHandler) RunSavings(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, usecase.BatchSavings)
}

func (h *SettlementHandler) run(w http.ResponseWriter, r *http.Request, batch string) {
	targetDate, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	start := time.Now()
	result, err := h.runner.RunBatch(r.Context(), batch, targetDate)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "settlement run failed", err.Error())

		return
	}

	if h.metrics != nil {
		amount, _ := result.TotalAmount.Float64()
		h.metrics.ObserveRun(batch,
			result.SuccessCount(), result.FailureCount(), result.ErrorCount(),
			amount, time.Since(start).Seconds())
	}

	writeJSON(w, http.StatusOK, dto.ResultFromDomain(result))
}

// ListRuns serves persisted run records, newest first.
func (h *SettlementHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	runs, err := h.reportUC.ListRuns(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunsFromDomain(runs))
}
