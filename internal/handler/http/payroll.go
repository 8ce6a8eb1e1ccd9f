package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 6
	maxHistoryLimit     = 24
)

type PayrollHandler interface {
	GetMyPayslip(w http.ResponseWriter, r *http.Request)
	GetUserPayslip(w http.ResponseWriter, r *http.Request)
	ListMyHistory(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
	CloseMonth(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// GetMyPayslip implements PayrollHandler.
func (h *payrollHandlerImpl) GetMyPayslip(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	h.payslip(w, r, userID)
}

// GetUserPayslip implements PayrollHandler.
func (h *payrollHandlerImpl) GetUserPayslip(w http.ResponseWriter, r *http.Request) {
	h.payslip(w, r, chi.URLParam(r, "userID"))
}

func (h *payrollHandlerImpl) payslip(w http.ResponseWriter, r *http.Request, userID string) {
	year, month, ok := periodParams(w, r)
	if !ok {
		return
	}

	req := payroll.PeriodRequest{UserID: userID, Year: year, Month: month}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	slip, err := h.payrollService.GetMonthlyPayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewPayslipResponse(slip))
}

// ListMyHistory implements PayrollHandler.
func (h *payrollHandlerImpl) ListMyHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := getIntQueryParam(r, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	records, err := h.payrollService.ListHistory(r.Context(), userID, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := payroll.NewHistoryResponse(records)
	response.SuccessWithMeta(w, items, &response.Meta{Count: len(items), Limit: limit})
}

// GetStats implements PayrollHandler.
func (h *payrollHandlerImpl) GetStats(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodParams(w, r)
	if !ok {
		return
	}

	stats, err := h.payrollService.MonthlyStats(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewStatsResponse(stats))
}

// CloseMonth implements PayrollHandler.
func (h *payrollHandlerImpl) CloseMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodParams(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.CloseMonth(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll month closed", result)
}
