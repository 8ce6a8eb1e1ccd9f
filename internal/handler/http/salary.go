package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SalaryHandler interface {
	SetSalary(w http.ResponseWriter, r *http.Request)
	SetDeductionProfile(w http.ResponseWriter, r *http.Request)
}

type salaryHandlerImpl struct {
	salaryService salary.SalaryService
}

func NewSalaryHandler(salaryService salary.SalaryService) SalaryHandler {
	return &salaryHandlerImpl{salaryService: salaryService}
}

// SetSalary implements SalaryHandler.
func (h *salaryHandlerImpl) SetSalary(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req salary.SetSalaryRequest
	if !decodeJSON(w, r, &req, "SetSalary") {
		return
	}
	req.UserID = chi.URLParam(r, "userID")
	req.CreatedBy = adminID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	structure, err := h.salaryService.SetSalary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure saved", salary.NewSalaryStructureResponse(structure))
}

// SetDeductionProfile implements SalaryHandler.
func (h *salaryHandlerImpl) SetDeductionProfile(w http.ResponseWriter, r *http.Request) {
	var req salary.SetDeductionProfileRequest
	if !decodeJSON(w, r, &req, "SetDeductionProfile") {
		return
	}
	req.UserID = chi.URLParam(r, "userID")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	profile, err := h.salaryService.SetDeductionProfile(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Deduction profile saved", salary.NewDeductionProfileResponse(profile))
}
