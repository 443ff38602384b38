package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"familybudget/internal/logger"
	"familybudget/internal/models"
	"familybudget/internal/service"
	"familybudget/internal/validation"
)

// FamilyHandler serves the member and expense endpoints of one family
type FamilyHandler struct {
	responder
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService, log *logger.Logger, devMode bool) *FamilyHandler {
	return &FamilyHandler{
		responder:     responder{log: log, devMode: devMode},
		familyService: familyService,
	}
}

type memberRequest struct {
	Name      string          `json:"name"`
	IsEarning json.RawMessage `json:"isEarning"`
	Salary    json.RawMessage `json:"salary"`
}

func (req memberRequest) input() service.MemberInput {
	return service.MemberInput{
		Name:      req.Name,
		IsEarning: coerceBool(req.IsEarning),
		Salary:    coerceDecimal(req.Salary),
	}
}

type expenseRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
}

func (req expenseRequest) input() (service.ExpenseInput, error) {
	amount, present, err := parseDecimal(req.Amount)
	if err != nil {
		return service.ExpenseInput{}, validation.ValidationError{Field: "amount", Message: "amount must be a number"}
	}
	if !present {
		amount = decimal.Zero
	}
	return service.ExpenseInput{
		Description: req.Description,
		Amount:      amount,
		Category:    models.Category(req.Category),
	}, nil
}

// familyDetail is the GET /family/{id} shape
type familyDetail struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Members       []models.Member `json:"members"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
}

// GetFamily handles GET /family/{familyId}
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	family, err := h.familyService.GetFamily(r.Context(), chi.URLParam(r, "familyId"))
	if err != nil {
		h.respondServiceError(w, r, "error fetching family details", err)
		return
	}

	respondJSON(w, http.StatusOK, familyDetail{
		ID:            family.ID,
		Name:          family.Name,
		Members:       family.Members,
		TotalIncome:   family.TotalIncome,
		TotalExpenses: family.TotalExpenses,
	})
}

// AddMember handles POST /family/{familyId}/members
func (h *FamilyHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	family, err := h.familyService.AddMember(r.Context(), chi.URLParam(r, "familyId"), req.input())
	if err != nil {
		h.respondServiceError(w, r, "error adding member", err)
		return
	}

	respondJSON(w, http.StatusCreated, family)
}

// UpdateMember handles PUT /family/{familyId}/members/{memberId}
func (h *FamilyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	family, err := h.familyService.UpdateMember(r.Context(),
		chi.URLParam(r, "familyId"),
		chi.URLParam(r, "memberId"),
		req.input(),
	)
	if err != nil {
		h.respondServiceError(w, r, "error updating member", err)
		return
	}

	respondJSON(w, http.StatusOK, family)
}

// DeleteMember handles DELETE /family/{familyId}/members/{memberId}
func (h *FamilyHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	family, err := h.familyService.DeleteMember(r.Context(),
		chi.URLParam(r, "familyId"),
		chi.URLParam(r, "memberId"),
	)
	if err != nil {
		h.respondServiceError(w, r, "error deleting member", err)
		return
	}

	respondJSON(w, http.StatusOK, family)
}

// AddExpense handles POST /family/{familyId}/members/{memberId}/expenses
func (h *FamilyHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	in, err := req.input()
	if err != nil {
		h.respondServiceError(w, r, "invalid expense", err)
		return
	}

	family, err := h.familyService.AddExpense(r.Context(),
		chi.URLParam(r, "familyId"),
		chi.URLParam(r, "memberId"),
		in,
	)
	if err != nil {
		h.respondServiceError(w, r, "error adding expense", err)
		return
	}

	respondJSON(w, http.StatusCreated, family)
}
