package budget

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/rest"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	IsPrincipal bool      `json:"isPrincipal"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateBudgetDTO struct {
	Name string `json:"name" validate:"required"`
	Icon string `json:"icon"`
}

type UpdateBudgetDTO struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Icon *string `json:"icon"`
}

func ToDTO(b Budget, activeID string) BudgetDTO {
	return BudgetDTO{
		ID:          b.ID,
		Name:        b.Name,
		Icon:        b.Icon,
		IsPrincipal: b.IsPrincipal,
		IsActive:    b.ID == activeID,
		CreatedAt:   b.CreatedAt,
	}
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// ListBudgets godoc
// @Summary List budgets
// @Description Every budget, the principal aggregate first, with the active one flagged
// @Tags Budget
// @Produce json
// @Success 200 {array} BudgetDTO
// @Router /api/budgets [get]
func (handler *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing budgets")
	budgets, err := handler.service.List(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	active, err := handler.service.Active(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]BudgetDTO, 0, len(budgets))
	for _, b := range budgets {
		dtos = append(dtos, ToDTO(b, active.ID))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateBudget godoc
// @Summary Create a budget
// @Tags Budget
// @Accept json
// @Produce json
// @Param budget body CreateBudgetDTO true "Budget"
// @Success 201 {object} BudgetDTO
// @Failure 400 {object} rest.ErrorDTO
// @Router /api/budgets [post]
func (handler *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating budget")
	var dto CreateBudgetDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := handler.service.Create(r.Context(), dto.Name, dto.Icon)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(b, ""))
}

// UpdateBudget godoc
// @Summary Rename a budget or change its icon
// @Description Allowed on the principal too
// @Tags Budget
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param budget body UpdateBudgetDTO true "Changes"
// @Success 200 {object} BudgetDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 404 {object} rest.ErrorDTO
// @Router /api/budgets/{budgetId} [put]
func (handler *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating budget")
	id := mux.Vars(r)["budgetId"]
	var dto UpdateBudgetDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := handler.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	if dto.Name != nil {
		if b, err = handler.service.Rename(r.Context(), id, *dto.Name); err != nil {
			rest.WriteError(w, err)
			return
		}
	}
	if dto.Icon != nil {
		if b, err = handler.service.SetIcon(r.Context(), id, *dto.Icon); err != nil {
			rest.WriteError(w, err)
			return
		}
	}
	active, err := handler.service.Active(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(b, active.ID))
}

// DeleteBudget godoc
// @Summary Delete a budget with its transactions and recurrences
// @Tags Budget
// @Param budgetId path string true "Budget ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal or last budget"
// @Router /api/budgets/{budgetId} [delete]
func (handler *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting budget")
	if err := handler.service.Delete(r.Context(), mux.Vars(r)["budgetId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetActiveBudget godoc
// @Summary Get the active budget
// @Tags Budget
// @Produce json
// @Success 200 {object} BudgetDTO
// @Router /api/budgets/active [get]
func (handler *Handler) GetActiveBudget(w http.ResponseWriter, r *http.Request) {
	active, err := handler.service.Active(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(active, active.ID))
}
