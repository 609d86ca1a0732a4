package recurrence

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/rest"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/money"
	log "github.com/sirupsen/logrus"
)

type RecurrenceDTO struct {
	ID                string      `json:"id"`
	BudgetID          string      `json:"budgetId"`
	Type              string      `json:"type"`
	Amount            json.Number `json:"amount"`
	CategoryID        string      `json:"category"`
	Description       string      `json:"description"`
	Frequency         string      `json:"frequency"`
	CustomMonths      int         `json:"customMonths,omitempty"`
	StartDate         string      `json:"startDate"`
	EndDate           string      `json:"endDate,omitempty"`
	IsActive          bool        `json:"isActive"`
	NextDueDate       string      `json:"nextDueDate"`
	LastGeneratedDate string      `json:"lastGeneratedDate,omitempty"`
	TotalGenerated    int         `json:"totalGenerated"`
	InvalidReason     string      `json:"invalidReason,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

type CreateRecurrenceDTO struct {
	Type         string      `json:"type" validate:"required,transaction_type"`
	Amount       rest.Amount `json:"amount" validate:"required,amount"`
	CategoryID   string      `json:"category"`
	Description  string      `json:"description"`
	Frequency    string      `json:"frequency" validate:"required,frequency"`
	CustomMonths int         `json:"customMonths" validate:"required_if=Frequency custom,gte=0"`
	StartDate    string      `json:"startDate" validate:"required"`
	EndDate      string      `json:"endDate"`
}

type UpdateRecurrenceDTO struct {
	Type         *string      `json:"type" validate:"omitempty,transaction_type"`
	Amount       *rest.Amount `json:"amount" validate:"omitempty,amount"`
	CategoryID   *string      `json:"category"`
	Description  *string      `json:"description"`
	Frequency    *string      `json:"frequency" validate:"omitempty,frequency"`
	CustomMonths *int         `json:"customMonths" validate:"omitempty,gte=1"`
	StartDate    *string      `json:"startDate"`
	// EndDate set to "" removes the end date.
	EndDate  *string `json:"endDate"`
	IsActive *bool   `json:"isActive"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(utils.DateLayout)
}

func toDTO(r Recurrence) RecurrenceDTO {
	return RecurrenceDTO{
		ID:                r.ID,
		BudgetID:          r.BudgetID,
		Type:              string(r.Type),
		Amount:            rest.Number(r.Amount),
		CategoryID:        r.CategoryID,
		Description:       r.Description,
		Frequency:         string(r.Frequency),
		CustomMonths:      r.CustomMonths,
		StartDate:         formatDate(r.StartDate),
		EndDate:           formatDate(r.EndDate),
		IsActive:          r.IsActive,
		NextDueDate:       formatDate(r.NextDueDate),
		LastGeneratedDate: formatDate(r.LastGeneratedDate),
		TotalGenerated:    r.TotalGenerated,
		InvalidReason:     r.InvalidReason,
		CreatedAt:         r.CreatedAt,
	}
}

func (dto CreateRecurrenceDTO) toDefinition() (Definition, error) {
	kind, err := money.ParseTransactionType(dto.Type)
	if err != nil {
		return Definition{}, err
	}
	amount, err := money.ParseAmount(dto.Amount.String())
	if err != nil {
		return Definition{}, err
	}
	start, err := rest.ParseTime(dto.StartDate)
	if err != nil {
		return Definition{}, err
	}
	end, err := rest.ParseTime(dto.EndDate)
	if err != nil {
		return Definition{}, err
	}
	return Definition{
		Type:         kind,
		Amount:       amount,
		CategoryID:   dto.CategoryID,
		Description:  dto.Description,
		Frequency:    Frequency(dto.Frequency),
		CustomMonths: dto.CustomMonths,
		StartDate:    start,
		EndDate:      end,
	}, nil
}

func (dto UpdateRecurrenceDTO) toPatch() (Patch, error) {
	patch := Patch{
		CategoryID:   dto.CategoryID,
		Description:  dto.Description,
		CustomMonths: dto.CustomMonths,
		IsActive:     dto.IsActive,
	}
	if dto.Type != nil {
		kind, err := money.ParseTransactionType(*dto.Type)
		if err != nil {
			return Patch{}, err
		}
		patch.Type = &kind
	}
	if dto.Amount != nil {
		amount, err := money.ParseAmount(dto.Amount.String())
		if err != nil {
			return Patch{}, err
		}
		patch.Amount = &amount
	}
	if dto.Frequency != nil {
		f := Frequency(*dto.Frequency)
		patch.Frequency = &f
	}
	if dto.StartDate != nil {
		start, err := rest.ParseTime(*dto.StartDate)
		if err != nil {
			return Patch{}, err
		}
		patch.StartDate = &start
	}
	if dto.EndDate != nil {
		if *dto.EndDate == "" {
			patch.ClearEndDate = true
		} else {
			end, err := rest.ParseTime(*dto.EndDate)
			if err != nil {
				return Patch{}, err
			}
			patch.EndDate = &end
		}
	}
	return patch, nil
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// ListRecurrences godoc
// @Summary List the recurrences of a budget
// @Description The principal lists the recurrences of every budget
// @Tags Recurrence
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Success 200 {array} RecurrenceDTO
// @Router /api/budgets/{budgetId}/recurrences [get]
func (handler *Handler) ListRecurrences(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing recurrences")
	recurrences, err := handler.service.List(r.Context(), mux.Vars(r)["budgetId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]RecurrenceDTO, 0, len(recurrences))
	for _, rec := range recurrences {
		dtos = append(dtos, toDTO(rec))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateRecurrence godoc
// @Summary Create a recurrence
// @Description The first occurrence is due on the start date
// @Tags Recurrence
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param recurrence body CreateRecurrenceDTO true "Recurrence"
// @Success 201 {object} RecurrenceDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 404 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/recurrences [post]
func (handler *Handler) CreateRecurrence(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating recurrence")
	var dto CreateRecurrenceDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	def, err := dto.toDefinition()
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	created, err := handler.service.Create(r.Context(), mux.Vars(r)["budgetId"], def)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toDTO(created))
}

// UpdateRecurrence godoc
// @Summary Change a recurrence
// @Description Changing the frequency or the start date reschedules the next occurrence
// @Tags Recurrence
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param recurrenceId path string true "Recurrence ID"
// @Param recurrence body UpdateRecurrenceDTO true "Changes"
// @Success 200 {object} RecurrenceDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 404 {object} rest.ErrorDTO
// @Router /api/budgets/{budgetId}/recurrences/{recurrenceId} [put]
func (handler *Handler) UpdateRecurrence(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating recurrence")
	vars := mux.Vars(r)
	var dto UpdateRecurrenceDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	patch, err := dto.toPatch()
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	updated, err := handler.service.Update(r.Context(), vars["budgetId"], vars["recurrenceId"], patch)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(updated))
}

// DeleteRecurrence godoc
// @Summary Delete a recurrence
// @Description Transactions it already generated are kept
// @Tags Recurrence
// @Param budgetId path string true "Budget ID"
// @Param recurrenceId path string true "Recurrence ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorDTO
// @Router /api/budgets/{budgetId}/recurrences/{recurrenceId} [delete]
func (handler *Handler) DeleteRecurrence(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting recurrence")
	vars := mux.Vars(r)
	if err := handler.service.Delete(r.Context(), vars["budgetId"], vars["recurrenceId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
