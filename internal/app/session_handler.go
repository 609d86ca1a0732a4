package app

import (
	"net/http"

	"github.com/monargent/monargent/internal/rest"
	"github.com/monargent/monargent/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type SkippedDTO struct {
	BudgetID     string `json:"budgetId"`
	RecurrenceID string `json:"recurrenceId"`
	Reason       string `json:"reason"`
}

type StartReportDTO struct {
	Recorded int          `json:"recorded"`
	Failed   int          `json:"failed"`
	Skipped  []SkippedDTO `json:"skipped"`
}

type SwitchBudgetDTO struct {
	ID string `json:"id" validate:"required"`
}

type SessionHandler struct {
	session *Session
}

func NewSessionHandler(session *Session) *SessionHandler {
	return &SessionHandler{session}
}

// ProcessRecurrences godoc
// @Summary Record every recurring transaction due today
// @Tags Recurrence
// @Produce json
// @Success 200 {object} StartReportDTO
// @Router /api/recurrences/process [post]
func (handler *SessionHandler) ProcessRecurrences(w http.ResponseWriter, r *http.Request) {
	log.Debug("Processing due recurrences")
	report, err := handler.session.Start(r.Context())
	if err != nil && len(report.Recorded) == 0 && report.Failed == 0 {
		rest.WriteError(w, err)
		return
	}
	dto := StartReportDTO{
		Recorded: len(report.Recorded),
		Failed:   report.Failed,
		Skipped:  make([]SkippedDTO, 0, len(report.Skipped)),
	}
	for _, s := range report.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedDTO{BudgetID: s.BudgetID, RecurrenceID: s.RecurrenceID, Reason: s.Reason})
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// SwitchBudget godoc
// @Summary Make a budget the active one
// @Tags Budget
// @Accept json
// @Produce json
// @Param budget body SwitchBudgetDTO true "Budget to activate"
// @Success 200 {object} budget.BudgetDTO
// @Failure 404 {object} rest.ErrorDTO
// @Router /api/budgets/active [put]
func (handler *SessionHandler) SwitchBudget(w http.ResponseWriter, r *http.Request) {
	var dto SwitchBudgetDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := handler.session.Switch(r.Context(), dto.ID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, budget.ToDTO(b, b.ID))
}
