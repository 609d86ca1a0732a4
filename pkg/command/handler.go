package command

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/rest"
	"github.com/monargent/monargent/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

type TransactionAdder interface {
	AddTransaction(ctx context.Context, budgetID string, draft ledger.Draft) (ledger.Transaction, error)
}

type CommandDTO struct {
	Text string `json:"text" validate:"required"`
	// DryRun parses the command without recording it.
	DryRun bool `json:"dryRun"`
}

type CommandResultDTO struct {
	Type          string      `json:"type"`
	Amount        json.Number `json:"amount"`
	Description   string      `json:"description"`
	CategoryID    string      `json:"category"`
	TransactionID string      `json:"transactionId,omitempty"`
	Date          *time.Time  `json:"date,omitempty"`
}

type Handler struct {
	parser *Parser
	ledger TransactionAdder
}

func NewHandler(parser *Parser, ledger TransactionAdder) *Handler {
	return &Handler{parser: parser, ledger: ledger}
}

// ExecuteCommand godoc
// @Summary Record a transaction from a sentence
// @Description Parses a French sentence such as "dépense 25 euros courses" and adds the transaction
// @Tags Command
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param command body CommandDTO true "Command"
// @Success 201 {object} CommandResultDTO
// @Success 200 {object} CommandResultDTO "Dry run"
// @Failure 400 {object} rest.ErrorDTO "Not understood"
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/commands [post]
func (handler *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	log.Debug("Executing command")
	var dto CommandDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	candidate, err := handler.parser.Parse(dto.Text)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	result := CommandResultDTO{
		Type:        string(candidate.Type),
		Amount:      rest.Number(candidate.Amount),
		Description: candidate.Description,
		CategoryID:  candidate.CategoryID,
	}
	if dto.DryRun {
		rest.WriteJSON(w, http.StatusOK, result)
		return
	}

	t, err := handler.ledger.AddTransaction(r.Context(), mux.Vars(r)["budgetId"], candidate.ToDraft())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	result.TransactionID = t.ID
	result.Date = &t.Date
	rest.WriteJSON(w, http.StatusCreated, result)
}
