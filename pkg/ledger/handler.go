package ledger

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/rest"
	"github.com/monargent/monargent/pkg/money"
	log "github.com/sirupsen/logrus"
)

type TransactionDTO struct {
	ID           string      `json:"id"`
	BudgetID     string      `json:"budgetId"`
	Type         string      `json:"type"`
	Amount       json.Number `json:"amount"`
	CategoryID   string      `json:"category"`
	Description  string      `json:"description"`
	Date         time.Time   `json:"date"`
	IsRecurring  bool        `json:"isRecurring"`
	RecurrenceID string      `json:"recurrenceId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	BudgetName   string      `json:"budgetName,omitempty"`
	BudgetIcon   string      `json:"budgetIcon,omitempty"`
}

type PageDTO struct {
	Items []TransactionDTO `json:"items"`
	Total int              `json:"total"`
}

type CreateTransactionDTO struct {
	Type        string      `json:"type" validate:"required,transaction_type"`
	Amount      rest.Amount `json:"amount" validate:"required,amount"`
	CategoryID  string      `json:"category"`
	Description string      `json:"description"`
	// Date is YYYY-MM-DD or RFC 3339; empty means now.
	Date string `json:"date"`
}

type UpdateTransactionDTO struct {
	Type        *string      `json:"type" validate:"omitempty,transaction_type"`
	Amount      *rest.Amount `json:"amount" validate:"omitempty,amount"`
	CategoryID  *string      `json:"category"`
	Description *string      `json:"description"`
	Date        *string      `json:"date"`
}

type BalanceDTO struct {
	BudgetID       string      `json:"budgetId"`
	Balance        json.Number `json:"balance"`
	InitialBalance json.Number `json:"initialBalance"`
}

type InitialBalanceDTO struct {
	Amount rest.Amount `json:"amount" validate:"required"`
}

type StatsDTO struct {
	Period           string      `json:"period"`
	Income           json.Number `json:"income"`
	Expenses         json.Number `json:"expenses"`
	Balance          json.Number `json:"balance"`
	TransactionCount int         `json:"transactionCount"`
}

type CategoryUsageDTO struct {
	CategoryID string      `json:"category"`
	Count      int         `json:"count"`
	Total      json.Number `json:"total"`
}

func toTransactionDTO(e Entry) TransactionDTO {
	return TransactionDTO{
		ID:           e.ID,
		BudgetID:     e.BudgetID,
		Type:         string(e.Type),
		Amount:       rest.Number(e.Amount),
		CategoryID:   e.CategoryID,
		Description:  e.Description,
		Date:         e.Date,
		IsRecurring:  e.IsRecurring,
		RecurrenceID: e.RecurrenceID,
		CreatedAt:    e.CreatedAt,
		BudgetName:   e.BudgetName,
		BudgetIcon:   e.BudgetIcon,
	}
}

func (dto CreateTransactionDTO) toDraft() (Draft, error) {
	kind, err := money.ParseTransactionType(dto.Type)
	if err != nil {
		return Draft{}, err
	}
	amount, err := money.ParseAmount(dto.Amount.String())
	if err != nil {
		return Draft{}, err
	}
	date, err := rest.ParseTime(dto.Date)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Type: kind, Amount: amount, CategoryID: dto.CategoryID, Description: dto.Description, Date: date}, nil
}

func (dto UpdateTransactionDTO) toPatch() (Patch, error) {
	patch := Patch{CategoryID: dto.CategoryID, Description: dto.Description}
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
	if dto.Date != nil {
		date, err := rest.ParseTime(*dto.Date)
		if err != nil {
			return Patch{}, err
		}
		patch.Date = &date
	}
	return patch, nil
}

func filtersFrom(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	f := Filters{Search: q.Get("search"), CategoryID: q.Get("category")}
	var err error
	if t := q.Get("type"); t != "" {
		if f.Type, err = money.ParseTransactionType(t); err != nil {
			return Filters{}, err
		}
	}
	if f.From, err = rest.ParseTime(q.Get("from")); err != nil {
		return Filters{}, err
	}
	if f.To, err = rest.ParseTime(q.Get("to")); err != nil {
		return Filters{}, err
	}
	if f.Offset, err = rest.QueryInt(q.Get("offset")); err != nil {
		return Filters{}, err
	}
	if f.Limit, err = rest.QueryInt(q.Get("limit")); err != nil {
		return Filters{}, err
	}
	return f, nil
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// ListTransactions godoc
// @Summary List the transactions of a budget
// @Description The principal lists every budget's transactions tagged with their budget. Most recent first.
// @Tags Transaction
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param search query string false "Description substring"
// @Param type query string false "income or expense"
// @Param category query string false "Category ID"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Param offset query int false "Offset"
// @Param limit query int false "Page size"
// @Success 200 {object} PageDTO
// @Failure 400 {object} rest.ErrorDTO
// @Router /api/budgets/{budgetId}/transactions [get]
func (handler *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing transactions")
	filters, err := filtersFrom(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	page, err := handler.service.GetTransactions(r.Context(), mux.Vars(r)["budgetId"], filters)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dto := PageDTO{Items: make([]TransactionDTO, 0, len(page.Items)), Total: page.Total}
	for _, e := range page.Items {
		dto.Items = append(dto.Items, toTransactionDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// AddTransaction godoc
// @Summary Add a transaction
// @Tags Transaction
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param transaction body CreateTransactionDTO true "Transaction"
// @Success 201 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 404 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/transactions [post]
func (handler *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding transaction")
	var dto CreateTransactionDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	draft, err := dto.toDraft()
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	t, err := handler.service.AddTransaction(r.Context(), mux.Vars(r)["budgetId"], draft)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toTransactionDTO(Entry{Transaction: t}))
}

// UpdateTransaction godoc
// @Summary Change a transaction
// @Tags Transaction
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param transactionId path string true "Transaction ID"
// @Param transaction body UpdateTransactionDTO true "Changes"
// @Success 200 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 404 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/transactions/{transactionId} [put]
func (handler *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating transaction")
	vars := mux.Vars(r)
	var dto UpdateTransactionDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	patch, err := dto.toPatch()
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	t, err := handler.service.UpdateTransaction(r.Context(), vars["budgetId"], vars["transactionId"], patch)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTransactionDTO(Entry{Transaction: t}))
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Tags Transaction
// @Param budgetId path string true "Budget ID"
// @Param transactionId path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/transactions/{transactionId} [delete]
func (handler *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting transaction")
	vars := mux.Vars(r)
	if err := handler.service.DeleteTransaction(r.Context(), vars["budgetId"], vars["transactionId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance godoc
// @Summary Get the balance of a budget
// @Tags Transaction
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Success 200 {object} BalanceDTO
// @Router /api/budgets/{budgetId}/balance [get]
func (handler *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	budgetID := mux.Vars(r)["budgetId"]
	balance, err := handler.service.GetBalance(r.Context(), budgetID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	initial, err := handler.service.InitialBalance(r.Context(), budgetID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BalanceDTO{BudgetID: budgetID, Balance: rest.Number(balance), InitialBalance: rest.Number(initial)})
}

// SetInitialBalance godoc
// @Summary Set the initial balance of a budget
// @Description Any sign is accepted
// @Tags Transaction
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param balance body InitialBalanceDTO true "Initial balance"
// @Success 200 {object} BalanceDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/initial-balance [put]
func (handler *Handler) SetInitialBalance(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting initial balance")
	var dto InitialBalanceDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	amount, err := rest.Decimal(dto.Amount)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	if err := handler.service.SetInitialBalance(r.Context(), mux.Vars(r)["budgetId"], amount); err != nil {
		rest.WriteError(w, err)
		return
	}
	handler.GetBalance(w, r)
}

// GetStats godoc
// @Summary Get income and expense totals over a period
// @Tags Transaction
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param period query string false "today, week, month, year or all" default(all)
// @Success 200 {object} StatsDTO
// @Failure 400 {object} rest.ErrorDTO
// @Router /api/budgets/{budgetId}/stats [get]
func (handler *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	period := Period(r.URL.Query().Get("period"))
	if period == "" {
		period = PeriodAll
	}
	stats, err := handler.service.GetStats(r.Context(), mux.Vars(r)["budgetId"], period)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, StatsDTO{
		Period:           string(period),
		Income:           rest.Number(stats.Income),
		Expenses:         rest.Number(stats.Expenses),
		Balance:          rest.Number(stats.Balance),
		TransactionCount: stats.TransactionCount,
	})
}

// GetCategoryUsage godoc
// @Summary Count and total of transactions per category
// @Tags Transaction
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Success 200 {array} CategoryUsageDTO
// @Router /api/budgets/{budgetId}/category-usage [get]
func (handler *Handler) GetCategoryUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := handler.service.CategoryUsage(r.Context(), mux.Vars(r)["budgetId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]CategoryUsageDTO, 0, len(usage))
	for _, u := range usage {
		dtos = append(dtos, CategoryUsageDTO{CategoryID: u.CategoryID, Count: u.Count, Total: rest.Number(u.Total)})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}
