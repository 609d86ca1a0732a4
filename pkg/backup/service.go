// Package backup exports a budget to JSON or CSV and restores it from a JSON
// export, including the 1.x files written before recurrences existed.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/category"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/money"
	"github.com/monargent/monargent/pkg/recurrence"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrPrincipalImport = domainerr.New(domainerr.ErrInvalidOperation, "cannot import into the principal budget")

type BudgetDirectory interface {
	Get(ctx context.Context, id string) (budget.Budget, error)
}

type Ledger interface {
	InitialBalance(ctx context.Context, budgetID string) (decimal.Decimal, error)
	GetTransactions(ctx context.Context, budgetID string, filters ledger.Filters) (ledger.Page, error)
	Replace(ctx context.Context, budgetID string, initialBalance decimal.Decimal, transactions []ledger.Transaction) error
}

type Recurrences interface {
	List(ctx context.Context, budgetID string) ([]recurrence.Recurrence, error)
	Replace(ctx context.Context, budgetID string, recurrences []recurrence.Recurrence) error
}

type Categories interface {
	List(ctx context.Context, t money.TransactionType) ([]category.Category, error)
	Resolve(ctx context.Context, ref string, t money.TransactionType) (category.Category, error)
}

// Summary counts what an import restored.
type Summary struct {
	Transactions int
	Recurrences  int
	// CategoriesAdded counts categories unknown before the import.
	CategoriesAdded int
}

type Service struct {
	budgets     BudgetDirectory
	ledger      Ledger
	recurrences Recurrences
	categories  Categories
	clock       utils.Clock
}

func NewService(budgets BudgetDirectory, ledger Ledger, recurrences Recurrences, categories Categories, clock utils.Clock) *Service {
	return &Service{budgets: budgets, ledger: ledger, recurrences: recurrences, categories: categories, clock: clock}
}

func (s *Service) ExportJSON(ctx context.Context, budgetID string) ([]byte, error) {
	initial, err := s.ledger.InitialBalance(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	page, err := s.ledger.GetTransactions(ctx, budgetID, ledger.Filters{})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx, "")
	if err != nil {
		return nil, err
	}
	recurrences, err := s.recurrences.List(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	doc := exportDocument{
		Version:        Version,
		ExportDate:     s.clock.Now().UTC(),
		InitialBalance: json.Number(initial.String()),
		Transactions:   make([]transactionRecord, 0, len(page.Items)),
		Categories:     make([]categoryRecord, 0, len(categories)),
		Recurrences:    make([]recurrenceRecord, 0, len(recurrences)),
	}
	for _, e := range page.Items {
		doc.Transactions = append(doc.Transactions, transactionRecord{
			ID:           e.ID,
			Type:         string(e.Type),
			Amount:       json.Number(e.Amount.String()),
			Category:     e.CategoryID,
			Description:  e.Description,
			Date:         e.Date.Format(time.RFC3339),
			IsRecurring:  e.IsRecurring,
			RecurrenceID: e.RecurrenceID,
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
			Budget:       e.BudgetName,
		})
	}
	for _, c := range categories {
		doc.Categories = append(doc.Categories, categoryRecord{ID: c.ID, Name: c.Name, Icon: c.Icon, Type: string(c.Type)})
	}
	for _, r := range recurrences {
		active := r.IsActive
		doc.Recurrences = append(doc.Recurrences, recurrenceRecord{
			ID:                r.ID,
			Type:              string(r.Type),
			Amount:            json.Number(r.Amount.String()),
			Category:          r.CategoryID,
			Description:       r.Description,
			Frequency:         string(r.Frequency),
			CustomMonths:      r.CustomMonths,
			StartDate:         formatDate(r.StartDate),
			EndDate:           formatDate(r.EndDate),
			IsActive:          &active,
			NextDueDate:       formatDate(r.NextDueDate),
			LastGeneratedDate: formatDate(r.LastGeneratedDate),
			TotalGenerated:    r.TotalGenerated,
			CreatedAt:         r.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Errorf("failed to encode export of budget %s: %v", budgetID, err)
		return nil, err
	}
	return data, nil
}

// ImportJSON replaces the budget's transactions, initial balance and
// recurrences with the content of an export. The whole file is checked first;
// when a check fails nothing is changed. When the transactions cannot be
// stored the previous recurrences are put back; categories added on the way
// are kept.
func (s *Service) ImportJSON(ctx context.Context, budgetID string, data []byte) (Summary, error) {
	if budget.IsPrincipal(budgetID) {
		return Summary{}, ErrPrincipalImport
	}
	if _, err := s.budgets.Get(ctx, budgetID); err != nil {
		return Summary{}, err
	}

	plan, err := s.check(data)
	if err != nil {
		log.Debugf("import into budget %s rejected: %v", budgetID, err)
		return Summary{}, err
	}
	initial := plan.initialBalance
	if !plan.hasInitialBalance {
		if initial, err = s.ledger.InitialBalance(ctx, budgetID); err != nil {
			return Summary{}, err
		}
	}

	known, err := s.categories.List(ctx, "")
	if err != nil {
		return Summary{}, err
	}
	resolver := newCategoryResolver(s.categories, known, plan.categories)
	for _, c := range plan.categories {
		kind, err := money.ParseTransactionType(c.Type)
		if err != nil {
			kind = money.Expense
		}
		ref := c.ID
		if ref == "" {
			ref = c.Name
		}
		if _, err := resolver.resolve(ctx, ref, kind); err != nil {
			return Summary{}, err
		}
	}
	for i := range plan.transactions {
		t := &plan.transactions[i]
		if t.CategoryID, err = resolver.resolve(ctx, t.CategoryID, t.Type); err != nil {
			return Summary{}, err
		}
	}
	for i := range plan.recurrences {
		r := &plan.recurrences[i]
		if r.CategoryID, err = resolver.resolve(ctx, r.CategoryID, r.Type); err != nil {
			return Summary{}, err
		}
	}
	after, err := s.categories.List(ctx, "")
	if err != nil {
		return Summary{}, err
	}

	previous, err := s.recurrences.List(ctx, budgetID)
	if err != nil {
		return Summary{}, err
	}
	if err := s.recurrences.Replace(ctx, budgetID, plan.recurrences); err != nil {
		log.Errorf("failed to restore recurrences of budget %s: %v", budgetID, err)
		return Summary{}, err
	}
	if err := s.ledger.Replace(ctx, budgetID, initial, plan.transactions); err != nil {
		log.Errorf("failed to restore transactions of budget %s: %v", budgetID, err)
		if rollbackErr := s.recurrences.Replace(ctx, budgetID, previous); rollbackErr != nil {
			log.Errorf("failed to put back the recurrences of budget %s: %v", budgetID, rollbackErr)
			return Summary{}, errors.Join(err, rollbackErr)
		}
		return Summary{}, err
	}

	summary := Summary{
		Transactions:    len(plan.transactions),
		Recurrences:     len(plan.recurrences),
		CategoriesAdded: len(after) - len(known),
	}
	log.Infof("imported %d transaction(s) and %d recurrence(s) into budget %s",
		summary.Transactions, summary.Recurrences, budgetID)
	return summary, nil
}

type importPlan struct {
	initialBalance    decimal.Decimal
	hasInitialBalance bool
	transactions      []ledger.Transaction
	recurrences       []recurrence.Recurrence
	categories        []categoryRecord
}

func (s *Service) check(data []byte) (importPlan, error) {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return importPlan{}, domainerr.Validation("file is not a valid export: %v", err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return importPlan{}, err
	}
	raw := strings.TrimSpace(string(doc.Transactions))
	if raw == "" || raw == "null" {
		return importPlan{}, domainerr.Validation("file has no transactions list")
	}
	var records []transactionRecord
	if !strings.HasPrefix(raw, "[") || json.Unmarshal(doc.Transactions, &records) != nil {
		return importPlan{}, domainerr.Validation("transactions must be a list of transactions")
	}

	plan := importPlan{
		transactions: make([]ledger.Transaction, 0, len(records)),
		recurrences:  make([]recurrence.Recurrence, 0, len(doc.Recurrences)),
		categories:   doc.Categories,
	}
	if doc.InitialBalance != nil {
		initial, err := decimal.NewFromString(doc.InitialBalance.String())
		if err != nil {
			return importPlan{}, domainerr.Validation("initial balance %q is not a number", doc.InitialBalance.String())
		}
		plan.initialBalance, plan.hasInitialBalance = initial, true
	}

	now := s.clock.Now()
	for i, rec := range records {
		t, err := rec.toTransaction(now)
		if err != nil {
			return importPlan{}, domainerr.Validation("transaction %d: %v", i+1, err)
		}
		plan.transactions = append(plan.transactions, t)
	}
	for i, rec := range doc.Recurrences {
		r, err := rec.toRecurrence(now)
		if err != nil {
			return importPlan{}, domainerr.Validation("recurrence %d: %v", i+1, err)
		}
		plan.recurrences = append(plan.recurrences, r)
	}
	return plan, nil
}

func checkVersion(version string) error {
	if version == "" {
		return domainerr.Validation("file has no version")
	}
	switch strings.SplitN(version, ".", 2)[0] {
	case "1", "2":
		return nil
	}
	return domainerr.Validation("unsupported export version %q", version)
}

func (rec transactionRecord) toTransaction(now time.Time) (ledger.Transaction, error) {
	kind, err := money.ParseTransactionType(rec.Type)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("%w %q", err, rec.Type)
	}
	amount, err := money.ParseAmount(rec.Amount.String())
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("amount %q must be a positive number", rec.Amount.String())
	}
	date, err := parseTime(rec.Date)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("invalid date %q", rec.Date)
	}
	created, err := parseTime(rec.CreatedAt)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("invalid creation time %q", rec.CreatedAt)
	}
	if created.IsZero() {
		created = now
	}
	if date.IsZero() {
		date = created
	}
	return ledger.Transaction{
		ID:           rec.ID,
		Type:         kind,
		Amount:       amount,
		CategoryID:   rec.Category,
		Description:  rec.Description,
		Date:         date,
		IsRecurring:  rec.IsRecurring || rec.RecurrenceID != "",
		RecurrenceID: rec.RecurrenceID,
		CreatedAt:    created,
	}, nil
}

func (rec recurrenceRecord) toRecurrence(now time.Time) (recurrence.Recurrence, error) {
	kind, err := money.ParseTransactionType(rec.Type)
	if err != nil {
		return recurrence.Recurrence{}, fmt.Errorf("%w %q", err, rec.Type)
	}
	amount, err := money.ParseAmount(rec.Amount.String())
	if err != nil {
		return recurrence.Recurrence{}, fmt.Errorf("amount %q must be a positive number", rec.Amount.String())
	}
	frequency := recurrence.Frequency(rec.Frequency)
	if !frequency.Valid() {
		return recurrence.Recurrence{}, fmt.Errorf("unknown frequency %q", rec.Frequency)
	}
	if frequency == recurrence.Custom && rec.CustomMonths < 1 {
		return recurrence.Recurrence{}, fmt.Errorf("custom frequency needs at least 1 month")
	}

	r := recurrence.Recurrence{
		ID:             rec.ID,
		Type:           kind,
		Amount:         amount,
		CategoryID:     rec.Category,
		Description:    rec.Description,
		Frequency:      frequency,
		CustomMonths:   rec.CustomMonths,
		IsActive:       rec.IsActive == nil || *rec.IsActive,
		TotalGenerated: rec.TotalGenerated,
		CreatedAt:      now,
	}
	dates := []struct {
		value  string
		target *time.Time
	}{
		{rec.StartDate, &r.StartDate},
		{rec.EndDate, &r.EndDate},
		{rec.NextDueDate, &r.NextDueDate},
		{rec.LastGeneratedDate, &r.LastGeneratedDate},
		{rec.CreatedAt, &r.CreatedAt},
	}
	for _, d := range dates {
		if d.value == "" {
			continue
		}
		parsed, err := parseTime(d.value)
		if err != nil {
			return recurrence.Recurrence{}, fmt.Errorf("invalid date %q", d.value)
		}
		*d.target = parsed
	}
	if r.StartDate.IsZero() {
		return recurrence.Recurrence{}, fmt.Errorf("missing start date")
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(utils.DateOf(r.StartDate)) {
		return recurrence.Recurrence{}, fmt.Errorf("end date is before start date")
	}
	return r, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", utils.DateLayout}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(utils.DateLayout)
}

// categoryResolver maps the category references of an import onto the
// directory, adding the categories it does not know yet.
type categoryResolver struct {
	categories Categories
	// names maps the ids of the file's categories to their names.
	names    map[string]string
	resolved map[string]string
}

func newCategoryResolver(categories Categories, known []category.Category, records []categoryRecord) *categoryResolver {
	names := make(map[string]string, len(records))
	for _, c := range records {
		if c.ID != "" && c.Name != "" {
			names[c.ID] = c.Name
		}
	}
	resolved := make(map[string]string, len(known))
	for _, c := range known {
		resolved[c.ID] = c.ID
	}
	return &categoryResolver{categories: categories, names: names, resolved: resolved}
}

func (r *categoryResolver) resolve(ctx context.Context, ref string, t money.TransactionType) (string, error) {
	if id, ok := r.resolved[ref]; ok {
		return id, nil
	}
	lookup := ref
	if name, ok := r.names[ref]; ok {
		lookup = name
	}
	c, err := r.categories.Resolve(ctx, lookup, t)
	if err != nil {
		return "", fmt.Errorf("failed to resolve category %q: %w", ref, err)
	}
	r.resolved[ref] = c.ID
	return c.ID, nil
}
