package backup

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/event_bus"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/category"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/money"
	"github.com/monargent/monargent/pkg/recurrence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

type fixture struct {
	service     *Service
	budgets     *budget.ServiceImpl
	ledger      *ledger.ServiceImpl
	recurrences *recurrence.ServiceImpl
	categories  *category.ServiceImpl
}

func setup(t *testing.T) fixture {
	store := docstore.NewMemoryStore()
	bus := event_bus.NewEventBus()
	clock := &utils.MockClock{FixedNow: time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)}
	budgets := budget.NewService(budget.NewRepository(store), bus, clock)
	categories := category.NewService(category.NewRepository(store), bus, nil)
	ledgerService := ledger.NewService(ledger.NewRepository(store), budgets, clock, decimal.Zero)
	recurrences := recurrence.NewService(recurrence.NewRepository(store), budgets, clock)
	return fixture{
		service:     NewService(budgets, ledgerService, recurrences, categories, clock),
		budgets:     budgets,
		ledger:      ledgerService,
		recurrences: recurrences,
		categories:  categories,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var errDiskFull = errors.New("disk full")

type failingLedger struct {
	*ledger.ServiceImpl
}

func (failingLedger) Replace(context.Context, string, decimal.Decimal, []ledger.Transaction) error {
	return errDiskFull
}

type failingRecurrences struct {
	*recurrence.ServiceImpl
}

func (failingRecurrences) Replace(context.Context, string, []recurrence.Recurrence) error {
	return errDiskFull
}

func seed(t *testing.T, f fixture, budgetID string) {
	_, err := f.ledger.AddTransaction(ctx, budgetID, ledger.Draft{
		Type: money.Income, Amount: decimal.RequireFromString("2000"), CategoryID: "salary",
		Description: "Salaire", Date: day(2024, 4, 1),
	})
	require.NoError(t, err)
	_, err = f.ledger.AddTransaction(ctx, budgetID, ledger.Draft{
		Type: money.Expense, Amount: decimal.RequireFromString("45.50"), CategoryID: "restaurant",
		Description: "Resto, midi", Date: day(2024, 4, 10),
	})
	require.NoError(t, err)
}

func TestService_ExportJSON(t *testing.T) {
	f := setup(t)

	// given
	seed(t, f, budget.DefaultID)
	require.NoError(t, f.ledger.SetInitialBalance(ctx, budget.DefaultID, decimal.RequireFromString("100")))
	_, err := f.recurrences.Create(ctx, budget.DefaultID, recurrence.Definition{
		Type: money.Expense, Amount: decimal.RequireFromString("1200"), CategoryID: "housing",
		Description: "Loyer", Frequency: recurrence.Monthly, StartDate: day(2024, 5, 1),
	})
	require.NoError(t, err)

	// when
	data, err := f.service.ExportJSON(ctx, budget.DefaultID)

	// then
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2.0.0", doc["version"])
	assert.Equal(t, "2024-04-15T10:00:00Z", doc["exportDate"])
	assert.Equal(t, float64(100), doc["initialBalance"])

	transactions := doc["transactions"].([]any)
	require.Len(t, transactions, 2)
	newest := transactions[0].(map[string]any)
	assert.Equal(t, 45.5, newest["amount"])
	assert.Equal(t, "expense", newest["type"])
	assert.Equal(t, "restaurant", newest["category"])

	recurrences := doc["recurrences"].([]any)
	require.Len(t, recurrences, 1)
	rent := recurrences[0].(map[string]any)
	assert.Equal(t, "2024-05-01", rent["startDate"])
	assert.Equal(t, "2024-05-01", rent["nextDueDate"])
	assert.Equal(t, float64(1200), rent["amount"])

	assert.Len(t, doc["categories"].([]any), len(category.DefaultCategories))
}

func TestService_ImportJSON(t *testing.T) {
	t.Run("should restore an export into another budget", func(t *testing.T) {
		f := setup(t)

		// given
		seed(t, f, budget.DefaultID)
		require.NoError(t, f.ledger.SetInitialBalance(ctx, budget.DefaultID, decimal.RequireFromString("100")))
		_, err := f.recurrences.Create(ctx, budget.DefaultID, recurrence.Definition{
			Type: money.Expense, Amount: decimal.RequireFromString("1200"), CategoryID: "housing",
			Description: "Loyer", Frequency: recurrence.Monthly, StartDate: day(2024, 5, 1),
		})
		require.NoError(t, err)
		data, err := f.service.ExportJSON(ctx, budget.DefaultID)
		require.NoError(t, err)
		other, err := f.budgets.Create(ctx, "Copie", "")
		require.NoError(t, err)

		// when
		summary, err := f.service.ImportJSON(ctx, other.ID, data)

		// then
		require.NoError(t, err)
		assert.Equal(t, Summary{Transactions: 2, Recurrences: 1, CategoriesAdded: 0}, summary)
		balance, err := f.ledger.GetBalance(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "2054.5", balance.String())
		recurrences, err := f.recurrences.List(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, recurrences, 1)
		assert.Equal(t, other.ID, recurrences[0].BudgetID)
		assert.Equal(t, day(2024, 5, 1), recurrences[0].NextDueDate)
	})

	t.Run("should read legacy 1.x files", func(t *testing.T) {
		f := setup(t)

		// given
		data := []byte(`{
			"version": "1.0",
			"initialBalance": 50,
			"transactions": [
				{"id": "1", "type": "credit", "amount": 1500, "category": "Salaire", "description": "Paie", "date": "2023-12-01T09:00:00.000Z"},
				{"id": "2", "type": "debit", "amount": "12.5", "category": "Animaux", "description": "Croquettes", "date": "2023-12-03"}
			],
			"categories": []
		}`)

		// when
		summary, err := f.service.ImportJSON(ctx, budget.DefaultID, data)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Transactions)
		assert.Equal(t, 1, summary.CategoriesAdded)
		balance, err := f.ledger.GetBalance(ctx, budget.DefaultID)
		require.NoError(t, err)
		assert.Equal(t, "1537.5", balance.String())

		page, err := f.ledger.GetTransactions(ctx, budget.DefaultID, ledger.Filters{})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, money.Expense, page.Items[0].Type)
		assert.Equal(t, money.Income, page.Items[1].Type)
		assert.Equal(t, "salary", page.Items[1].CategoryID)

		categories, err := f.categories.List(ctx, money.Expense)
		require.NoError(t, err)
		idx := slices.IndexFunc(categories, func(c category.Category) bool { return c.Name == "Animaux" })
		require.NotEqual(t, -1, idx)
		assert.Equal(t, categories[idx].ID, page.Items[0].CategoryID)
	})

	t.Run("should leave the budget untouched when a check fails", func(t *testing.T) {
		f := setup(t)

		// given
		seed(t, f, budget.DefaultID)
		before, err := f.categories.List(ctx, "")
		require.NoError(t, err)

		payloads := []string{
			`not json`,
			`{"transactions": []}`,
			`{"version": "3.0.0", "transactions": []}`,
			`{"version": "2.0.0"}`,
			`{"version": "2.0.0", "transactions": {}}`,
			`{"version": "2.0.0", "transactions": [{"type": "expense", "amount": 0}]}`,
			`{"version": "2.0.0", "transactions": [{"type": "gift", "amount": 5}]}`,
			`{"version": "2.0.0", "transactions": [{"type": "expense", "amount": 5, "category": "Nouvelle"}, {"type": "expense", "amount": -5}]}`,
			`{"version": "2.0.0", "transactions": [], "recurrences": [{"type": "expense", "amount": 5, "frequency": "custom", "startDate": "2024-01-01"}]}`,
		}

		for _, payload := range payloads {
			// when
			_, err := f.service.ImportJSON(ctx, budget.DefaultID, []byte(payload))

			// then
			assert.ErrorIs(t, err, domainerr.ErrValidation, payload)
		}
		balance, err := f.ledger.GetBalance(ctx, budget.DefaultID)
		require.NoError(t, err)
		assert.Equal(t, "1954.5", balance.String())
		after, err := f.categories.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("should keep the day of a transaction entered with an offset", func(t *testing.T) {
		f := setup(t)

		// given
		_, err := f.ledger.AddTransaction(ctx, budget.DefaultID, ledger.Draft{
			Type: money.Expense, Amount: decimal.RequireFromString("9"), Description: "taxi",
			Date: time.Date(2024, 4, 1, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*60*60)),
		})
		require.NoError(t, err)
		data, err := f.service.ExportJSON(ctx, budget.DefaultID)
		require.NoError(t, err)
		other, err := f.budgets.Create(ctx, "Copie", "")
		require.NoError(t, err)

		// when
		_, err = f.service.ImportJSON(ctx, other.ID, data)

		// then
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "2024-04-01T00:30:00+02:00", doc["transactions"].([]any)[0].(map[string]any)["date"])
		page, err := f.ledger.GetTransactions(ctx, other.ID, ledger.Filters{From: day(2024, 4, 1), To: day(2024, 4, 1)})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, day(2024, 4, 1), utils.DateOf(page.Items[0].Date))
	})

	t.Run("should change nothing when the recurrences cannot be stored", func(t *testing.T) {
		f := setup(t)

		// given
		seed(t, f, budget.DefaultID)
		service := NewService(f.budgets, f.ledger, failingRecurrences{f.recurrences}, f.categories, &utils.MockClock{})
		data := []byte(`{"version": "2.0.0", "transactions": [{"type": "expense", "amount": 5}]}`)

		// when
		_, err := service.ImportJSON(ctx, budget.DefaultID, data)

		// then
		assert.ErrorIs(t, err, errDiskFull)
		balance, err := f.ledger.GetBalance(ctx, budget.DefaultID)
		require.NoError(t, err)
		assert.Equal(t, "1954.5", balance.String())
	})

	t.Run("should put the recurrences back when the transactions cannot be stored", func(t *testing.T) {
		f := setup(t)

		// given
		_, err := f.recurrences.Create(ctx, budget.DefaultID, recurrence.Definition{
			Type: money.Expense, Amount: decimal.RequireFromString("1200"), CategoryID: "housing",
			Description: "Loyer", Frequency: recurrence.Monthly, StartDate: day(2024, 5, 1),
		})
		require.NoError(t, err)
		service := NewService(f.budgets, failingLedger{f.ledger}, f.recurrences, f.categories, &utils.MockClock{})
		data := []byte(`{"version": "2.0.0", "transactions": [], "recurrences": [
			{"type": "expense", "amount": 15, "frequency": "weekly", "description": "Piscine", "startDate": "2024-04-01"}
		]}`)

		// when
		_, err = service.ImportJSON(ctx, budget.DefaultID, data)

		// then
		assert.ErrorIs(t, err, errDiskFull)
		recurrences, err := f.recurrences.List(ctx, budget.DefaultID)
		require.NoError(t, err)
		require.Len(t, recurrences, 1)
		assert.Equal(t, "Loyer", recurrences[0].Description)
		assert.Equal(t, day(2024, 5, 1), recurrences[0].NextDueDate)
	})

	t.Run("should refuse the principal and unknown budgets", func(t *testing.T) {
		f := setup(t)
		data := []byte(`{"version": "2.0.0", "transactions": []}`)

		_, errPrincipal := f.service.ImportJSON(ctx, budget.PrincipalID, data)
		_, errUnknown := f.service.ImportJSON(ctx, "nope", data)

		assert.ErrorIs(t, errPrincipal, domainerr.ErrInvalidOperation)
		assert.ErrorIs(t, errUnknown, domainerr.ErrNotFound)
	})
}

func TestService_ExportCSV(t *testing.T) {
	f := setup(t)

	// given
	seed(t, f, budget.DefaultID)

	// when
	data, err := f.service.ExportCSV(ctx, budget.DefaultID)

	// then
	require.NoError(t, err)
	expected := "Date,Type,Amount,Category,Description,Recurring\n" +
		"10/04/2024,expense,45.50,Restaurant,\"Resto, midi\",no\n" +
		"01/04/2024,income,2000.00,Salaire,Salaire,no\n"
	assert.Equal(t, expected, string(data))
}
