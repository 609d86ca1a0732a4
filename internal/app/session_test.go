package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/monargent/monargent/internal/config"
	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/money"
	"github.com/monargent/monargent/pkg/recurrence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSession(t *testing.T) (*Dependencies, *utils.MockClock) {
	clock := &utils.MockClock{FixedNow: time.Date(2024, 4, 15, 9, 30, 0, 0, time.Local)}
	deps, err := BuildDependencies(docstore.NewMemoryStore(), config.Default(), clock)
	require.NoError(t, err)
	return deps, clock
}

func TestSession_Start(t *testing.T) {
	t.Run("should record every due occurrence in its budget", func(t *testing.T) {
		// given
		deps, _ := setupSession(t)
		ctx := context.Background()
		_, err := deps.RecurrenceService.Create(ctx, budget.DefaultID, recurrence.Definition{
			Type:        money.Income,
			Amount:      decimal.NewFromInt(1200),
			CategoryID:  "salary",
			Description: "Salaire",
			Frequency:   recurrence.Monthly,
			StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		// when
		report, err := deps.Session.Start(ctx)

		// then
		require.NoError(t, err)
		assert.Len(t, report.Recorded, 4)
		assert.Zero(t, report.Failed)
		for _, tx := range report.Recorded {
			assert.True(t, tx.IsRecurring)
			assert.NotEmpty(t, tx.RecurrenceID)
		}
		balance, err := deps.LedgerService.GetBalance(ctx, budget.DefaultID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(4800).Equal(balance), balance.String())
	})

	t.Run("should record nothing when started twice on the same day", func(t *testing.T) {
		// given
		deps, _ := setupSession(t)
		ctx := context.Background()
		_, err := deps.RecurrenceService.Create(ctx, budget.DefaultID, recurrence.Definition{
			Type:       money.Expense,
			Amount:     decimal.NewFromInt(50),
			Frequency:  recurrence.Weekly,
			StartDate:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			CategoryID: "telecom",
		})
		require.NoError(t, err)
		first, err := deps.Session.Start(ctx)
		require.NoError(t, err)

		// when
		second, err := deps.Session.Start(ctx)

		// then
		require.NoError(t, err)
		assert.Len(t, first.Recorded, 3)
		assert.Empty(t, second.Recorded)
		page, err := deps.LedgerService.GetTransactions(ctx, budget.DefaultID, ledger.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})
}

func TestSession_Switch(t *testing.T) {
	t.Run("should change the active budget", func(t *testing.T) {
		// given
		deps, _ := setupSession(t)
		ctx := context.Background()
		created, err := deps.BudgetService.Create(ctx, "Vacances", "🏖️")
		require.NoError(t, err)

		// when
		switched, err := deps.Session.Switch(ctx, created.ID)

		// then
		require.NoError(t, err)
		assert.Equal(t, created.ID, switched.ID)
		active, err := deps.Session.Active(ctx)
		require.NoError(t, err)
		assert.Equal(t, created.ID, active.ID)
	})
}

func TestBuildDependencies(t *testing.T) {
	t.Run("should reject a malformed initial balance", func(t *testing.T) {
		// given
		cfg := config.Default()
		cfg.Ledger.InitialBalance = "beaucoup"

		// when
		_, err := BuildDependencies(docstore.NewMemoryStore(), cfg, &utils.MockClock{})

		// then
		assert.Error(t, err)
	})

	t.Run("should check configured keyword rules first", func(t *testing.T) {
		// given
		cfg := config.Default()
		cfg.Categories.Rules = []config.KeywordRule{{CategoryID: "leisure", Keywords: []string{"restaurant"}}}

		// when
		deps, err := BuildDependencies(docstore.NewMemoryStore(), cfg, &utils.MockClock{})

		// then
		require.NoError(t, err)
		assert.Equal(t, "leisure", deps.CategoryService.Guess("Restaurant du coin"))
	})
}

func TestOpenStore(t *testing.T) {
	t.Run("should open an in-memory store", func(t *testing.T) {
		store, closeStore, err := OpenStore(config.Storage{Backend: "memory"})
		require.NoError(t, err)
		assert.NotNil(t, store)
		assert.NoError(t, closeStore())
	})

	t.Run("should open a migrated sqlite store", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "monargent.db")

		// when
		store, closeStore, err := OpenStore(config.Storage{Backend: "sqlite", Path: path})

		// then
		require.NoError(t, err)
		defer closeStore()
		deps, err := BuildDependencies(store, config.Default(), &utils.MockClock{FixedNow: time.Now()})
		require.NoError(t, err)
		budgets, err := deps.BudgetService.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, budgets, 2)
	})

	t.Run("should reject an unknown backend", func(t *testing.T) {
		_, _, err := OpenStore(config.Storage{Backend: "postgres"})
		assert.Error(t, err)
	})
}
