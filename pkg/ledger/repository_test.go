package ledger

import (
	"testing"

	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/internal/test_utils"
	"github.com/monargent/monargent/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) (*RepositoryImpl, docstore.Store) {
	store := docstore.NewSQLiteStore(test_utils.SetupTestDB(t))
	return NewRepository(store), store
}

func TestRepositoryImpl_SaveAndLoad(t *testing.T) {
	// given
	repo, _ := setupTestRepository(t)
	book := Book{
		BudgetID:       "b1",
		InitialBalance: dec("12.30"),
		Transactions: []Transaction{
			{ID: "t1", BudgetID: "b1", Type: money.Income, Amount: dec("2000"), CategoryID: "salary", Date: day(2024, 1, 1), CreatedAt: now},
			{ID: "t2", BudgetID: "b1", Type: money.Expense, Amount: dec("1200"), CategoryID: "housing", Date: day(2024, 1, 1),
				IsRecurring: true, RecurrenceID: "r1", CreatedAt: now},
		},
	}

	// when
	require.NoError(t, repo.Save(ctx, book))
	loaded, err := repo.Load(ctx, "b1")

	// then
	require.NoError(t, err)
	assert.True(t, book.InitialBalance.Equal(loaded.InitialBalance))
	require.Len(t, loaded.Transactions, 2)
	assert.Equal(t, "t1", loaded.Transactions[0].ID)
	assert.Equal(t, "r1", loaded.Transactions[1].RecurrenceID)
	assert.True(t, loaded.Transactions[1].IsRecurring)
	assert.True(t, day(2024, 1, 1).Equal(loaded.Transactions[1].Date))
	ids, err := repo.BudgetIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids)
}

func TestRepositoryImpl_Load(t *testing.T) {
	t.Run("should treat a corrupt document as not stored", func(t *testing.T) {
		// given
		repo, store := setupTestRepository(t)
		require.NoError(t, store.Put(ctx, "transactions/b1", []byte(`{"transactions": "nope"`)))

		// when
		_, err := repo.Load(ctx, "b1")

		// then
		assert.ErrorIs(t, err, ErrBookNotStored)
	})

	t.Run("should drop malformed transactions and keep the rest", func(t *testing.T) {
		// given
		repo, store := setupTestRepository(t)
		doc := `{"budgetId":"b1","initialBalance":"0","transactions":[
			{"id":"ok","type":"debit","amount":"5","date":"2024-01-01T00:00:00Z"},
			{"id":"negative","type":"expense","amount":"-5","date":"2024-01-01T00:00:00Z"},
			{"id":"unknown","type":"transfer","amount":"5","date":"2024-01-01T00:00:00Z"}]}`
		require.NoError(t, store.Put(ctx, "transactions/b1", []byte(doc)))

		// when
		book, err := repo.Load(ctx, "b1")

		// then
		require.NoError(t, err)
		require.Len(t, book.Transactions, 1)
		assert.Equal(t, money.Expense, book.Transactions[0].Type)
	})
}
