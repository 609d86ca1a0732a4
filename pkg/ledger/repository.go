package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/pkg/money"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "transactions"

var ErrBookNotStored = errors.New("transactions not stored")

type Repository interface {
	// Load returns ErrBookNotStored when the budget has no usable document.
	Load(ctx context.Context, budgetID string) (Book, error)
	Save(ctx context.Context, book Book) error
	Delete(ctx context.Context, budgetID string) error
	// BudgetIDs lists the budgets having a stored document.
	BudgetIDs(ctx context.Context) ([]string, error)
}

type RepositoryImpl struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *RepositoryImpl {
	return &RepositoryImpl{store: store}
}

type bookDocument struct {
	BudgetID       string                `json:"budgetId"`
	Transactions   []transactionDocument `json:"transactions"`
	InitialBalance decimal.Decimal       `json:"initialBalance"`
}

type transactionDocument struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryID   string          `json:"category"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	IsRecurring  bool            `json:"isRecurring,omitempty"`
	RecurrenceID string          `json:"recurrenceId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (r *RepositoryImpl) Load(ctx context.Context, budgetID string) (Book, error) {
	doc, err := docstore.Load[bookDocument](ctx, r.store, docstore.Key(keyPrefix, budgetID))
	if errors.Is(err, docstore.ErrDocumentNotFound) {
		return Book{}, ErrBookNotStored
	}
	if errors.Is(err, docstore.ErrCorruptDocument) {
		log.Warnf("ignoring transactions of budget %s: %v", budgetID, err)
		return Book{}, ErrBookNotStored
	}
	if err != nil {
		return Book{}, err
	}

	book := Book{
		BudgetID:       budgetID,
		Transactions:   make([]Transaction, 0, len(doc.Transactions)),
		InitialBalance: doc.InitialBalance,
	}
	for _, d := range doc.Transactions {
		t, err := money.ParseTransactionType(d.Type)
		if err != nil || !d.Amount.IsPositive() {
			log.Warnf("dropping malformed transaction %s of budget %s", d.ID, budgetID)
			continue
		}
		book.Transactions = append(book.Transactions, Transaction{
			ID:           d.ID,
			BudgetID:     budgetID,
			Type:         t,
			Amount:       d.Amount,
			CategoryID:   d.CategoryID,
			Description:  d.Description,
			Date:         d.Date,
			IsRecurring:  d.IsRecurring,
			RecurrenceID: d.RecurrenceID,
			CreatedAt:    d.CreatedAt,
		})
	}
	return book, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, book Book) error {
	doc := bookDocument{
		BudgetID:       book.BudgetID,
		Transactions:   make([]transactionDocument, 0, len(book.Transactions)),
		InitialBalance: book.InitialBalance,
	}
	for _, t := range book.Transactions {
		doc.Transactions = append(doc.Transactions, transactionDocument{
			ID:           t.ID,
			Type:         string(t.Type),
			Amount:       t.Amount,
			CategoryID:   t.CategoryID,
			Description:  t.Description,
			Date:         t.Date,
			IsRecurring:  t.IsRecurring,
			RecurrenceID: t.RecurrenceID,
			CreatedAt:    t.CreatedAt,
		})
	}
	if err := docstore.Save(ctx, r.store, docstore.Key(keyPrefix, book.BudgetID), doc); err != nil {
		log.Errorf("failed to save transactions of budget %s: %v", book.BudgetID, err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, budgetID string) error {
	return r.store.Delete(ctx, docstore.Key(keyPrefix, budgetID))
}

func (r *RepositoryImpl) BudgetIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, keyPrefix+"/")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix+"/"))
	}
	return ids, nil
}
