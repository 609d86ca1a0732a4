package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/category"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrPrincipalReadOnly = domainerr.New(domainerr.ErrInvalidOperation, "the principal budget is read-only")
var ErrTransactionNotFound = domainerr.New(domainerr.ErrNotFound, "transaction not found")

// BudgetDirectory is the part of the budget registry the ledger depends on.
type BudgetDirectory interface {
	Get(ctx context.Context, id string) (budget.Budget, error)
	ListNonPrincipal(ctx context.Context) ([]budget.Budget, error)
}

type Service interface {
	AddTransaction(ctx context.Context, budgetID string, draft Draft) (Transaction, error)
	UpdateTransaction(ctx context.Context, budgetID, id string, patch Patch) (Transaction, error)
	DeleteTransaction(ctx context.Context, budgetID, id string) error
	GetTransaction(ctx context.Context, budgetID, id string) (Transaction, error)
	SetInitialBalance(ctx context.Context, budgetID string, amount decimal.Decimal) error
	InitialBalance(ctx context.Context, budgetID string) (decimal.Decimal, error)
	// GetBalance is the initial balance plus income minus expenses. For the
	// principal it is the sum over every regular budget.
	GetBalance(ctx context.Context, budgetID string) (decimal.Decimal, error)
	GetStats(ctx context.Context, budgetID string, period Period) (Stats, error)
	// GetTransactions lists a budget newest first. For the principal it lists
	// every regular budget, tagged with the originating budget.
	GetTransactions(ctx context.Context, budgetID string, filters Filters) (Page, error)
	GetAggregatedTransactions(ctx context.Context, filters Filters) (Page, error)
	CategoryUsage(ctx context.Context, budgetID string) ([]CategoryUsage, error)
	// Replace overwrites everything stored for a regular budget.
	Replace(ctx context.Context, budgetID string, initialBalance decimal.Decimal, transactions []Transaction) error
	Initialize(ctx context.Context, budgetID string) error
	Purge(ctx context.Context, budgetID string) error
	ReassignCategory(ctx context.Context, from, to string) (int, error)
	Invalidate(budgetID string)
	InvalidateAll()
}

type ServiceImpl struct {
	repo                  Repository
	budgets               BudgetDirectory
	clock                 utils.Clock
	defaultInitialBalance decimal.Decimal

	mu    sync.Mutex
	cache map[string]Book
}

func NewService(repo Repository, budgets BudgetDirectory, clock utils.Clock, defaultInitialBalance decimal.Decimal) *ServiceImpl {
	return &ServiceImpl{
		repo:                  repo,
		budgets:               budgets,
		clock:                 clock,
		defaultInitialBalance: defaultInitialBalance,
		cache:                 map[string]Book{},
	}
}

func (s *ServiceImpl) book(ctx context.Context, budgetID string) (Book, error) {
	s.mu.Lock()
	cached, ok := s.cache[budgetID]
	s.mu.Unlock()
	if ok {
		cached.Transactions = slices.Clone(cached.Transactions)
		return cached, nil
	}

	book, err := s.repo.Load(ctx, budgetID)
	if errors.Is(err, ErrBookNotStored) {
		book = Book{BudgetID: budgetID, Transactions: []Transaction{}, InitialBalance: s.defaultInitialBalance}
	} else if err != nil {
		return Book{}, fmt.Errorf("failed to load transactions of budget %s: %w", budgetID, err)
	}

	s.mu.Lock()
	s.cache[budgetID] = book
	s.mu.Unlock()
	book.Transactions = slices.Clone(book.Transactions)
	return book, nil
}

func (s *ServiceImpl) save(ctx context.Context, book Book) error {
	if err := s.repo.Save(ctx, book); err != nil {
		s.Invalidate(book.BudgetID)
		return fmt.Errorf("failed to save transactions of budget %s: %w", book.BudgetID, err)
	}
	s.mu.Lock()
	s.cache[book.BudgetID] = book
	s.mu.Unlock()
	return nil
}

// writable loads the book of a budget that accepts writes.
func (s *ServiceImpl) writable(ctx context.Context, budgetID string) (Book, error) {
	if budget.IsPrincipal(budgetID) {
		return Book{}, ErrPrincipalReadOnly
	}
	if _, err := s.budgets.Get(ctx, budgetID); err != nil {
		return Book{}, err
	}
	return s.book(ctx, budgetID)
}

// readable reports whether budgetID names an existing regular budget. Reads
// of unknown budgets return empty results instead of failing.
func (s *ServiceImpl) readable(ctx context.Context, budgetID string) (bool, error) {
	_, err := s.budgets.Get(ctx, budgetID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func validate(t Transaction) error {
	if !t.Type.Valid() {
		return domainerr.Validation("invalid transaction type %q", t.Type)
	}
	if !t.Amount.IsPositive() {
		return domainerr.Validation("amount must be positive, got %s", t.Amount)
	}
	if t.Date.IsZero() {
		return domainerr.Validation("transaction date is required")
	}
	return nil
}

func (s *ServiceImpl) AddTransaction(ctx context.Context, budgetID string, draft Draft) (Transaction, error) {
	book, err := s.writable(ctx, budgetID)
	if err != nil {
		return Transaction{}, err
	}

	now := s.clock.Now()
	t := Transaction{
		ID:           uuid.NewString(),
		BudgetID:     budgetID,
		Type:         draft.Type,
		Amount:       draft.Amount,
		CategoryID:   draft.CategoryID,
		Description:  draft.Description,
		Date:         draft.Date,
		IsRecurring:  draft.IsRecurring,
		RecurrenceID: draft.RecurrenceID,
		CreatedAt:    now,
	}
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.CategoryID == "" {
		t.CategoryID = category.OtherID
	}
	if err := validate(t); err != nil {
		return Transaction{}, err
	}

	book.Transactions = append(book.Transactions, t)
	if err := s.save(ctx, book); err != nil {
		return Transaction{}, err
	}
	log.Debugf("transaction %s added to budget %s", t.ID, budgetID)
	return t, nil
}

func (s *ServiceImpl) UpdateTransaction(ctx context.Context, budgetID, id string, patch Patch) (Transaction, error) {
	book, err := s.writable(ctx, budgetID)
	if err != nil {
		return Transaction{}, err
	}
	idx := slices.IndexFunc(book.Transactions, func(t Transaction) bool { return t.ID == id })
	if idx == -1 {
		return Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}

	t := book.Transactions[idx]
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
		if t.CategoryID == "" {
			t.CategoryID = category.OtherID
		}
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if err := validate(t); err != nil {
		return Transaction{}, err
	}

	book.Transactions[idx] = t
	if err := s.save(ctx, book); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *ServiceImpl) DeleteTransaction(ctx context.Context, budgetID, id string) error {
	book, err := s.writable(ctx, budgetID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(book.Transactions, func(t Transaction) bool { return t.ID == id })
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	book.Transactions = slices.Delete(book.Transactions, idx, idx+1)
	return s.save(ctx, book)
}

func (s *ServiceImpl) GetTransaction(ctx context.Context, budgetID, id string) (Transaction, error) {
	page, err := s.GetTransactions(ctx, budgetID, Filters{})
	if err != nil {
		return Transaction{}, err
	}
	idx := slices.IndexFunc(page.Items, func(e Entry) bool { return e.ID == id })
	if idx == -1 {
		return Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return page.Items[idx].Transaction, nil
}

func (s *ServiceImpl) SetInitialBalance(ctx context.Context, budgetID string, amount decimal.Decimal) error {
	book, err := s.writable(ctx, budgetID)
	if err != nil {
		return err
	}
	book.InitialBalance = amount
	return s.save(ctx, book)
}

func (s *ServiceImpl) InitialBalance(ctx context.Context, budgetID string) (decimal.Decimal, error) {
	if budget.IsPrincipal(budgetID) {
		total := decimal.Zero
		err := s.eachBudget(ctx, func(b budget.Budget, book Book) {
			total = total.Add(book.InitialBalance)
		})
		return total, err
	}
	ok, err := s.readable(ctx, budgetID)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	book, err := s.book(ctx, budgetID)
	if err != nil {
		return decimal.Zero, err
	}
	return book.InitialBalance, nil
}

func (s *ServiceImpl) GetBalance(ctx context.Context, budgetID string) (decimal.Decimal, error) {
	if budget.IsPrincipal(budgetID) {
		total := decimal.Zero
		err := s.eachBudget(ctx, func(b budget.Budget, book Book) {
			total = total.Add(balance(book))
		})
		return total, err
	}
	ok, err := s.readable(ctx, budgetID)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	book, err := s.book(ctx, budgetID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance(book), nil
}

func (s *ServiceImpl) GetStats(ctx context.Context, budgetID string, period Period) (Stats, error) {
	if !period.Valid() {
		return Stats{}, domainerr.Validation("unknown period %q", period)
	}
	transactions, err := s.transactions(ctx, budgetID)
	if err != nil {
		return Stats{}, err
	}
	entries := make([]Transaction, 0, len(transactions))
	for _, e := range transactions {
		entries = append(entries, e.Transaction)
	}
	return computeStats(entries, period, s.clock.Now()), nil
}

func (s *ServiceImpl) GetTransactions(ctx context.Context, budgetID string, filters Filters) (Page, error) {
	entries, err := s.transactions(ctx, budgetID)
	if err != nil {
		return Page{}, err
	}
	matching := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if filters.matches(e.Transaction) {
			matching = append(matching, e)
		}
	}
	newestFirst(matching)
	return paginate(matching, filters.Offset, filters.Limit), nil
}

func (s *ServiceImpl) GetAggregatedTransactions(ctx context.Context, filters Filters) (Page, error) {
	return s.GetTransactions(ctx, budget.PrincipalID, filters)
}

func (s *ServiceImpl) CategoryUsage(ctx context.Context, budgetID string) ([]CategoryUsage, error) {
	entries, err := s.transactions(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	transactions := make([]Transaction, 0, len(entries))
	for _, e := range entries {
		transactions = append(transactions, e.Transaction)
	}
	return usage(transactions), nil
}

// transactions returns a budget's transactions in insertion order, or the
// concatenation over every regular budget for the principal.
func (s *ServiceImpl) transactions(ctx context.Context, budgetID string) ([]Entry, error) {
	if budget.IsPrincipal(budgetID) {
		entries := make([]Entry, 0)
		err := s.eachBudget(ctx, func(b budget.Budget, book Book) {
			for _, t := range book.Transactions {
				entries = append(entries, Entry{Transaction: t, BudgetName: b.Name, BudgetIcon: b.Icon})
			}
		})
		return entries, err
	}
	ok, err := s.readable(ctx, budgetID)
	if err != nil || !ok {
		return []Entry{}, err
	}
	book, err := s.book(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(book.Transactions))
	for _, t := range book.Transactions {
		entries = append(entries, Entry{Transaction: t})
	}
	return entries, nil
}

func (s *ServiceImpl) eachBudget(ctx context.Context, fn func(b budget.Budget, book Book)) error {
	budgets, err := s.budgets.ListNonPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("failed to list budgets: %w", err)
	}
	for _, b := range budgets {
		book, err := s.book(ctx, b.ID)
		if err != nil {
			return err
		}
		fn(b, book)
	}
	return nil
}

func (s *ServiceImpl) Replace(ctx context.Context, budgetID string, initialBalance decimal.Decimal, transactions []Transaction) error {
	if _, err := s.writable(ctx, budgetID); err != nil {
		return err
	}
	book := Book{BudgetID: budgetID, Transactions: make([]Transaction, 0, len(transactions)), InitialBalance: initialBalance}
	for _, t := range transactions {
		t.BudgetID = budgetID
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CategoryID == "" {
			t.CategoryID = category.OtherID
		}
		if err := validate(t); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		book.Transactions = append(book.Transactions, t)
	}
	return s.save(ctx, book)
}

func (s *ServiceImpl) Initialize(ctx context.Context, budgetID string) error {
	if budget.IsPrincipal(budgetID) {
		return nil
	}
	_, err := s.repo.Load(ctx, budgetID)
	if !errors.Is(err, ErrBookNotStored) {
		return err
	}
	return s.save(ctx, Book{BudgetID: budgetID, Transactions: []Transaction{}, InitialBalance: s.defaultInitialBalance})
}

func (s *ServiceImpl) Purge(ctx context.Context, budgetID string) error {
	s.Invalidate(budgetID)
	if err := s.repo.Delete(ctx, budgetID); err != nil {
		log.Errorf("failed to purge transactions of budget %s: %v", budgetID, err)
		return err
	}
	log.Debugf("transactions of budget %s purged", budgetID)
	return nil
}

func (s *ServiceImpl) ReassignCategory(ctx context.Context, from, to string) (int, error) {
	ids, err := s.repo.BudgetIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list stored budgets: %w", err)
	}
	moved := 0
	for _, id := range ids {
		book, err := s.book(ctx, id)
		if err != nil {
			return moved, err
		}
		changed := false
		for i := range book.Transactions {
			if book.Transactions[i].CategoryID == from {
				book.Transactions[i].CategoryID = to
				changed = true
				moved++
			}
		}
		if changed {
			if err := s.save(ctx, book); err != nil {
				return moved, err
			}
		}
	}
	log.Debugf("%d transaction(s) moved from category %s to %s", moved, from, to)
	return moved, nil
}

func (s *ServiceImpl) Invalidate(budgetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, budgetID)
}

func (s *ServiceImpl) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = map[string]Book{}
}
