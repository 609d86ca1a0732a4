package ledger

import (
	"context"
	"errors"
	"slices"
	"sort"
)

type RepositoryStub struct {
	books map[string]Book
	// FailSave makes Save return an error, to test that failed writes leave
	// state untouched.
	FailSave bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{books: map[string]Book{}}
}

func (s *RepositoryStub) Load(ctx context.Context, budgetID string) (Book, error) {
	book, ok := s.books[budgetID]
	if !ok {
		return Book{}, ErrBookNotStored
	}
	book.Transactions = slices.Clone(book.Transactions)
	return book, nil
}

func (s *RepositoryStub) Save(ctx context.Context, book Book) error {
	if s.FailSave {
		return errors.New("storage unavailable")
	}
	book.Transactions = slices.Clone(book.Transactions)
	s.books[book.BudgetID] = book
	return nil
}

func (s *RepositoryStub) Delete(ctx context.Context, budgetID string) error {
	delete(s.books, budgetID)
	return nil
}

func (s *RepositoryStub) BudgetIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RepositoryStub) Cleanup() {
	s.books = map[string]Book{}
	s.FailSave = false
}
