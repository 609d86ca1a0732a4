package ledger

import (
	"time"

	"github.com/monargent/monargent/pkg/money"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          string
	BudgetID    string
	Type        money.TransactionType
	Amount      decimal.Decimal
	CategoryID  string
	Description string
	Date        time.Time
	IsRecurring bool
	// RecurrenceID points at the recurrence that generated the transaction. It
	// is informational and may outlive the recurrence.
	RecurrenceID string
	CreatedAt    time.Time
}

// Draft is a transaction that has not been stored yet. A zero Date means now.
type Draft struct {
	Type         money.TransactionType
	Amount       decimal.Decimal
	CategoryID   string
	Description  string
	Date         time.Time
	IsRecurring  bool
	RecurrenceID string
}

// Patch holds the fields to change; nil fields are kept.
type Patch struct {
	Type        *money.TransactionType
	Amount      *decimal.Decimal
	CategoryID  *string
	Description *string
	Date        *time.Time
}

// Book is everything the ledger stores for one budget. Transactions are kept
// in insertion order.
type Book struct {
	BudgetID       string
	Transactions   []Transaction
	InitialBalance decimal.Decimal
}

// Entry is a listed transaction. BudgetName and BudgetIcon are set when the
// listing spans several budgets.
type Entry struct {
	Transaction
	BudgetName string
	BudgetIcon string
}

type Page struct {
	Items []Entry
	// Total is the number of matching transactions before paging.
	Total int
}

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return true
	}
	return false
}

type Stats struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	// Balance is Income minus Expenses over the period.
	Balance          decimal.Decimal
	TransactionCount int
}

type CategoryUsage struct {
	CategoryID string
	Count      int
	Total      decimal.Decimal
}

type Filters struct {
	// Search matches a case-insensitive substring of the description.
	Search     string
	Type       money.TransactionType
	CategoryID string
	// From and To bound the date, both inclusive; To covers its whole day.
	From   time.Time
	To     time.Time
	Offset int
	// Limit caps the page size; zero means no limit.
	Limit int
}
