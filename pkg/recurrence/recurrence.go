package recurrence

import (
	"time"

	"github.com/monargent/monargent/pkg/money"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
	Custom    Frequency = "custom"
)

type Recurrence struct {
	ID          string
	BudgetID    string
	Type        money.TransactionType
	Amount      decimal.Decimal
	CategoryID  string
	Description string
	Frequency   Frequency
	// CustomMonths is the interval of a Custom frequency.
	CustomMonths int
	StartDate    time.Time
	// EndDate is the last day an occurrence may fall on; zero means open ended.
	EndDate  time.Time
	IsActive bool
	// NextDueDate is the next occurrence not generated yet.
	NextDueDate       time.Time
	LastGeneratedDate time.Time
	TotalGenerated    int
	// InvalidReason is set when the engine skipped a malformed recurrence.
	InvalidReason string
	CreatedAt     time.Time
}

// Definition is what a user provides to create a recurrence.
type Definition struct {
	Type         money.TransactionType
	Amount       decimal.Decimal
	CategoryID   string
	Description  string
	Frequency    Frequency
	CustomMonths int
	StartDate    time.Time
	EndDate      time.Time
}

// Patch holds the fields to change; nil fields are kept.
type Patch struct {
	Type         *money.TransactionType
	Amount       *decimal.Decimal
	CategoryID   *string
	Description  *string
	Frequency    *Frequency
	CustomMonths *int
	StartDate    *time.Time
	EndDate      *time.Time
	// ClearEndDate removes the end date; it wins over EndDate.
	ClearEndDate bool
	IsActive     *bool
}

// Schedule is everything the engine stores for one budget.
type Schedule struct {
	BudgetID    string
	Recurrences []Recurrence
	// LastProcessedDate is the last day ProcessDue ran for this budget.
	LastProcessedDate time.Time
}

// Occurrence is a transaction draft emitted by the engine, dated at its due date.
type Occurrence struct {
	BudgetID     string
	RecurrenceID string
	Type         money.TransactionType
	Amount       decimal.Decimal
	CategoryID   string
	Description  string
	Date         time.Time
}

type Skipped struct {
	BudgetID     string
	RecurrenceID string
	Reason       string
}

type Result struct {
	Occurrences []Occurrence
	Skipped     []Skipped
}

func (r Recurrence) occurrence(date time.Time) Occurrence {
	return Occurrence{
		BudgetID:     r.BudgetID,
		RecurrenceID: r.ID,
		Type:         r.Type,
		Amount:       r.Amount,
		CategoryID:   r.CategoryID,
		Description:  r.Description,
		Date:         date,
	}
}

func (r Recurrence) hasEnd() bool {
	return !r.EndDate.IsZero()
}
