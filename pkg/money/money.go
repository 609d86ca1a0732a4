// Package money holds the transaction direction type and amount parsing shared
// by the ledger, recurrences, categories and the command parser.
package money

import (
	"strings"

	"github.com/monargent/monargent/internal/domainerr"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

var ErrInvalidAmount = domainerr.New(domainerr.ErrValidation, "invalid amount")
var ErrInvalidType = domainerr.New(domainerr.ErrValidation, "invalid transaction type")

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts the current names and the legacy
// "credit"/"debit" spelling of older exports.
func ParseTransactionType(value string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "income", "credit":
		return Income, nil
	case "expense", "debit":
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

// ParseAmount reads a positive amount written with either a dot or a comma as
// decimal separator. A trailing or leading euro sign is ignored.
func ParseAmount(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSpace(strings.Trim(s, "€"))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// Signed returns amount as a balance contribution: positive for income,
// negative for expense.
func Signed(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == Expense {
		return amount.Neg()
	}
	return amount
}

func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
