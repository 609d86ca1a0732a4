package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{"12,34", "12.34", false},
		{" 45,5 € ", "45.5", false},
		{"€2000", "2000", false},
		{"1 200,00", "1200", false},
		{"0", "", true},
		{"-5", "", true},
		{"+5", "", true},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input string
		want  TransactionType
	}{
		{"income", Income},
		{"Expense", Expense},
		{"credit", Income},
		{"debit", Expense},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTransactionType(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseTransactionType("transfer")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestSigned(t *testing.T) {
	amount := decimal.RequireFromString("45.50")
	assert.True(t, Signed(Expense, amount).Equal(decimal.RequireFromString("-45.50")))
	assert.True(t, Signed(Income, amount).Equal(amount))
}
