package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeNextDue(t *testing.T) {
	tests := []struct {
		name         string
		from         time.Time
		frequency    Frequency
		customMonths int
		want         time.Time
	}{
		{"weekly", day(2024, 1, 29), Weekly, 0, day(2024, 2, 5)},
		{"monthly", day(2024, 1, 1), Monthly, 0, day(2024, 2, 1)},
		{"monthly clamps to leap february", day(2024, 1, 31), Monthly, 0, day(2024, 2, 29)},
		{"monthly clamps to short month", day(2024, 3, 31), Monthly, 0, day(2024, 4, 30)},
		{"quarterly", day(2024, 11, 15), Quarterly, 0, day(2025, 2, 15)},
		{"yearly from leap day", day(2024, 2, 29), Yearly, 0, day(2025, 2, 28)},
		{"custom", day(2024, 1, 10), Custom, 2, day(2024, 3, 10)},
		{"time of day is dropped", day(2024, 1, 1).Add(15 * time.Hour), Monthly, 0, day(2024, 2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeNextDue(tt.from, tt.frequency, tt.customMonths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeNextDue_Errors(t *testing.T) {
	_, err := ComputeNextDue(day(2024, 1, 1), Custom, 0)
	assert.Error(t, err)

	_, err = ComputeNextDue(day(2024, 1, 1), "daily", 0)
	assert.Error(t, err)
}
