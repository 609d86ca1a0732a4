package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name      string
		from      time.Time
		months    int
		anchorDay int
		want      time.Time
	}{
		{"plain month", date(2024, 1, 15), 1, 15, date(2024, 2, 15)},
		{"clamps to leap february", date(2024, 1, 31), 1, 31, date(2024, 2, 29)},
		{"clamps to february", date(2023, 1, 31), 1, 31, date(2023, 2, 28)},
		{"anchor restores day after short month", date(2024, 2, 29), 1, 31, date(2024, 3, 31)},
		{"crosses year", date(2024, 11, 30), 3, 30, date(2025, 2, 28)},
		{"yearly from leap day", date(2024, 2, 29), 12, 29, date(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonthsClamped(tt.from, tt.months, tt.anchorDay))
		})
	}
}

func TestDateOf(t *testing.T) {
	t.Run("should keep the calendar day of the local time", func(t *testing.T) {
		// given
		loc := time.FixedZone("UTC+2", 2*60*60)
		local := time.Date(2024, 3, 10, 0, 30, 0, 0, loc)

		// when
		d := DateOf(local)

		// then
		assert.Equal(t, date(2024, 3, 10), d)
	})
}

func TestEndOfDay(t *testing.T) {
	end := EndOfDay(date(2024, 3, 10))
	assert.True(t, end.Before(date(2024, 3, 11)))
	assert.True(t, SameDay(end, date(2024, 3, 10)))
}
