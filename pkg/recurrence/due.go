package recurrence

import (
	"fmt"
	"time"

	"github.com/monargent/monargent/internal/utils"
)

type stepFunc func(from time.Time, customMonths, anchorDay int) (time.Time, error)

func monthsStep(months int) stepFunc {
	return func(from time.Time, _ int, anchorDay int) (time.Time, error) {
		return utils.AddMonthsClamped(from, months, anchorDay), nil
	}
}

var steps = map[Frequency]stepFunc{
	Weekly: func(from time.Time, _ int, _ int) (time.Time, error) {
		return from.AddDate(0, 0, 7), nil
	},
	Monthly:   monthsStep(1),
	Quarterly: monthsStep(3),
	Yearly:    monthsStep(12),
	Custom: func(from time.Time, customMonths, anchorDay int) (time.Time, error) {
		if customMonths < 1 {
			return time.Time{}, fmt.Errorf("custom frequency needs at least 1 month, got %d", customMonths)
		}
		return utils.AddMonthsClamped(from, customMonths, anchorDay), nil
	},
}

func (f Frequency) Valid() bool {
	_, ok := steps[f]
	return ok
}

// ComputeNextDue returns the occurrence following from. Month based
// frequencies land on the same day of the month, clamped to the last day of
// shorter months: Jan 31 + 1 month is the last day of February.
func ComputeNextDue(from time.Time, frequency Frequency, customMonths int) (time.Time, error) {
	from = utils.DateOf(from)
	return advance(from, frequency, customMonths, from.Day())
}

// advance is ComputeNextDue with an explicit anchor day, so that a schedule
// started on the 31st comes back to the 31st after a short month.
func advance(from time.Time, frequency Frequency, customMonths, anchorDay int) (time.Time, error) {
	step, ok := steps[frequency]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown frequency %q", frequency)
	}
	return step(from, customMonths, anchorDay)
}

func (r Recurrence) nextAfter(date time.Time) (time.Time, error) {
	return advance(date, r.Frequency, r.CustomMonths, r.StartDate.Day())
}
