package recurrence

import (
	"fmt"
	"time"
)

// maxCatchUp bounds the occurrences generated for one recurrence in one run.
// Weekly catch-up over nineteen years stays below it.
const maxCatchUp = 1000

// check reports why a stored recurrence cannot be processed, or "" when it can.
func check(r Recurrence) string {
	switch {
	case !r.Type.Valid():
		return fmt.Sprintf("invalid type %q", r.Type)
	case !r.Amount.IsPositive():
		return fmt.Sprintf("amount must be positive, got %s", r.Amount)
	case !r.Frequency.Valid():
		return fmt.Sprintf("unknown frequency %q", r.Frequency)
	case r.Frequency == Custom && r.CustomMonths < 1:
		return fmt.Sprintf("custom frequency needs at least 1 month, got %d", r.CustomMonths)
	case r.StartDate.IsZero():
		return "missing start date"
	case r.NextDueDate.IsZero():
		return "missing next due date"
	}
	return ""
}

// catchUp generates every occurrence of r due on or before today and advances
// r past them. It returns a non-empty reason when r had to be skipped; r is
// then left as it was, apart from InvalidReason.
func catchUp(r *Recurrence, today time.Time) ([]Occurrence, string) {
	if reason := check(*r); reason != "" {
		r.InvalidReason = reason
		return nil, reason
	}

	work := *r
	occurrences := make([]Occurrence, 0)
	for work.IsActive && !work.NextDueDate.After(today) {
		if len(occurrences) == maxCatchUp {
			reason := fmt.Sprintf("more than %d occurrences due, giving up", maxCatchUp)
			r.InvalidReason = reason
			return nil, reason
		}
		due := work.NextDueDate
		if work.hasEnd() && due.After(work.EndDate) {
			work.IsActive = false
			break
		}

		occurrences = append(occurrences, work.occurrence(due))
		work.TotalGenerated++
		work.LastGeneratedDate = due

		next, err := work.nextAfter(due)
		if err != nil {
			r.InvalidReason = err.Error()
			return nil, err.Error()
		}
		if !next.After(due) {
			reason := fmt.Sprintf("schedule does not advance past %s", due.Format(time.DateOnly))
			r.InvalidReason = reason
			return nil, reason
		}
		work.NextDueDate = next
		if work.hasEnd() && next.After(work.EndDate) {
			work.IsActive = false
		}
	}

	work.InvalidReason = ""
	*r = work
	return occurrences, ""
}
