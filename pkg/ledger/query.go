package ledger

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/money"
	"github.com/shopspring/decimal"
)

func (f Filters) matches(t Transaction) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Search)) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	day := utils.DateOf(t.Date)
	if !f.From.IsZero() && day.Before(utils.DateOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(utils.DateOf(f.To)) {
		return false
	}
	return true
}

// newestFirst orders entries by date, most recent first. Entries sharing a
// date keep the newest inserted first. Input is expected in insertion order.
func newestFirst(entries []Entry) {
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func paginate(entries []Entry, offset, limit int) Page {
	total := len(entries)
	start := min(max(offset, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	return Page{Items: entries[start:end], Total: total}
}

func inPeriod(date time.Time, period Period, now time.Time) bool {
	switch period {
	case PeriodToday:
		return utils.SameDay(date, now)
	case PeriodWeek:
		day, today := utils.DateOf(date), utils.DateOf(now)
		return !day.Before(today.AddDate(0, 0, -6)) && !day.After(today)
	case PeriodMonth:
		today := utils.DateOf(now)
		return date.Year() == today.Year() && date.Month() == today.Month()
	case PeriodYear:
		return date.Year() == utils.DateOf(now).Year()
	default:
		return true
	}
}

func computeStats(transactions []Transaction, period Period, now time.Time) Stats {
	stats := Stats{Income: decimal.Zero, Expenses: decimal.Zero, Balance: decimal.Zero}
	for _, t := range transactions {
		if !inPeriod(t.Date, period, now) {
			continue
		}
		stats.TransactionCount++
		if t.Type == money.Income {
			stats.Income = stats.Income.Add(t.Amount)
		} else {
			stats.Expenses = stats.Expenses.Add(t.Amount)
		}
	}
	stats.Balance = stats.Income.Sub(stats.Expenses)
	return stats
}

func balance(book Book) decimal.Decimal {
	total := book.InitialBalance
	for _, t := range book.Transactions {
		total = total.Add(money.Signed(t.Type, t.Amount))
	}
	return total
}

func usage(transactions []Transaction) []CategoryUsage {
	byCategory := map[string]*CategoryUsage{}
	for _, t := range transactions {
		u, ok := byCategory[t.CategoryID]
		if !ok {
			u = &CategoryUsage{CategoryID: t.CategoryID, Total: decimal.Zero}
			byCategory[t.CategoryID] = u
		}
		u.Count++
		u.Total = u.Total.Add(t.Amount)
	}
	result := make([]CategoryUsage, 0, len(byCategory))
	for _, u := range byCategory {
		result = append(result, *u)
	}
	slices.SortFunc(result, func(a, b CategoryUsage) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.CategoryID, b.CategoryID)
	})
	return result
}
