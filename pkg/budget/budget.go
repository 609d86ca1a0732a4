package budget

import "time"

const (
	// PrincipalID identifies the read-only aggregate over every other budget.
	PrincipalID = "principal"
	// DefaultID identifies the budget seeded on first start.
	DefaultID = "default"
)

type Budget struct {
	ID          string
	Name        string
	Icon        string
	IsPrincipal bool
	CreatedAt   time.Time
}

// Registry is the persisted set of budgets with the user's active selection.
type Registry struct {
	Budgets        []Budget
	ActiveBudgetID string
}

func bootstrap(now time.Time) Registry {
	return Registry{
		Budgets: []Budget{
			principal(now),
			{ID: DefaultID, Name: "Mon Budget Principal", Icon: "💰", CreatedAt: now},
		},
		ActiveBudgetID: DefaultID,
	}
}

func principal(now time.Time) Budget {
	return Budget{ID: PrincipalID, Name: "Vue d'ensemble", Icon: "🏦", IsPrincipal: true, CreatedAt: now}
}

func IsPrincipal(id string) bool {
	return id == PrincipalID
}

func (r Registry) index(id string) int {
	for i, b := range r.Budgets {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (r Registry) nonPrincipal() []Budget {
	result := make([]Budget, 0, len(r.Budgets))
	for _, b := range r.Budgets {
		if !b.IsPrincipal {
			result = append(result, b)
		}
	}
	return result
}

// normalize repairs documents written by older versions or edited by hand:
// exactly one principal, stored first, and an active id that exists.
func (r Registry) normalize(now time.Time) Registry {
	budgets := make([]Budget, 0, len(r.Budgets)+1)
	var p *Budget
	for _, b := range r.Budgets {
		if b.ID == PrincipalID {
			if p == nil {
				b.IsPrincipal = true
				p = &b
			}
			continue
		}
		b.IsPrincipal = false
		budgets = append(budgets, b)
	}
	if p == nil {
		pb := principal(now)
		p = &pb
	}
	r.Budgets = append([]Budget{*p}, budgets...)

	if r.index(r.ActiveBudgetID) == -1 {
		r.ActiveBudgetID = fallbackActive(r)
	}
	return r
}

// fallbackActive prefers DefaultID, then the first regular budget, and only
// falls back to the principal when no regular budget is left.
func fallbackActive(r Registry) string {
	if r.index(DefaultID) != -1 {
		return DefaultID
	}
	if others := r.nonPrincipal(); len(others) > 0 {
		return others[0].ID
	}
	return PrincipalID
}
