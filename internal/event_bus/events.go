package event_bus

const (
	BudgetCreatedType   EventType = "budget.created"
	BudgetDeletedType   EventType = "budget.deleted"
	BudgetActivatedType EventType = "budget.activated"
	CategoryDeletedType EventType = "category.deleted"
)

type BudgetCreated struct {
	BudgetID string
}

// BudgetDeleted is published after the budget left the registry. Subscribers
// drop everything they hold for BudgetID.
type BudgetDeleted struct {
	BudgetID string
}

type BudgetActivated struct {
	BudgetID         string
	PreviousBudgetID string
}

// CategoryDeleted asks every holder of category references to move them from
// CategoryID to ReplacementID.
type CategoryDeleted struct {
	CategoryID    string
	ReplacementID string
}
