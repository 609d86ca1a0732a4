package category

import "github.com/monargent/monargent/pkg/money"

func toDocument(c Category) categoryDocument {
	return categoryDocument{
		ID:      c.ID,
		Name:    c.Name,
		Icon:    c.Icon,
		Type:    string(c.Type),
		BuiltIn: c.BuiltIn,
	}
}

func fromDocument(d categoryDocument) Category {
	t, err := money.ParseTransactionType(d.Type)
	if err != nil {
		t = money.Expense
	}
	return Category{
		ID:      d.ID,
		Name:    d.Name,
		Icon:    d.Icon,
		Type:    t,
		BuiltIn: d.BuiltIn,
	}
}
