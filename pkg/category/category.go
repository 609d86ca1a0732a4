package category

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/monargent/monargent/pkg/money"
)

// OtherID is the fallback category. It always exists and cannot be deleted.
const OtherID = "other"

type Category struct {
	ID      string
	Name    string
	Icon    string
	Type    money.TransactionType
	BuiltIn bool
}

type KeywordRule struct {
	CategoryID string
	Keywords   []string
}

var DefaultCategories = []Category{
	{ID: "groceries", Name: "Courses", Icon: "🛒", Type: money.Expense, BuiltIn: true},
	{ID: "restaurant", Name: "Restaurant", Icon: "🍽️", Type: money.Expense, BuiltIn: true},
	{ID: "transport", Name: "Transport", Icon: "🚗", Type: money.Expense, BuiltIn: true},
	{ID: "housing", Name: "Logement", Icon: "🏠", Type: money.Expense, BuiltIn: true},
	{ID: "salary", Name: "Salaire", Icon: "💼", Type: money.Income, BuiltIn: true},
	{ID: "gambling", Name: "Casino/Jeux", Icon: "🎰", Type: money.Expense, BuiltIn: true},
	{ID: "telecom", Name: "Télécom", Icon: "📱", Type: money.Expense, BuiltIn: true},
	{ID: "health", Name: "Santé", Icon: "💊", Type: money.Expense, BuiltIn: true},
	{ID: "clothing", Name: "Vêtements", Icon: "👕", Type: money.Expense, BuiltIn: true},
	{ID: "leisure", Name: "Loisirs", Icon: "🎬", Type: money.Expense, BuiltIn: true},
	{ID: OtherID, Name: "Autre", Icon: "📦", Type: money.Expense, BuiltIn: true},
}

// DefaultRules are checked in order; the first rule with a matching keyword wins.
var DefaultRules = []KeywordRule{
	{CategoryID: "groceries", Keywords: []string{"course", "supermarché", "leclerc", "carrefour"}},
	{CategoryID: "restaurant", Keywords: []string{"restaurant", "resto", "repas", "déjeuner"}},
	{CategoryID: "transport", Keywords: []string{"transport", "essence", "métro", "bus"}},
	{CategoryID: "housing", Keywords: []string{"loyer", "électricité", "gaz", "eau"}},
	{CategoryID: "salary", Keywords: []string{"salaire", "paie", "paye", "prime"}},
	{CategoryID: "gambling", Keywords: []string{"casino", "jeu", "pari", "loto"}},
	{CategoryID: "telecom", Keywords: []string{"téléphone", "internet", "mobile", "sfr"}},
	{CategoryID: "health", Keywords: []string{"médecin", "pharmacie", "dentiste", "santé"}},
	{CategoryID: "clothing", Keywords: []string{"vêtement", "habit", "chaussure", "zara"}},
	{CategoryID: "leisure", Keywords: []string{"cinéma", "sport", "loisir", "sortie"}},
}

// Guess returns the category of the first rule having a keyword that starts a
// word of description, ignoring case. "eau" matches "l'eau" but not "cadeau";
// "course" matches "courses". It falls back to OtherID.
func Guess(rules []KeywordRule, description string) string {
	desc := strings.ToLower(description)
	if strings.TrimSpace(desc) == "" {
		return OtherID
	}
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if startsWord(desc, strings.ToLower(keyword)) {
				return rule.CategoryID
			}
		}
	}
	return OtherID
}

// startsWord reports whether keyword occurs in s right after the start of s or
// a non-letter.
func startsWord(s, keyword string) bool {
	if keyword == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], keyword)
		if i == -1 {
			return false
		}
		at := offset + i
		if at == 0 {
			return true
		}
		if r, _ := utf8.DecodeLastRuneInString(s[:at]); !unicode.IsLetter(r) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[at:])
		offset = at + size
	}
	return false
}
