// Package command turns a typed or dictated French sentence such as
// "dépense 25 euros courses" into a transaction candidate.
package command

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/money"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrUnparseable = domainerr.New(domainerr.ErrValidation, "command not understood, try \"dépense 25 euros courses\"")

const (
	amountPattern   = `(\d+(?:\.\d+)?)`
	currencyPattern = `(?:€|euros?)`
)

type shape int

const (
	expenseFirst shape = iota
	incomeFirst
	amountFirst
	descriptionFirst
)

type pattern struct {
	shape shape
	re    *regexp.Regexp
	// amount and description are submatch indexes.
	amount, description int
}

var patterns = []pattern{
	{
		shape: expenseFirst,
		re: regexp.MustCompile(`^(?:j'ai\s+)?(?:dépense|dépensé|acheté|payé|perdu)\s+(?:de\s+)?` +
			amountPattern + `\s*` + currencyPattern + `?\s*(?:(?:pour|en|de|du|des|au|aux|chez)\s+)?(.*)$`),
		amount: 1, description: 2,
	},
	{
		shape: incomeFirst,
		re: regexp.MustCompile(`^(?:j'ai\s+)?(?:gagné|reçu|touché|gain|salaire)\s+(?:de\s+)?` +
			amountPattern + `\s*` + currencyPattern + `?\s*(?:(?:pour|de|du|des|au|aux|en)\s+)?(.*)$`),
		amount: 1, description: 2,
	},
	{
		shape:  amountFirst,
		re:     regexp.MustCompile(`^` + amountPattern + `\s*` + currencyPattern + `\s*(.+)$`),
		amount: 1, description: 2,
	},
	{
		shape:  descriptionFirst,
		re:     regexp.MustCompile(`^(.+?)\s+` + amountPattern + `\s*` + currencyPattern + `$`),
		amount: 2, description: 1,
	},
}

var incomeHint = regexp.MustCompile(`gagné|reçu|salaire|revenus?`)

var fallbackDescription = map[shape]string{
	expenseFirst:     "Dépense vocale",
	incomeFirst:      "Revenu vocal",
	amountFirst:      "Transaction vocale",
	descriptionFirst: "Transaction vocale",
}

type CategoryGuesser interface {
	Guess(description string) string
}

type Candidate struct {
	Type        money.TransactionType
	Amount      decimal.Decimal
	Description string
	CategoryID  string
}

// ToDraft dates the candidate at now.
func (c Candidate) ToDraft() ledger.Draft {
	return c.ToDraftAt(time.Time{})
}

func (c Candidate) ToDraftAt(date time.Time) ledger.Draft {
	return ledger.Draft{
		Type:        c.Type,
		Amount:      c.Amount,
		CategoryID:  c.CategoryID,
		Description: c.Description,
		Date:        date,
	}
}

type Parser struct {
	categories CategoryGuesser
}

func NewParser(categories CategoryGuesser) *Parser {
	return &Parser{categories: categories}
}

func (p *Parser) Parse(utterance string) (Candidate, error) {
	normalized := normalize(utterance)
	if normalized == "" {
		return Candidate{}, ErrUnparseable
	}

	for _, pt := range patterns {
		m := pt.re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(m[pt.amount])
		if err != nil || !amount.IsPositive() {
			continue
		}
		if !amount.Equal(amount.Round(2)) {
			log.Debugf("command %q has an amount finer than a cent: %s", utterance, m[pt.amount])
			return Candidate{}, fmt.Errorf("%w: %q", ErrUnparseable, utterance)
		}

		description := strings.Join(strings.Fields(m[pt.description]), " ")
		if description == "" {
			description = fallbackDescription[pt.shape]
		}

		c := Candidate{
			Type:        typeOf(pt.shape, normalized),
			Amount:      amount,
			Description: description,
			CategoryID:  p.categories.Guess(description),
		}
		log.Debugf("command %q parsed as %s %s (%s)", utterance, c.Type, money.Format(c.Amount), c.CategoryID)
		return c, nil
	}

	log.Debugf("command %q not understood (normalized to %q)", utterance, normalized)
	return Candidate{}, fmt.Errorf("%w: %q", ErrUnparseable, utterance)
}

func typeOf(s shape, normalized string) money.TransactionType {
	switch s {
	case expenseFirst:
		return money.Expense
	case incomeFirst:
		return money.Income
	}
	if incomeHint.MatchString(normalized) {
		return money.Income
	}
	return money.Expense
}
