package backup

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/money"
	log "github.com/sirupsen/logrus"
)

const csvDateLayout = "02/01/2006"

var csvHeader = []string{"Date", "Type", "Amount", "Category", "Description", "Recurring"}

// ExportCSV writes the budget's transactions, most recent first. The file is
// meant for spreadsheets and cannot be imported back.
func (s *Service) ExportCSV(ctx context.Context, budgetID string) ([]byte, error) {
	page, err := s.ledger.GetTransactions(ctx, budgetID, ledger.Filters{})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	data := make([][]string, 0, len(page.Items)+1)
	data = append(data, csvHeader)
	for _, e := range page.Items {
		categoryName, ok := names[e.CategoryID]
		if !ok {
			categoryName = e.CategoryID
		}
		data = append(data, []string{
			e.Date.Format(csvDateLayout),
			string(e.Type),
			money.Format(e.Amount),
			categoryName,
			e.Description,
			yesNo(e.IsRecurring),
		})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return nil, err
	}
	return b.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
