package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/recurrence"
	log "github.com/sirupsen/logrus"
)

// StartReport tells what a session start recorded.
type StartReport struct {
	Recorded []ledger.Transaction
	Skipped  []recurrence.Skipped
	// Failed counts occurrences the engine emitted but the ledger refused.
	Failed int
}

// Session holds the user's active budget for the UI layer and runs the
// recurrence catch-up when the user opens the application.
type Session struct {
	budgets     budget.Service
	ledger      ledger.Service
	recurrences recurrence.Service
	clock       utils.Clock
}

func NewSession(budgets budget.Service, ledger ledger.Service, recurrences recurrence.Service, clock utils.Clock) *Session {
	return &Session{budgets: budgets, ledger: ledger, recurrences: recurrences, clock: clock}
}

// Start generates every recurring transaction due today and records each one
// in its budget. Calling it again on the same day records nothing.
//
// The engine has already advanced its schedules when the ledger is written,
// so an occurrence the ledger refuses is not generated again; it is logged
// and counted in the report.
func (s *Session) Start(ctx context.Context) (StartReport, error) {
	today := utils.Today(s.clock)
	result, err := s.recurrences.ProcessDue(ctx, today)
	if err != nil {
		log.Errorf("failed to process recurrences: %v", err)
		return StartReport{}, err
	}

	report := StartReport{Recorded: make([]ledger.Transaction, 0, len(result.Occurrences)), Skipped: result.Skipped}
	var errs []error
	for _, o := range result.Occurrences {
		t, err := s.ledger.AddTransaction(ctx, o.BudgetID, ledger.Draft{
			Type:         o.Type,
			Amount:       o.Amount,
			CategoryID:   o.CategoryID,
			Description:  o.Description,
			Date:         o.Date,
			IsRecurring:  true,
			RecurrenceID: o.RecurrenceID,
		})
		if err != nil {
			log.Errorf("lost occurrence of recurrence %s due %s in budget %s: %v",
				o.RecurrenceID, o.Date.Format(utils.DateLayout), o.BudgetID, err)
			report.Failed++
			errs = append(errs, err)
			continue
		}
		report.Recorded = append(report.Recorded, t)
	}
	if len(errs) > 0 {
		return report, fmt.Errorf("failed to record %d recurring transaction(s): %w", len(errs), errors.Join(errs...))
	}
	log.Infof("session started on %s: %d recurring transaction(s) recorded, %d recurrence(s) skipped",
		today.Format(utils.DateLayout), len(report.Recorded), len(report.Skipped))
	return report, nil
}

// Switch makes id the active budget.
func (s *Session) Switch(ctx context.Context, id string) (budget.Budget, error) {
	return s.budgets.SetActive(ctx, id)
}

func (s *Session) Active(ctx context.Context) (budget.Budget, error) {
	return s.budgets.Active(ctx)
}
