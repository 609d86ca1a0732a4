package recurrence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/category"
	log "github.com/sirupsen/logrus"
)

var ErrPrincipalReadOnly = domainerr.New(domainerr.ErrInvalidOperation, "the principal budget cannot hold recurrences")
var ErrRecurrenceNotFound = domainerr.New(domainerr.ErrNotFound, "recurrence not found")

type BudgetDirectory interface {
	Get(ctx context.Context, id string) (budget.Budget, error)
	ListNonPrincipal(ctx context.Context) ([]budget.Budget, error)
}

type Service interface {
	Create(ctx context.Context, budgetID string, def Definition) (Recurrence, error)
	Update(ctx context.Context, budgetID, id string, patch Patch) (Recurrence, error)
	// Delete removes the definition only; generated transactions are kept.
	Delete(ctx context.Context, budgetID, id string) error
	Get(ctx context.Context, budgetID, id string) (Recurrence, error)
	List(ctx context.Context, budgetID string) ([]Recurrence, error)
	// ProcessDue catches up every regular budget not processed today yet and
	// returns the occurrences to append to the ledger.
	ProcessDue(ctx context.Context, today time.Time) (Result, error)
	ProcessBudget(ctx context.Context, budgetID string, today time.Time) (Result, error)
	Replace(ctx context.Context, budgetID string, recurrences []Recurrence) error
	Initialize(ctx context.Context, budgetID string) error
	Purge(ctx context.Context, budgetID string) error
	ReassignCategory(ctx context.Context, from, to string) (int, error)
}

type ServiceImpl struct {
	repo    Repository
	budgets BudgetDirectory
	clock   utils.Clock
}

func NewService(repo Repository, budgets BudgetDirectory, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, budgets: budgets, clock: clock}
}

func (s *ServiceImpl) schedule(ctx context.Context, budgetID string) (Schedule, error) {
	schedule, err := s.repo.Load(ctx, budgetID)
	if errors.Is(err, ErrScheduleNotStored) {
		return Schedule{BudgetID: budgetID, Recurrences: []Recurrence{}}, nil
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to load recurrences of budget %s: %w", budgetID, err)
	}
	return schedule, nil
}

func (s *ServiceImpl) writable(ctx context.Context, budgetID string) (Schedule, error) {
	if budget.IsPrincipal(budgetID) {
		return Schedule{}, ErrPrincipalReadOnly
	}
	if _, err := s.budgets.Get(ctx, budgetID); err != nil {
		return Schedule{}, err
	}
	return s.schedule(ctx, budgetID)
}

func validate(r Recurrence) error {
	switch {
	case !r.Type.Valid():
		return domainerr.Validation("invalid recurrence type %q", r.Type)
	case !r.Amount.IsPositive():
		return domainerr.Validation("amount must be positive, got %s", r.Amount)
	case !r.Frequency.Valid():
		return domainerr.Validation("unknown frequency %q", r.Frequency)
	case r.Frequency == Custom && r.CustomMonths < 1:
		return domainerr.Validation("custom frequency needs at least 1 month, got %d", r.CustomMonths)
	case r.StartDate.IsZero():
		return domainerr.Validation("start date is required")
	case r.hasEnd() && r.EndDate.Before(r.StartDate):
		return domainerr.Validation("end date %s is before start date %s",
			r.EndDate.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	}
	return nil
}

func (s *ServiceImpl) Create(ctx context.Context, budgetID string, def Definition) (Recurrence, error) {
	schedule, err := s.writable(ctx, budgetID)
	if err != nil {
		return Recurrence{}, err
	}

	r := Recurrence{
		ID:           uuid.NewString(),
		BudgetID:     budgetID,
		Type:         def.Type,
		Amount:       def.Amount,
		CategoryID:   def.CategoryID,
		Description:  def.Description,
		Frequency:    def.Frequency,
		CustomMonths: def.CustomMonths,
		StartDate:    dateOrZero(def.StartDate),
		EndDate:      dateOrZero(def.EndDate),
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}
	if r.CategoryID == "" {
		r.CategoryID = category.OtherID
	}
	if r.Frequency != Custom {
		r.CustomMonths = 0
	}
	if err := validate(r); err != nil {
		return Recurrence{}, err
	}
	r.NextDueDate = r.StartDate

	schedule.Recurrences = append(schedule.Recurrences, r)
	if err := s.repo.Save(ctx, schedule); err != nil {
		return Recurrence{}, err
	}
	log.Debugf("recurrence %s (%s) created in budget %s", r.ID, r.Frequency, budgetID)
	return r, nil
}

func (s *ServiceImpl) Update(ctx context.Context, budgetID, id string, patch Patch) (Recurrence, error) {
	schedule, err := s.writable(ctx, budgetID)
	if err != nil {
		return Recurrence{}, err
	}
	idx := slices.IndexFunc(schedule.Recurrences, func(r Recurrence) bool { return r.ID == id })
	if idx == -1 {
		return Recurrence{}, fmt.Errorf("%w: %s", ErrRecurrenceNotFound, id)
	}

	r := schedule.Recurrences[idx]
	reschedule := false
	if patch.Type != nil {
		r.Type = *patch.Type
	}
	if patch.Amount != nil {
		r.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		r.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Frequency != nil && *patch.Frequency != r.Frequency {
		r.Frequency = *patch.Frequency
		reschedule = true
	}
	if patch.CustomMonths != nil && *patch.CustomMonths != r.CustomMonths {
		r.CustomMonths = *patch.CustomMonths
		reschedule = true
	}
	if patch.StartDate != nil && !utils.DateOf(*patch.StartDate).Equal(r.StartDate) {
		r.StartDate = utils.DateOf(*patch.StartDate)
		reschedule = true
	}
	if patch.ClearEndDate {
		r.EndDate = time.Time{}
	} else if patch.EndDate != nil {
		r.EndDate = utils.DateOf(*patch.EndDate)
	}
	if patch.IsActive != nil {
		r.IsActive = *patch.IsActive
	}
	if r.Frequency != Custom {
		r.CustomMonths = 0
	}
	if err := validate(r); err != nil {
		return Recurrence{}, err
	}

	if reschedule {
		next, err := r.rescheduled()
		if err != nil {
			return Recurrence{}, domainerr.Validation("%v", err)
		}
		r.NextDueDate = next
	}
	r.InvalidReason = ""

	schedule.Recurrences[idx] = r
	if err := s.repo.Save(ctx, schedule); err != nil {
		return Recurrence{}, err
	}
	return r, nil
}

// rescheduled computes the due date from the most recent of the last
// generated date and the start date.
func (r Recurrence) rescheduled() (time.Time, error) {
	if r.LastGeneratedDate.IsZero() || r.StartDate.After(r.LastGeneratedDate) {
		return r.StartDate, nil
	}
	return r.nextAfter(r.LastGeneratedDate)
}

func (s *ServiceImpl) Delete(ctx context.Context, budgetID, id string) error {
	schedule, err := s.writable(ctx, budgetID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(schedule.Recurrences, func(r Recurrence) bool { return r.ID == id })
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrRecurrenceNotFound, id)
	}
	schedule.Recurrences = slices.Delete(schedule.Recurrences, idx, idx+1)
	return s.repo.Save(ctx, schedule)
}

func (s *ServiceImpl) Get(ctx context.Context, budgetID, id string) (Recurrence, error) {
	recurrences, err := s.List(ctx, budgetID)
	if err != nil {
		return Recurrence{}, err
	}
	idx := slices.IndexFunc(recurrences, func(r Recurrence) bool { return r.ID == id })
	if idx == -1 {
		return Recurrence{}, fmt.Errorf("%w: %s", ErrRecurrenceNotFound, id)
	}
	return recurrences[idx], nil
}

// List returns a budget's recurrences, or those of every regular budget for
// the principal.
func (s *ServiceImpl) List(ctx context.Context, budgetID string) ([]Recurrence, error) {
	if budget.IsPrincipal(budgetID) {
		budgets, err := s.budgets.ListNonPrincipal(ctx)
		if err != nil {
			return nil, err
		}
		all := make([]Recurrence, 0)
		for _, b := range budgets {
			schedule, err := s.schedule(ctx, b.ID)
			if err != nil {
				return nil, err
			}
			all = append(all, schedule.Recurrences...)
		}
		return all, nil
	}
	if _, err := s.budgets.Get(ctx, budgetID); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return []Recurrence{}, nil
		}
		return nil, err
	}
	schedule, err := s.schedule(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	return schedule.Recurrences, nil
}

func (s *ServiceImpl) ProcessDue(ctx context.Context, today time.Time) (Result, error) {
	budgets, err := s.budgets.ListNonPrincipal(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list budgets: %w", err)
	}
	result := Result{Occurrences: []Occurrence{}, Skipped: []Skipped{}}
	for _, b := range budgets {
		r, err := s.ProcessBudget(ctx, b.ID, today)
		if err != nil {
			return result, err
		}
		result.Occurrences = append(result.Occurrences, r.Occurrences...)
		result.Skipped = append(result.Skipped, r.Skipped...)
	}
	return result, nil
}

func (s *ServiceImpl) ProcessBudget(ctx context.Context, budgetID string, today time.Time) (Result, error) {
	result := Result{Occurrences: []Occurrence{}, Skipped: []Skipped{}}
	if budget.IsPrincipal(budgetID) {
		return result, nil
	}
	today = utils.DateOf(today)
	schedule, err := s.schedule(ctx, budgetID)
	if err != nil {
		return result, err
	}
	if schedule.LastProcessedDate.Equal(today) {
		log.Debugf("recurrences of budget %s already processed on %s", budgetID, today.Format(time.DateOnly))
		return result, nil
	}

	for i := range schedule.Recurrences {
		r := &schedule.Recurrences[i]
		if !r.IsActive {
			continue
		}
		occurrences, reason := catchUp(r, today)
		if reason != "" {
			log.Warnf("skipping recurrence %s of budget %s: %s", r.ID, budgetID, reason)
			result.Skipped = append(result.Skipped, Skipped{BudgetID: budgetID, RecurrenceID: r.ID, Reason: reason})
			continue
		}
		result.Occurrences = append(result.Occurrences, occurrences...)
	}

	schedule.LastProcessedDate = today
	if err := s.repo.Save(ctx, schedule); err != nil {
		return Result{}, err
	}
	if n := len(result.Occurrences); n > 0 {
		log.Infof("%d recurring transaction(s) due in budget %s", n, budgetID)
	}
	return result, nil
}

func (s *ServiceImpl) Replace(ctx context.Context, budgetID string, recurrences []Recurrence) error {
	if _, err := s.writable(ctx, budgetID); err != nil {
		return err
	}
	schedule := Schedule{BudgetID: budgetID, Recurrences: make([]Recurrence, 0, len(recurrences))}
	for _, r := range recurrences {
		r.BudgetID = budgetID
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CategoryID == "" {
			r.CategoryID = category.OtherID
		}
		r.StartDate = dateOrZero(r.StartDate)
		r.EndDate = dateOrZero(r.EndDate)
		r.LastGeneratedDate = dateOrZero(r.LastGeneratedDate)
		r.NextDueDate = dateOrZero(r.NextDueDate)
		if r.NextDueDate.IsZero() {
			r.NextDueDate = r.StartDate
		}
		schedule.Recurrences = append(schedule.Recurrences, r)
	}
	return s.repo.Save(ctx, schedule)
}

func (s *ServiceImpl) Initialize(ctx context.Context, budgetID string) error {
	if budget.IsPrincipal(budgetID) {
		return nil
	}
	_, err := s.repo.Load(ctx, budgetID)
	if !errors.Is(err, ErrScheduleNotStored) {
		return err
	}
	return s.repo.Save(ctx, Schedule{BudgetID: budgetID, Recurrences: []Recurrence{}})
}

func (s *ServiceImpl) Purge(ctx context.Context, budgetID string) error {
	if err := s.repo.Delete(ctx, budgetID); err != nil {
		log.Errorf("failed to purge recurrences of budget %s: %v", budgetID, err)
		return err
	}
	return nil
}

func (s *ServiceImpl) ReassignCategory(ctx context.Context, from, to string) (int, error) {
	ids, err := s.repo.BudgetIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list stored budgets: %w", err)
	}
	moved := 0
	for _, id := range ids {
		schedule, err := s.schedule(ctx, id)
		if err != nil {
			return moved, err
		}
		changed := false
		for i := range schedule.Recurrences {
			if schedule.Recurrences[i].CategoryID == from {
				schedule.Recurrences[i].CategoryID = to
				changed = true
				moved++
			}
		}
		if changed {
			if err := s.repo.Save(ctx, schedule); err != nil {
				return moved, err
			}
		}
	}
	return moved, nil
}

func dateOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return utils.DateOf(t)
}
