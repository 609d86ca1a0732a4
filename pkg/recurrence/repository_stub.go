package recurrence

import (
	"context"
	"slices"
	"sort"
)

type RepositoryStub struct {
	schedules map[string]Schedule
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{schedules: map[string]Schedule{}}
}

func (s *RepositoryStub) Load(ctx context.Context, budgetID string) (Schedule, error) {
	schedule, ok := s.schedules[budgetID]
	if !ok {
		return Schedule{}, ErrScheduleNotStored
	}
	schedule.Recurrences = slices.Clone(schedule.Recurrences)
	return schedule, nil
}

func (s *RepositoryStub) Save(ctx context.Context, schedule Schedule) error {
	schedule.Recurrences = slices.Clone(schedule.Recurrences)
	s.schedules[schedule.BudgetID] = schedule
	return nil
}

func (s *RepositoryStub) Delete(ctx context.Context, budgetID string) error {
	delete(s.schedules, budgetID)
	return nil
}

func (s *RepositoryStub) BudgetIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.schedules))
	for id := range s.schedules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RepositoryStub) Cleanup() {
	s.schedules = map[string]Schedule{}
}
