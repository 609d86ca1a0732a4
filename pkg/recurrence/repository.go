package recurrence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/pkg/money"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "recurrences"

var ErrScheduleNotStored = errors.New("recurrences not stored")

type Repository interface {
	// Load returns ErrScheduleNotStored when the budget has no usable document.
	Load(ctx context.Context, budgetID string) (Schedule, error)
	Save(ctx context.Context, schedule Schedule) error
	Delete(ctx context.Context, budgetID string) error
	BudgetIDs(ctx context.Context) ([]string, error)
}

type RepositoryImpl struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *RepositoryImpl {
	return &RepositoryImpl{store: store}
}

type scheduleDocument struct {
	BudgetID          string               `json:"budgetId"`
	Recurrences       []recurrenceDocument `json:"recurrences"`
	LastProcessedDate *time.Time           `json:"lastProcessedDate,omitempty"`
}

type recurrenceDocument struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	CategoryID        string          `json:"category"`
	Description       string          `json:"description"`
	Frequency         string          `json:"frequency"`
	CustomMonths      int             `json:"customMonths,omitempty"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           *time.Time      `json:"endDate,omitempty"`
	IsActive          bool            `json:"isActive"`
	NextDueDate       time.Time       `json:"nextDueDate"`
	LastGeneratedDate *time.Time      `json:"lastGeneratedDate,omitempty"`
	TotalGenerated    int             `json:"totalGenerated"`
	InvalidReason     string          `json:"invalidReason,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func optional(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func value(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (r *RepositoryImpl) Load(ctx context.Context, budgetID string) (Schedule, error) {
	doc, err := docstore.Load[scheduleDocument](ctx, r.store, docstore.Key(keyPrefix, budgetID))
	if errors.Is(err, docstore.ErrDocumentNotFound) {
		return Schedule{}, ErrScheduleNotStored
	}
	if errors.Is(err, docstore.ErrCorruptDocument) {
		log.Warnf("ignoring recurrences of budget %s: %v", budgetID, err)
		return Schedule{}, ErrScheduleNotStored
	}
	if err != nil {
		return Schedule{}, err
	}

	schedule := Schedule{
		BudgetID:          budgetID,
		Recurrences:       make([]Recurrence, 0, len(doc.Recurrences)),
		LastProcessedDate: value(doc.LastProcessedDate),
	}
	for _, d := range doc.Recurrences {
		// Unknown types are kept as stored; the engine flags them instead of dropping them.
		t, err := money.ParseTransactionType(d.Type)
		if err != nil {
			t = money.TransactionType(d.Type)
		}
		schedule.Recurrences = append(schedule.Recurrences, Recurrence{
			ID:                d.ID,
			BudgetID:          budgetID,
			Type:              t,
			Amount:            d.Amount,
			CategoryID:        d.CategoryID,
			Description:       d.Description,
			Frequency:         Frequency(d.Frequency),
			CustomMonths:      d.CustomMonths,
			StartDate:         d.StartDate,
			EndDate:           value(d.EndDate),
			IsActive:          d.IsActive,
			NextDueDate:       d.NextDueDate,
			LastGeneratedDate: value(d.LastGeneratedDate),
			TotalGenerated:    d.TotalGenerated,
			InvalidReason:     d.InvalidReason,
			CreatedAt:         d.CreatedAt,
		})
	}
	return schedule, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, schedule Schedule) error {
	doc := scheduleDocument{
		BudgetID:          schedule.BudgetID,
		Recurrences:       make([]recurrenceDocument, 0, len(schedule.Recurrences)),
		LastProcessedDate: optional(schedule.LastProcessedDate),
	}
	for _, rec := range schedule.Recurrences {
		doc.Recurrences = append(doc.Recurrences, recurrenceDocument{
			ID:                rec.ID,
			Type:              string(rec.Type),
			Amount:            rec.Amount,
			CategoryID:        rec.CategoryID,
			Description:       rec.Description,
			Frequency:         string(rec.Frequency),
			CustomMonths:      rec.CustomMonths,
			StartDate:         rec.StartDate,
			EndDate:           optional(rec.EndDate),
			IsActive:          rec.IsActive,
			NextDueDate:       rec.NextDueDate,
			LastGeneratedDate: optional(rec.LastGeneratedDate),
			TotalGenerated:    rec.TotalGenerated,
			InvalidReason:     rec.InvalidReason,
			CreatedAt:         rec.CreatedAt,
		})
	}
	if err := docstore.Save(ctx, r.store, docstore.Key(keyPrefix, schedule.BudgetID), doc); err != nil {
		log.Errorf("failed to save recurrences of budget %s: %v", schedule.BudgetID, err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, budgetID string) error {
	return r.store.Delete(ctx, docstore.Key(keyPrefix, budgetID))
}

func (r *RepositoryImpl) BudgetIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, keyPrefix+"/")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix+"/"))
	}
	return ids, nil
}
