package budget

import (
	"context"
	"errors"
	"time"

	"github.com/monargent/monargent/internal/docstore"
	log "github.com/sirupsen/logrus"
)

const documentKey = "budgets"

var ErrRegistryNotStored = errors.New("budget registry not stored")

type Repository interface {
	// Load returns ErrRegistryNotStored when nothing usable is stored.
	Load(ctx context.Context) (Registry, error)
	Save(ctx context.Context, registry Registry) error
}

type RepositoryImpl struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *RepositoryImpl {
	return &RepositoryImpl{store: store}
}

type registryDocument struct {
	Budgets        []budgetDocument `json:"budgets"`
	ActiveBudgetID string           `json:"activeBudgetId"`
}

type budgetDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	IsPrincipal bool      `json:"isPrincipal,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *RepositoryImpl) Load(ctx context.Context) (Registry, error) {
	doc, err := docstore.Load[registryDocument](ctx, r.store, documentKey)
	if errors.Is(err, docstore.ErrDocumentNotFound) {
		return Registry{}, ErrRegistryNotStored
	}
	if errors.Is(err, docstore.ErrCorruptDocument) {
		log.Warnf("ignoring stored budget registry: %v", err)
		return Registry{}, ErrRegistryNotStored
	}
	if err != nil {
		return Registry{}, err
	}

	registry := Registry{
		Budgets:        make([]Budget, 0, len(doc.Budgets)),
		ActiveBudgetID: doc.ActiveBudgetID,
	}
	for _, b := range doc.Budgets {
		registry.Budgets = append(registry.Budgets, Budget{
			ID:          b.ID,
			Name:        b.Name,
			Icon:        b.Icon,
			IsPrincipal: b.IsPrincipal,
			CreatedAt:   b.CreatedAt,
		})
	}
	return registry, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, registry Registry) error {
	doc := registryDocument{
		Budgets:        make([]budgetDocument, 0, len(registry.Budgets)),
		ActiveBudgetID: registry.ActiveBudgetID,
	}
	for _, b := range registry.Budgets {
		doc.Budgets = append(doc.Budgets, budgetDocument{
			ID:          b.ID,
			Name:        b.Name,
			Icon:        b.Icon,
			IsPrincipal: b.IsPrincipal,
			CreatedAt:   b.CreatedAt,
		})
	}
	if err := docstore.Save(ctx, r.store, documentKey, doc); err != nil {
		log.Errorf("failed to save budget registry: %v", err)
		return err
	}
	return nil
}
