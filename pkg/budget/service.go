package budget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/event_bus"
	"github.com/monargent/monargent/internal/utils"
	log "github.com/sirupsen/logrus"
)

var ErrBudgetNotFound = domainerr.New(domainerr.ErrNotFound, "budget not found")
var ErrPrincipalUndeletable = domainerr.New(domainerr.ErrInvalidOperation, "the principal budget cannot be deleted")
var ErrLastBudget = domainerr.New(domainerr.ErrInvalidOperation, "the last budget cannot be deleted")

type Service interface {
	Create(ctx context.Context, name, icon string) (Budget, error)
	// Delete removes a regular budget. Its transactions and recurrences are
	// purged before Delete returns.
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name string) (Budget, error)
	SetIcon(ctx context.Context, id, icon string) (Budget, error)
	SetActive(ctx context.Context, id string) (Budget, error)
	Active(ctx context.Context) (Budget, error)
	Get(ctx context.Context, id string) (Budget, error)
	// List returns every budget, the principal first.
	List(ctx context.Context) ([]Budget, error)
	ListNonPrincipal(ctx context.Context) ([]Budget, error)
	Principal(ctx context.Context) (Budget, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) load(ctx context.Context) (Registry, error) {
	registry, err := s.repo.Load(ctx)
	if errors.Is(err, ErrRegistryNotStored) {
		log.Info("no budget registry stored, creating the default budgets")
		registry = bootstrap(s.clock.Now())
		if err := s.repo.Save(ctx, registry); err != nil {
			return Registry{}, fmt.Errorf("failed to store default budgets: %w", err)
		}
		return registry, nil
	}
	if err != nil {
		return Registry{}, fmt.Errorf("failed to load budgets: %w", err)
	}
	return registry.normalize(s.clock.Now()), nil
}

func (s *ServiceImpl) Create(ctx context.Context, name, icon string) (Budget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Budget{}, domainerr.Validation("budget name must not be empty")
	}
	if icon == "" {
		icon = "💼"
	}
	registry, err := s.load(ctx)
	if err != nil {
		return Budget{}, err
	}

	b := Budget{ID: uuid.NewString(), Name: name, Icon: icon, CreatedAt: s.clock.Now()}
	registry.Budgets = append(registry.Budgets, b)
	if err := s.repo.Save(ctx, registry); err != nil {
		return Budget{}, err
	}

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetCreatedType, event_bus.BudgetCreated{BudgetID: b.ID}))
	if err != nil {
		log.Errorf("failed to publish budget created event: %v", err)
		return Budget{}, err
	}
	log.Debugf("budget %s (%s) created", b.Name, b.ID)
	return b, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	if IsPrincipal(id) {
		return ErrPrincipalUndeletable
	}
	registry, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := registry.index(id)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	if len(registry.nonPrincipal()) == 1 {
		return ErrLastBudget
	}

	registry.Budgets = slices.Delete(registry.Budgets, idx, idx+1)
	if registry.ActiveBudgetID == id {
		registry.ActiveBudgetID = fallbackActive(registry)
		log.Debugf("active budget %s deleted, switching to %s", id, registry.ActiveBudgetID)
	}
	if err := s.repo.Save(ctx, registry); err != nil {
		return err
	}

	// The budget is gone from the registry even if a subscriber fails; the
	// leftover documents are unreachable and get replaced if the id is reused.
	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetDeletedType, event_bus.BudgetDeleted{BudgetID: id}))
	if err != nil {
		log.Errorf("failed to purge data of deleted budget %s: %v", id, err)
		return err
	}
	return nil
}

func (s *ServiceImpl) Rename(ctx context.Context, id, name string) (Budget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Budget{}, domainerr.Validation("budget name must not be empty")
	}
	return s.update(ctx, id, func(b *Budget) { b.Name = name })
}

func (s *ServiceImpl) SetIcon(ctx context.Context, id, icon string) (Budget, error) {
	return s.update(ctx, id, func(b *Budget) { b.Icon = icon })
}

func (s *ServiceImpl) update(ctx context.Context, id string, apply func(b *Budget)) (Budget, error) {
	registry, err := s.load(ctx)
	if err != nil {
		return Budget{}, err
	}
	idx := registry.index(id)
	if idx == -1 {
		return Budget{}, fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	apply(&registry.Budgets[idx])
	if err := s.repo.Save(ctx, registry); err != nil {
		return Budget{}, err
	}
	return registry.Budgets[idx], nil
}

func (s *ServiceImpl) SetActive(ctx context.Context, id string) (Budget, error) {
	registry, err := s.load(ctx)
	if err != nil {
		return Budget{}, err
	}
	idx := registry.index(id)
	if idx == -1 {
		return Budget{}, fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	previous := registry.ActiveBudgetID
	registry.ActiveBudgetID = id
	if err := s.repo.Save(ctx, registry); err != nil {
		return Budget{}, err
	}

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetActivatedType, event_bus.BudgetActivated{
		BudgetID:         id,
		PreviousBudgetID: previous,
	}))
	if err != nil {
		log.Errorf("failed to publish budget activated event: %v", err)
		return Budget{}, err
	}
	return registry.Budgets[idx], nil
}

func (s *ServiceImpl) Active(ctx context.Context) (Budget, error) {
	registry, err := s.load(ctx)
	if err != nil {
		return Budget{}, err
	}
	return registry.Budgets[registry.index(registry.ActiveBudgetID)], nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Budget, error) {
	registry, err := s.load(ctx)
	if err != nil {
		return Budget{}, err
	}
	idx := registry.index(id)
	if idx == -1 {
		return Budget{}, fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	return registry.Budgets[idx], nil
}

func (s *ServiceImpl) List(ctx context.Context) ([]Budget, error) {
	registry, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return registry.Budgets, nil
}

func (s *ServiceImpl) ListNonPrincipal(ctx context.Context) ([]Budget, error) {
	registry, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return registry.nonPrincipal(), nil
}

func (s *ServiceImpl) Principal(ctx context.Context) (Budget, error) {
	return s.Get(ctx, PrincipalID)
}
