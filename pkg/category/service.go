package category

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/event_bus"
	"github.com/monargent/monargent/pkg/money"
	log "github.com/sirupsen/logrus"
)

var ErrCategoryNotFound = domainerr.New(domainerr.ErrNotFound, "category not found")
var ErrOtherUndeletable = domainerr.New(domainerr.ErrInvalidOperation, "the fallback category cannot be deleted")
var ErrDuplicateCategory = domainerr.New(domainerr.ErrInvalidOperation, "a category with this name already exists")

type Service interface {
	Get(ctx context.Context, id string) (Category, error)
	// List returns categories sorted by name. An empty type lists all of them.
	List(ctx context.Context, t money.TransactionType) ([]Category, error)
	Add(ctx context.Context, name, icon string, t money.TransactionType) (Category, error)
	// Resolve finds a category by id or by case-insensitive name, creating it
	// when neither matches.
	Resolve(ctx context.Context, ref string, t money.TransactionType) (Category, error)
	// Delete removes the category; every reference to it is moved to OtherID
	// before Delete returns.
	Delete(ctx context.Context, id string) error
	Guess(description string) string
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	rules    []KeywordRule
}

// NewService creates the category directory. extraRules are checked before
// DefaultRules.
func NewService(repo Repository, eventBus *event_bus.EventBus, extraRules []KeywordRule) *ServiceImpl {
	rules := make([]KeywordRule, 0, len(extraRules)+len(DefaultRules))
	rules = append(rules, extraRules...)
	rules = append(rules, DefaultRules...)
	return &ServiceImpl{repo: repo, eventBus: eventBus, rules: rules}
}

func (s *ServiceImpl) load(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.Load(ctx)
	if errors.Is(err, ErrCategoriesNotStored) {
		return slices.Clone(DefaultCategories), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if !slices.ContainsFunc(categories, func(c Category) bool { return c.ID == OtherID }) {
		categories = append(categories, DefaultCategories[len(DefaultCategories)-1])
	}
	return categories, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Category, error) {
	categories, err := s.load(ctx)
	if err != nil {
		return Category{}, err
	}
	idx := slices.IndexFunc(categories, func(c Category) bool { return c.ID == id })
	if idx == -1 {
		return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return categories[idx], nil
}

func (s *ServiceImpl) List(ctx context.Context, t money.TransactionType) ([]Category, error) {
	categories, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Category, 0, len(categories))
	for _, c := range categories {
		if t == "" || c.Type == t {
			result = append(result, c)
		}
	}
	slices.SortFunc(result, func(a, b Category) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return result, nil
}

func (s *ServiceImpl) Add(ctx context.Context, name, icon string, t money.TransactionType) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, domainerr.Validation("category name must not be empty")
	}
	if !t.Valid() {
		return Category{}, domainerr.Validation("invalid category type %q", t)
	}
	categories, err := s.load(ctx)
	if err != nil {
		return Category{}, err
	}
	if findByName(categories, name) != -1 {
		return Category{}, fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}

	c := Category{ID: uuid.NewString(), Name: name, Icon: icon, Type: t}
	if err := s.repo.Save(ctx, append(categories, c)); err != nil {
		return Category{}, err
	}
	log.Debugf("category %s (%s) added", c.Name, c.ID)
	return c, nil
}

func (s *ServiceImpl) Resolve(ctx context.Context, ref string, t money.TransactionType) (Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return s.Get(ctx, OtherID)
	}
	categories, err := s.load(ctx)
	if err != nil {
		return Category{}, err
	}
	if idx := slices.IndexFunc(categories, func(c Category) bool { return c.ID == ref }); idx != -1 {
		return categories[idx], nil
	}
	if idx := findByName(categories, ref); idx != -1 {
		return categories[idx], nil
	}
	if !t.Valid() {
		t = money.Expense
	}
	return s.Add(ctx, ref, "", t)
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	if id == OtherID {
		return ErrOtherUndeletable
	}
	categories, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(categories, func(c Category) bool { return c.ID == id })
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}

	if err := s.repo.Save(ctx, slices.Delete(categories, idx, idx+1)); err != nil {
		return err
	}

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.CategoryDeletedType, event_bus.CategoryDeleted{
		CategoryID:    id,
		ReplacementID: OtherID,
	}))
	if err != nil {
		log.Errorf("failed to reassign references of deleted category %s: %v", id, err)
		return err
	}
	return nil
}

func (s *ServiceImpl) Guess(description string) string {
	return Guess(s.rules, description)
}

func findByName(categories []Category, name string) int {
	return slices.IndexFunc(categories, func(c Category) bool {
		return strings.EqualFold(c.Name, name)
	})
}
