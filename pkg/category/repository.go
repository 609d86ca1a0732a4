package category

import (
	"context"
	"errors"

	"github.com/monargent/monargent/internal/docstore"
	log "github.com/sirupsen/logrus"
)

const documentKey = "categories"

var ErrCategoriesNotStored = errors.New("categories not stored")

type Repository interface {
	// Load returns ErrCategoriesNotStored when nothing usable is stored.
	Load(ctx context.Context) ([]Category, error)
	Save(ctx context.Context, categories []Category) error
}

type RepositoryImpl struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *RepositoryImpl {
	return &RepositoryImpl{store: store}
}

type categoryDocument struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Type    string `json:"type"`
	BuiltIn bool   `json:"builtIn,omitempty"`
}

func (r *RepositoryImpl) Load(ctx context.Context) ([]Category, error) {
	docs, err := docstore.Load[[]categoryDocument](ctx, r.store, documentKey)
	if errors.Is(err, docstore.ErrDocumentNotFound) {
		return nil, ErrCategoriesNotStored
	}
	if errors.Is(err, docstore.ErrCorruptDocument) {
		log.Warnf("ignoring stored categories: %v", err)
		return nil, ErrCategoriesNotStored
	}
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, fromDocument(d))
	}
	return categories, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, categories []Category) error {
	docs := make([]categoryDocument, 0, len(categories))
	for _, c := range categories {
		docs = append(docs, toDocument(c))
	}
	if err := docstore.Save(ctx, r.store, documentKey, docs); err != nil {
		log.Errorf("failed to save categories: %v", err)
		return err
	}
	return nil
}
