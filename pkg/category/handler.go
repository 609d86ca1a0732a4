package category

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/rest"
	"github.com/monargent/monargent/pkg/money"
	log "github.com/sirupsen/logrus"
)

type CategoryDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Type    string `json:"type"`
	BuiltIn bool   `json:"builtIn"`
}

type CreateCategoryDTO struct {
	Name string `json:"name" validate:"required"`
	Icon string `json:"icon"`
	Type string `json:"type" validate:"required,category_type"`
}

type GuessDTO struct {
	Description string `json:"description"`
	CategoryID  string `json:"category"`
}

func toDTO(c Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Icon: c.Icon, Type: string(c.Type), BuiltIn: c.BuiltIn}
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// ListCategories godoc
// @Summary List categories
// @Tags Category
// @Produce json
// @Param type query string false "income or expense"
// @Success 200 {array} CategoryDTO
// @Router /api/categories [get]
func (handler *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing categories")
	var kind money.TransactionType
	if t := r.URL.Query().Get("type"); t != "" {
		parsed, err := money.ParseTransactionType(t)
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		kind = parsed
	}
	categories, err := handler.service.List(r.Context(), kind)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, toDTO(c))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// AddCategory godoc
// @Summary Add a category
// @Tags Category
// @Accept json
// @Produce json
// @Param category body CreateCategoryDTO true "Category"
// @Success 201 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Duplicate name"
// @Router /api/categories [post]
func (handler *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding category")
	var dto CreateCategoryDTO
	if err := rest.Decode(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	c, err := handler.service.Add(r.Context(), dto.Name, dto.Icon, money.TransactionType(dto.Type))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toDTO(c))
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Transactions and recurrences using it move to the fallback category
// @Tags Category
// @Param categoryId path string true "Category ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Fallback category"
// @Router /api/categories/{categoryId} [delete]
func (handler *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting category")
	if err := handler.service.Delete(r.Context(), mux.Vars(r)["categoryId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GuessCategory godoc
// @Summary Guess the category of a description
// @Tags Category
// @Produce json
// @Param description query string true "Description"
// @Success 200 {object} GuessDTO
// @Router /api/categories/guess [get]
func (handler *Handler) GuessCategory(w http.ResponseWriter, r *http.Request) {
	description := r.URL.Query().Get("description")
	rest.WriteJSON(w, http.StatusOK, GuessDTO{Description: description, CategoryID: handler.service.Guess(description)})
}
