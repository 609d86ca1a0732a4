package backup

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/rest"
	"github.com/monargent/monargent/internal/utils"
	log "github.com/sirupsen/logrus"
)

// maxImportSize bounds the body of an import request.
const maxImportSize = 32 << 20

type SummaryDTO struct {
	Transactions    int `json:"transactions"`
	Recurrences     int `json:"recurrences"`
	CategoriesAdded int `json:"categoriesAdded"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) attachment(w http.ResponseWriter, extension string) {
	name := fmt.Sprintf("mon-budget-%s.%s", handler.service.clock.Now().Format(utils.DateLayout), extension)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

// ExportJSON godoc
// @Summary Export a budget as JSON
// @Tags Backup
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Success 200 {file} file
// @Router /api/budgets/{budgetId}/export.json [get]
func (handler *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting budget as JSON")
	data, err := handler.service.ExportJSON(r.Context(), mux.Vars(r)["budgetId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	handler.attachment(w, "json")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write export: %v", err)
	}
}

// ExportCSV godoc
// @Summary Export the transactions of a budget as CSV
// @Tags Backup
// @Produce text/csv
// @Param budgetId path string true "Budget ID"
// @Success 200 {file} file
// @Router /api/budgets/{budgetId}/export.csv [get]
func (handler *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting budget as CSV")
	data, err := handler.service.ExportCSV(r.Context(), mux.Vars(r)["budgetId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	handler.attachment(w, "csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write export: %v", err)
	}
}

// ImportJSON godoc
// @Summary Replace a budget with the content of a JSON export
// @Description Versions 1.x and 2.x are accepted. Nothing changes when the file is rejected.
// @Tags Backup
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Success 200 {object} SummaryDTO
// @Failure 400 {object} rest.ErrorDTO
// @Failure 409 {object} rest.ErrorDTO "Principal budget"
// @Router /api/budgets/{budgetId}/import [post]
func (handler *Handler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	log.Debug("Importing budget")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		rest.WriteError(w, domainerr.Validation("failed to read import: %v", err))
		return
	}
	summary, err := handler.service.ImportJSON(r.Context(), mux.Vars(r)["budgetId"], data)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SummaryDTO{
		Transactions:    summary.Transactions,
		Recurrences:     summary.Recurrences,
		CategoriesAdded: summary.CategoriesAdded,
	})
}
