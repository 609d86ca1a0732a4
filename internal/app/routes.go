package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Budgets
	r.HandleFunc("/api/budgets", deps.BudgetHandler.ListBudgets).Methods("GET")
	r.HandleFunc("/api/budgets", deps.BudgetHandler.CreateBudget).Methods("POST")
	r.HandleFunc("/api/budgets/active", deps.BudgetHandler.GetActiveBudget).Methods("GET")
	r.HandleFunc("/api/budgets/active", deps.SessionHandler.SwitchBudget).Methods("PUT")
	r.HandleFunc("/api/budgets/{budgetId}", deps.BudgetHandler.UpdateBudget).Methods("PUT")
	r.HandleFunc("/api/budgets/{budgetId}", deps.BudgetHandler.DeleteBudget).Methods("DELETE")

	// Transactions
	r.HandleFunc("/api/budgets/{budgetId}/transactions", deps.LedgerHandler.ListTransactions).Methods("GET")
	r.HandleFunc("/api/budgets/{budgetId}/transactions", deps.LedgerHandler.AddTransaction).Methods("POST")
	r.HandleFunc("/api/budgets/{budgetId}/transactions/{transactionId}", deps.LedgerHandler.UpdateTransaction).Methods("PUT")
	r.HandleFunc("/api/budgets/{budgetId}/transactions/{transactionId}", deps.LedgerHandler.DeleteTransaction).Methods("DELETE")
	r.HandleFunc("/api/budgets/{budgetId}/balance", deps.LedgerHandler.GetBalance).Methods("GET")
	r.HandleFunc("/api/budgets/{budgetId}/initial-balance", deps.LedgerHandler.SetInitialBalance).Methods("PUT")
	r.HandleFunc("/api/budgets/{budgetId}/stats", deps.LedgerHandler.GetStats).Methods("GET")
	r.HandleFunc("/api/budgets/{budgetId}/category-usage", deps.LedgerHandler.GetCategoryUsage).Methods("GET")

	// Voice and text commands
	r.HandleFunc("/api/budgets/{budgetId}/commands", deps.CommandHandler.ExecuteCommand).Methods("POST")

	// Recurrences
	r.HandleFunc("/api/budgets/{budgetId}/recurrences", deps.RecurrenceHandler.ListRecurrences).Methods("GET")
	r.HandleFunc("/api/budgets/{budgetId}/recurrences", deps.RecurrenceHandler.CreateRecurrence).Methods("POST")
	r.HandleFunc("/api/budgets/{budgetId}/recurrences/{recurrenceId}", deps.RecurrenceHandler.UpdateRecurrence).Methods("PUT")
	r.HandleFunc("/api/budgets/{budgetId}/recurrences/{recurrenceId}", deps.RecurrenceHandler.DeleteRecurrence).Methods("DELETE")
	r.HandleFunc("/api/recurrences/process", deps.SessionHandler.ProcessRecurrences).Methods("POST")

	// Export / import
	r.HandleFunc("/api/budgets/{budgetId}/export.json", deps.BackupHandler.ExportJSON).Methods("GET")
	r.HandleFunc("/api/budgets/{budgetId}/export.csv", deps.BackupHandler.ExportCSV).Methods("GET")
	r.HandleFunc("/api/budgets/{budgetId}/import", deps.BackupHandler.ImportJSON).Methods("POST")

	// Categories
	r.HandleFunc("/api/categories", deps.CategoryHandler.ListCategories).Methods("GET")
	r.HandleFunc("/api/categories", deps.CategoryHandler.AddCategory).Methods("POST")
	r.HandleFunc("/api/categories/guess", deps.CategoryHandler.GuessCategory).Methods("GET")
	r.HandleFunc("/api/categories/{categoryId}", deps.CategoryHandler.DeleteCategory).Methods("DELETE")
}
