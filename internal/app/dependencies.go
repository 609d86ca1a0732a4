package app

import (
	"database/sql"
	"fmt"

	"github.com/monargent/monargent/internal/config"
	"github.com/monargent/monargent/internal/database"
	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/internal/event_bus"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/backup"
	"github.com/monargent/monargent/pkg/budget"
	"github.com/monargent/monargent/pkg/category"
	"github.com/monargent/monargent/pkg/command"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/recurrence"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	BudgetService *budget.ServiceImpl
	BudgetHandler *budget.Handler

	CategoryService *category.ServiceImpl
	CategoryHandler *category.Handler

	LedgerService *ledger.ServiceImpl
	LedgerHandler *ledger.Handler

	RecurrenceService *recurrence.ServiceImpl
	RecurrenceHandler *recurrence.Handler

	CommandParser  *command.Parser
	CommandHandler *command.Handler

	BackupService *backup.Service
	BackupHandler *backup.Handler

	Session        *Session
	SessionHandler *SessionHandler
}

// OpenStore opens the document store selected by the storage configuration.
// The returned function releases it.
func OpenStore(cfg config.Storage) (docstore.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "memory":
		log.Warn("Using the in-memory store, nothing will be kept after exit")
		return docstore.NewMemoryStore(), noop, nil
	case "file":
		store, err := docstore.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "sqlite":
		db, err := database.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return docstore.NewSQLiteStore(db), closer(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func closer(db *sql.DB) func() error {
	return func() error {
		return db.Close()
	}
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(store docstore.Store, cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	initialBalance, err := decimal.NewFromString(cfg.Ledger.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger.initialbalance %q: %w", cfg.Ledger.InitialBalance, err)
	}
	rules := make([]category.KeywordRule, 0, len(cfg.Categories.Rules))
	for _, rule := range cfg.Categories.Rules {
		rules = append(rules, category.KeywordRule{CategoryID: rule.CategoryID, Keywords: rule.Keywords})
	}

	deps := &Dependencies{}
	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus()

	deps.BudgetService = budget.NewService(budget.NewRepository(store), deps.EventBus, clock)
	deps.BudgetHandler = budget.NewHandler(deps.BudgetService)

	deps.CategoryService = category.NewService(category.NewRepository(store), deps.EventBus, rules)
	deps.CategoryHandler = category.NewHandler(deps.CategoryService)

	deps.LedgerService = ledger.NewService(ledger.NewRepository(store), deps.BudgetService, clock, initialBalance)
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerService)

	deps.RecurrenceService = recurrence.NewService(recurrence.NewRepository(store), deps.BudgetService, clock)
	deps.RecurrenceHandler = recurrence.NewHandler(deps.RecurrenceService)

	deps.CommandParser = command.NewParser(deps.CategoryService)
	deps.CommandHandler = command.NewHandler(deps.CommandParser, deps.LedgerService)

	deps.BackupService = backup.NewService(deps.BudgetService, deps.LedgerService, deps.RecurrenceService, deps.CategoryService, clock)
	deps.BackupHandler = backup.NewHandler(deps.BackupService)

	deps.Session = NewSession(deps.BudgetService, deps.LedgerService, deps.RecurrenceService, clock)
	deps.SessionHandler = NewSessionHandler(deps.Session)

	subscribeCascades(deps)
	return deps, nil
}

// subscribeCascades keeps the ledger and the recurrence engine in step with
// the budget registry and the category directory.
func subscribeCascades(deps *Dependencies) {
	event_bus.SubscribeTyped(deps.EventBus, event_bus.BudgetCreatedType, func(e event_bus.EventT[event_bus.BudgetCreated]) error {
		if err := deps.LedgerService.Initialize(e.Context(), e.Data.BudgetID); err != nil {
			return err
		}
		return deps.RecurrenceService.Initialize(e.Context(), e.Data.BudgetID)
	})
	event_bus.SubscribeTyped(deps.EventBus, event_bus.BudgetDeletedType, func(e event_bus.EventT[event_bus.BudgetDeleted]) error {
		if err := deps.LedgerService.Purge(e.Context(), e.Data.BudgetID); err != nil {
			return err
		}
		return deps.RecurrenceService.Purge(e.Context(), e.Data.BudgetID)
	})
	event_bus.SubscribeTyped(deps.EventBus, event_bus.BudgetActivatedType, func(e event_bus.EventT[event_bus.BudgetActivated]) error {
		deps.LedgerService.InvalidateAll()
		return nil
	})
	event_bus.SubscribeTyped(deps.EventBus, event_bus.CategoryDeletedType, func(e event_bus.EventT[event_bus.CategoryDeleted]) error {
		moved, err := deps.LedgerService.ReassignCategory(e.Context(), e.Data.CategoryID, e.Data.ReplacementID)
		if err != nil {
			return err
		}
		scheduled, err := deps.RecurrenceService.ReassignCategory(e.Context(), e.Data.CategoryID, e.Data.ReplacementID)
		if err != nil {
			return err
		}
		log.Debugf("category %s replaced by %s in %d transaction(s) and %d recurrence(s)",
			e.Data.CategoryID, e.Data.ReplacementID, moved, scheduled)
		return nil
	})
}
