package budget

import (
	"context"
	"testing"
	"time"

	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/internal/event_bus"
	"github.com/monargent/monargent/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

var now = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	service *ServiceImpl
	bus     *event_bus.EventBus
	store   *docstore.MemoryStore
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	bus := event_bus.NewEventBus()
	clock := &utils.MockClock{FixedNow: now}
	return fixture{service: NewService(NewRepository(store), bus, clock), bus: bus, store: store}
}

func TestServiceImpl_Bootstrap(t *testing.T) {
	t.Run("should seed the principal and the default budget", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		budgets, err := f.service.List(ctx)
		require.NoError(t, err)
		active, err := f.service.Active(ctx)
		require.NoError(t, err)

		// then
		require.Len(t, budgets, 2)
		assert.Equal(t, PrincipalID, budgets[0].ID)
		assert.True(t, budgets[0].IsPrincipal)
		assert.Equal(t, DefaultID, budgets[1].ID)
		assert.False(t, budgets[1].IsPrincipal)
		assert.Equal(t, DefaultID, active.ID)
	})

	t.Run("should repair a stored registry without principal", func(t *testing.T) {
		// given
		f := setup(t)
		require.NoError(t, f.store.Put(ctx, documentKey,
			[]byte(`{"budgets":[{"id":"b1","name":"Vacances","isPrincipal":true}],"activeBudgetId":"gone"}`)))

		// when
		budgets, err := f.service.List(ctx)
		require.NoError(t, err)
		active, err := f.service.Active(ctx)
		require.NoError(t, err)

		// then
		require.Len(t, budgets, 2)
		assert.Equal(t, PrincipalID, budgets[0].ID)
		assert.False(t, budgets[1].IsPrincipal)
		assert.Equal(t, "b1", active.ID)
	})

	t.Run("should fall back to defaults when the stored registry is corrupt", func(t *testing.T) {
		// given
		f := setup(t)
		require.NoError(t, f.store.Put(ctx, documentKey, []byte(`[[[`)))

		// when
		budgets, err := f.service.List(ctx)

		// then
		require.NoError(t, err)
		assert.Len(t, budgets, 2)
	})
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create a regular budget and announce it", func(t *testing.T) {
		// given
		f := setup(t)
		var created []string
		event_bus.SubscribeTyped(f.bus, event_bus.BudgetCreatedType, func(e event_bus.EventT[event_bus.BudgetCreated]) error {
			created = append(created, e.Data.BudgetID)
			return nil
		})

		// when
		b, err := f.service.Create(ctx, "  Vacances ", "🏖️")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Vacances", b.Name)
		assert.False(t, b.IsPrincipal)
		assert.Equal(t, now, b.CreatedAt)
		assert.Equal(t, []string{b.ID}, created)
		stored, err := f.service.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b, stored)
	})

	t.Run("should reject an empty name", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.Create(ctx, "   ", "")

		// then
		assert.ErrorIs(t, err, domainerr.ErrValidation)
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	t.Run("should never delete the principal", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		err := f.service.Delete(ctx, PrincipalID)

		// then
		assert.ErrorIs(t, err, ErrPrincipalUndeletable)
		assert.ErrorIs(t, err, domainerr.ErrInvalidOperation)
		p, err := f.service.Principal(ctx)
		require.NoError(t, err)
		assert.True(t, p.IsPrincipal)
	})

	t.Run("should keep the principal after renaming it", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		renamed, err := f.service.Rename(ctx, PrincipalID, "Tout")
		require.NoError(t, err)
		err = f.service.Delete(ctx, PrincipalID)

		// then
		assert.Equal(t, "Tout", renamed.Name)
		assert.True(t, renamed.IsPrincipal)
		assert.ErrorIs(t, err, ErrPrincipalUndeletable)
	})

	t.Run("should refuse to delete the last regular budget", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		err := f.service.Delete(ctx, DefaultID)

		// then
		assert.ErrorIs(t, err, ErrLastBudget)
	})

	t.Run("should report an unknown budget", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		err := f.service.Delete(ctx, "nope")

		// then
		assert.ErrorIs(t, err, domainerr.ErrNotFound)
	})

	t.Run("should reset the active budget to default and publish the deletion", func(t *testing.T) {
		// given
		f := setup(t)
		var deleted []string
		event_bus.SubscribeTyped(f.bus, event_bus.BudgetDeletedType, func(e event_bus.EventT[event_bus.BudgetDeleted]) error {
			deleted = append(deleted, e.Data.BudgetID)
			return nil
		})
		b, err := f.service.Create(ctx, "Vacances", "")
		require.NoError(t, err)
		_, err = f.service.SetActive(ctx, b.ID)
		require.NoError(t, err)

		// when
		err = f.service.Delete(ctx, b.ID)

		// then
		require.NoError(t, err)
		active, err := f.service.Active(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultID, active.ID)
		assert.Equal(t, []string{b.ID}, deleted)
		_, err = f.service.Get(ctx, b.ID)
		assert.ErrorIs(t, err, ErrBudgetNotFound)
	})

	t.Run("should move the active budget to another regular budget when default is deleted", func(t *testing.T) {
		// given
		f := setup(t)
		b, err := f.service.Create(ctx, "Maison", "")
		require.NoError(t, err)

		// when
		err = f.service.Delete(ctx, DefaultID)

		// then
		require.NoError(t, err)
		active, err := f.service.Active(ctx)
		require.NoError(t, err)
		assert.Equal(t, b.ID, active.ID)
	})
}

func TestServiceImpl_SetActive(t *testing.T) {
	t.Run("should switch the active budget and announce it", func(t *testing.T) {
		// given
		f := setup(t)
		var received event_bus.BudgetActivated
		event_bus.SubscribeTyped(f.bus, event_bus.BudgetActivatedType, func(e event_bus.EventT[event_bus.BudgetActivated]) error {
			received = e.Data
			return nil
		})

		// when
		b, err := f.service.SetActive(ctx, PrincipalID)

		// then
		require.NoError(t, err)
		assert.True(t, b.IsPrincipal)
		assert.Equal(t, event_bus.BudgetActivated{BudgetID: PrincipalID, PreviousBudgetID: DefaultID}, received)
	})

	t.Run("should reject an unknown budget", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.SetActive(ctx, "nope")

		// then
		assert.ErrorIs(t, err, domainerr.ErrNotFound)
	})
}

func TestServiceImpl_ListNonPrincipal(t *testing.T) {
	// given
	f := setup(t)
	_, err := f.service.Create(ctx, "Maison", "")
	require.NoError(t, err)

	// when
	budgets, err := f.service.ListNonPrincipal(ctx)

	// then
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	for _, b := range budgets {
		assert.False(t, b.IsPrincipal)
	}
}
