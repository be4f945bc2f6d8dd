package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "intake/pkg/domain"
)

func TestActionCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventSlotWaived.Category())
	assert.Equal(t, CategoryCompliance, EventPaymentApplied.Category())
	assert.Equal(t, CategoryOperations, EventPhaseNavigated.Category())
	assert.Equal(t, CategoryOperations, Action("something_new").Category(), "unknown actions default to operations")
}

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()
	publisher := NewPublisher(NewMemoryStore())
	appID := id.NewApplicationID()

	require.NoError(t, publisher.Emit(ctx, Event{
		Action:        EventFileUploaded,
		ApplicationID: appID,
		SlotCode:      "court-records",
	}))

	events, err := publisher.List(ctx, appID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CategoryCompliance, events[0].Category, "category filled from the action")
	assert.False(t, events[0].Timestamp.IsZero(), "timestamp defaulted")

	t.Run("explicit category and timestamp preserved", func(t *testing.T) {
		ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, publisher.Emit(ctx, Event{
			Action:        EventPhaseNavigated,
			Category:      CategoryCompliance,
			Timestamp:     ts,
			ApplicationID: appID,
		}))
		events, err := publisher.List(ctx, appID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, CategoryCompliance, events[1].Category)
		assert.Equal(t, ts, events[1].Timestamp)
	})
}

func TestMemoryStoreScopesByApplication(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first, second := id.NewApplicationID(), id.NewApplicationID()

	require.NoError(t, store.Append(ctx, Event{Action: EventApplicationOpen, ApplicationID: first}))
	require.NoError(t, store.Append(ctx, Event{Action: EventApplicationOpen, ApplicationID: second}))

	events, err := store.ListByApplication(ctx, first)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first, events[0].ApplicationID)
}

func TestFanout(t *testing.T) {
	ctx := context.Background()

	t.Run("appends to primary and forwards a copy", func(t *testing.T) {
		fan := NewFanout(NewMemoryStore(), 4)
		appID := id.NewApplicationID()
		event := Event{Action: EventSlotWaived, ApplicationID: appID, SlotCode: "police-report"}

		require.NoError(t, fan.Append(ctx, event))

		stored, err := fan.ListByApplication(ctx, appID)
		require.NoError(t, err)
		require.Len(t, stored, 1)

		select {
		case forwarded := <-fan.Inbox():
			assert.Equal(t, event.Action, forwarded.Action)
			assert.Equal(t, event.SlotCode, forwarded.SlotCode)
		default:
			t.Fatal("expected a forwarded event in the inbox")
		}
	})

	t.Run("full inbox drops the forward, never the append", func(t *testing.T) {
		fan := NewFanout(NewMemoryStore(), 1)
		appID := id.NewApplicationID()

		require.NoError(t, fan.Append(ctx, Event{Action: EventFileUploaded, ApplicationID: appID}))
		require.NoError(t, fan.Append(ctx, Event{Action: EventSlotWaived, ApplicationID: appID}))

		stored, err := fan.ListByApplication(ctx, appID)
		require.NoError(t, err)
		assert.Len(t, stored, 2, "both events reach the primary store")
		assert.Len(t, fan.Inbox(), 1, "only the first forward fit")
	})
}
