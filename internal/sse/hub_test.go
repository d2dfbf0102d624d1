package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceforge/priceforge_api/internal/models"
)

func TestHubBroadcastScopedToShop(t *testing.T) {
	hub := NewHub()
	a := hub.Register("client-a", 1)
	b := hub.Register("client-b", 2)
	defer hub.Unregister("client-a")
	defer hub.Unregister("client-b")

	hub.Broadcast(&TemplateEvent{Event: EventTemplateUpdated, ShopID: 1, TemplateID: 42})

	select {
	case data := <-a.Events:
		var event TemplateEvent
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, EventTemplateUpdated, event.Event)
		assert.Equal(t, 42, event.TemplateID)
	default:
		t.Fatal("client of shop 1 received nothing")
	}

	select {
	case <-b.Events:
		t.Fatal("client of shop 2 must not receive shop 1 events")
	default:
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	c := hub.Register("client", 1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister("client")
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c.Events
	assert.False(t, open)

	// Unregistering twice is a no-op.
	hub.Unregister("client")
}

func TestNotifierSkipsWithoutClients(t *testing.T) {
	hub := NewHub()
	notifier := NewHubNotifier(hub)

	// No clients registered; must not panic or block.
	notifier.NotifyTemplateCreated(&models.Template{ID: 1, ShopID: 1})
	notifier.NotifyTemplateDeleted(&models.Template{ID: 1, ShopID: 1})
}

func TestNotifierEventPayload(t *testing.T) {
	hub := NewHub()
	notifier := NewHubNotifier(hub)
	c := hub.Register("client", 7)
	defer hub.Unregister("client")

	notifier.NotifyTemplateCreated(&models.Template{
		ID:       3,
		ShopID:   7,
		PublicID: "pub-3",
		Name:     "Banner pricing",
		Scope:    models.ScopeGlobal,
		IsActive: true,
	})

	data := <-c.Events
	var event TemplateEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, EventTemplateCreated, event.Event)
	assert.Equal(t, "Banner pricing", event.Name)
	assert.Equal(t, "GLOBAL", event.Scope)
	assert.True(t, event.IsActive)
	assert.False(t, event.Timestamp.IsZero())
}
