package sse

import (
	"time"

	"github.com/priceforge/priceforge_api/internal/models"
)

// TemplateNotifier is the interface services use to emit template events.
type TemplateNotifier interface {
	NotifyTemplateCreated(tpl *models.Template)
	NotifyTemplateUpdated(tpl *models.Template)
	NotifyTemplateDeleted(tpl *models.Template)
}

// HubNotifier implements TemplateNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyTemplateCreated(tpl *models.Template) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(templateToEvent(EventTemplateCreated, tpl))
}

func (n *HubNotifier) NotifyTemplateUpdated(tpl *models.Template) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(templateToEvent(EventTemplateUpdated, tpl))
}

func (n *HubNotifier) NotifyTemplateDeleted(tpl *models.Template) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(templateToEvent(EventTemplateDeleted, tpl))
}

func templateToEvent(eventType EventType, tpl *models.Template) *TemplateEvent {
	return &TemplateEvent{
		Event:      eventType,
		ShopID:     tpl.ShopID,
		TemplateID: tpl.ID,
		PublicID:   tpl.PublicID,
		Name:       tpl.Name,
		Scope:      string(tpl.Scope),
		IsActive:   tpl.IsActive,
		Timestamp:  time.Now(),
	}
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyTemplateCreated(tpl *models.Template) {}
func (n *NopNotifier) NotifyTemplateUpdated(tpl *models.Template) {}
func (n *NopNotifier) NotifyTemplateDeleted(tpl *models.Template) {}
