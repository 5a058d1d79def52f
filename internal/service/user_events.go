package service

import (
	"context"
	"fmt"
	"sync"

	"user-management-svc/internal/models"
)

// UserSavedListener reacts to a user that was just created or updated
type UserSavedListener interface {
	Name() string
	HandleUserSaved(ctx context.Context, user *models.User) error
}

// EventDispatcher runs the saved-user subscribers in registration order
type EventDispatcher struct {
	mu        sync.RWMutex
	listeners []UserSavedListener
}

// NewEventDispatcher creates a dispatcher with no subscribers
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Subscribe appends a listener
func (d *EventDispatcher) Subscribe(listener UserSavedListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// DispatchUserSaved calls every listener and stops at the first error
func (d *EventDispatcher) DispatchUserSaved(ctx context.Context, user *models.User) error {
	d.mu.RLock()
	listeners := make([]UserSavedListener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		if err := l.HandleUserSaved(ctx, user); err != nil {
			return fmt.Errorf("listener %s: %w", l.Name(), err)
		}
	}
	return nil
}
