package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/maelh/locmat/internal/model"
)

// Event types published on booking lifecycle transitions.
const (
	BookingCreated  = "booking_created"
	BookingUpdated  = "booking_updated"
	BookingStarted  = "booking_started"
	BookingFinished = "booking_finished"
	BookingRejected = "booking_rejected"
	BookingDeleted  = "booking_deleted"
)

// Event is a lifecycle notification. The booking is a snapshot taken at
// publish time; for BookingDeleted it is the record as it was before removal.
type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Booking *model.Booking `json:"booking"`
}

// Bus fans lifecycle events out to subscribers. Dispatch is asynchronous and
// fire-and-forget: a slow or failing subscriber never blocks or rolls back
// the state change that produced the event.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future events. Handlers run on their
// own goroutine per event and must do their own synchronization.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers an event to every subscriber. Safe to call on a nil bus.
func (b *Bus) Publish(eventType string, booking *model.Booking) {
	if b == nil {
		return
	}

	evt := Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		At:      time.Now(),
		Booking: booking,
	}

	b.mu.RLock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		go func(fn func(Event)) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"event_id": evt.ID,
						"type":     evt.Type,
						"panic":    r,
					}).Error("event subscriber panicked")
				}
			}()
			fn(evt)
		}(fn)
	}
}
