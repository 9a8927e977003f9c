// Package notify delivers booking lifecycle events to an external webhook.
// It is a collaborator of the booking core: delivery is fire-and-forget and
// a failed notification never affects the booking state that caused it.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/maelh/locmat/internal/event"
	"github.com/maelh/locmat/internal/metrics"
)

// DefaultDebounce is how long events for one client are collected before a
// single batched notification goes out. Near-simultaneous bookings from the
// same client (bulk form submissions) produce one notification, not many.
const DefaultDebounce = 2 * time.Second

// Payload is the body posted to the webhook endpoint: all events collected
// for one client during the debounce window.
type Payload struct {
	Client string        `json:"client"`
	Events []event.Event `json:"events"`
}

// Notifier batches lifecycle events per client and posts them to a webhook
// URL behind a circuit breaker.
type Notifier struct {
	url      string
	debounce time.Duration
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker

	mu      sync.Mutex
	pending map[string][]event.Event
}

// New creates a notifier posting to url. A non-positive debounce falls back
// to DefaultDebounce.
func New(url string, debounce time.Duration) *Notifier {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "notify-webhook",
		Interval: 15 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("notification circuit breaker state changed")
		},
	})

	return &Notifier{
		url:      url,
		debounce: debounce,
		client:   resty.New().SetTimeout(10 * time.Second).SetRetryCount(0),
		breaker:  breaker,
		pending:  make(map[string][]event.Event),
	}
}

// Handle queues an event for delivery. Subscribe this to the event bus.
func (n *Notifier) Handle(e event.Event) {
	key := clientKey(e)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.pending[key] = append(n.pending[key], e)
	if len(n.pending[key]) == 1 {
		time.AfterFunc(n.debounce, func() { n.flush(key) })
	}
}

// flush delivers and clears the batch collected for one client.
func (n *Notifier) flush(key string) {
	n.mu.Lock()
	events := n.pending[key]
	delete(n.pending, key)
	n.mu.Unlock()

	if len(events) == 0 {
		return
	}

	_, err := n.breaker.Execute(func() (any, error) {
		resp, err := n.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(Payload{Client: key, Events: events}).
			Post(n.url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, &deliveryError{status: resp.StatusCode()}
		}
		return nil, nil
	})

	if err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		log.WithFields(log.Fields{
			"client": key,
			"events": len(events),
			"error":  err,
		}).Warn("notification delivery failed")
		return
	}

	metrics.NotificationsSent.WithLabelValues("delivered").Inc()
	log.WithFields(log.Fields{
		"client": key,
		"events": len(events),
	}).Debug("notification delivered")
}

// clientKey picks the identity bookings are grouped under: contact email,
// then client name, then a shared fallback.
func clientKey(e event.Event) string {
	if e.Booking == nil {
		return "unknown"
	}
	if e.Booking.ContactEmail != "" {
		return e.Booking.ContactEmail
	}
	if e.Booking.ClientName != "" {
		return e.Booking.ClientName
	}
	return "unknown"
}

type deliveryError struct {
	status int
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.status)
}
