// Package events fans order lifecycle changes out to the admin live feed and
// to Kafka.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/yemenmarket/marketplace-api/models"
)

type Type string

const (
	OrderCreated              Type = "order.created"
	OrderStatusChanged        Type = "order.status_changed"
	OrderPaymentStatusChanged Type = "order.payment_status_changed"
	OrderItemStatusChanged    Type = "order.item_status_changed"
)

type Event struct {
	Type       Type         `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Order      models.Order `json:"order"`
}

func NewOrderEvent(t Type, order models.Order) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC(), Order: order}
}

// Publisher delivers events after the change they describe is committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
