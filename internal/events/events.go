// Package events carries booking ledger changes to whoever is listening:
// tablets on the live stream (through Hub or RedisBus) and downstream
// consumers on the broker (AMQPPublisher).
package events

import (
	"context"
	"errors"
	"time"

	"github.com/lalith-99/nextup/internal/models"
)

type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingStatusChanged Type = "booking.status_changed"
)

// Event is the wire payload on every transport.
type Event struct {
	Type    Type           `json:"type"`
	ShopID  string         `json:"shopId"`
	Booking models.Booking `json:"booking"`
	At      time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers a shop's events until cancel is called or ctx ends.
// The channel is closed after that.
type Subscriber interface {
	Subscribe(ctx context.Context, shopID string) (events <-chan Event, cancel func(), err error)
}

// Bus is both ends: what the stream handler and the ledger share.
type Bus interface {
	Publisher
	Subscriber
}

// Fanout publishes to every publisher, even when one of them fails.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
