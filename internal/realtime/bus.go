package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dinein/internal/domain"
)

// Типы событий, рассылаемых клиентам
const (
	EventNewOrder             = "new-order"
	EventOrderStatusUpdated   = "order-status-updated"
	EventPaymentStatusUpdated = "payment-status-updated"
)

const superadminChannel = "superadmin"

var ErrUnknownChannel = errors.New("unknown channel")

// Event конверт события
type Event struct {
	Channel string    `json:"channel"`
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// EventBus publishes typed events to named channels. Delivery is best-effort
// and at-most-once; nothing is persisted or replayed.
type EventBus interface {
	Publish(ctx context.Context, channel, eventType string, payload any) error
}

func RestaurantChannel(id int64) string { return "restaurant:" + strconv.FormatInt(id, 10) }

// OrderChannel is keyed by the public order number, not the sequential id.
func OrderChannel(orderNumber string) string { return "order:" + orderNumber }

func AdminChannel(id int64) string { return "admin:" + strconv.FormatInt(id, 10) }

func SuperadminChannel() string { return superadminChannel }

// ValidChannel accepts only the known channel families.
func ValidChannel(name string) bool {
	if name == superadminChannel {
		return true
	}
	family, ref, ok := strings.Cut(name, ":")
	if !ok {
		return false
	}
	switch family {
	case "order":
		return domain.ValidOrderNumber(ref)
	case "restaurant", "admin":
		n, err := strconv.ParseInt(ref, 10, 64)
		return err == nil && n > 0
	}
	return false
}

// MultiBus fans a publish out to several buses.
type MultiBus []EventBus

func (m MultiBus) Publish(ctx context.Context, channel, eventType string, payload any) error {
	var errs []error
	for _, b := range m {
		if b == nil {
			continue
		}
		if err := b.Publish(ctx, channel, eventType, payload); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", b, err))
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
