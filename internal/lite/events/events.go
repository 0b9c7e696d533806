// Package events carries catalog mutations between replicas over Kafka so
// every lite engine drops its cached index when a product changes.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/kafka"
)

type Type string

const (
	ItemCreated Type = "created"
	ItemUpdated Type = "updated"
	ItemDeleted Type = "deleted"
)

// Event is one catalog mutation.
type Event struct {
	Type       Type      `json:"type"`
	ItemID     int64     `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) Validate() error {
	switch e.Type {
	case ItemCreated, ItemUpdated, ItemDeleted:
	default:
		return fmt.Errorf("%w: unknown event type %q", apperrors.ErrInvalidInput, e.Type)
	}
	if e.ItemID <= 0 {
		return fmt.Errorf("%w: item_id must be positive", apperrors.ErrInvalidInput)
	}
	return nil
}

// Hooks receives catalog mutations. *lite.Engine implements it.
type Hooks interface {
	OnItemCreated(ctx context.Context, itemID int64) error
	OnItemUpdated(ctx context.Context, itemID int64) error
	OnItemDeleted(ctx context.Context, itemID int64) error
}

// Apply dispatches ev to the matching hook.
func Apply(ctx context.Context, hooks Hooks, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	switch ev.Type {
	case ItemCreated:
		return hooks.OnItemCreated(ctx, ev.ItemID)
	case ItemUpdated:
		return hooks.OnItemUpdated(ctx, ev.ItemID)
	default:
		return hooks.OnItemDeleted(ctx, ev.ItemID)
	}
}

// Writer is satisfied by *kafka.Producer.
type Writer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher writes catalog events keyed by item id, so mutations of one
// item stay ordered within a partition.
type Publisher struct {
	writer Writer
	now    func() time.Time
}

func NewPublisher(w Writer) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	if err := p.writer.Publish(ctx, kafka.Event{
		Key:     strconv.FormatInt(ev.ItemID, 10),
		Value:   ev,
		Headers: map[string]string{"event-type": string(ev.Type)},
	}); err != nil {
		return fmt.Errorf("publishing %s event for item %d: %w", ev.Type, ev.ItemID, err)
	}
	return nil
}

// HandleMessage returns a Kafka MessageHandler applying each catalog event
// to hooks. Undecodable or invalid messages are logged and dropped so they
// do not block the partition.
func HandleMessage(hooks Hooks) kafka.MessageHandler {
	logger := slog.Default().With("component", "catalog-events")
	return func(ctx context.Context, key []byte, value []byte) error {
		ev, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			logger.Error("failed to decode catalog event", "error", err, "key", string(key))
			return nil
		}
		if err := ev.Validate(); err != nil {
			logger.Error("dropping invalid catalog event", "error", err, "key", string(key))
			return nil
		}
		if err := Apply(ctx, hooks, ev); err != nil {
			return fmt.Errorf("applying %s event for item %d: %w", ev.Type, ev.ItemID, err)
		}
		logger.Debug("catalog event applied", "type", ev.Type, "item_id", ev.ItemID)
		return nil
	}
}

// Local applies events to in-process hooks. It stands in for Publisher
// when Kafka is disabled and the service runs as a single replica.
type Local struct {
	hooks Hooks
}

func NewLocal(hooks Hooks) *Local {
	return &Local{hooks: hooks}
}

func (l *Local) Publish(ctx context.Context, ev Event) error {
	return Apply(ctx, l.hooks, ev)
}
