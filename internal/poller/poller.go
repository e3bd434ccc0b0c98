package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic   = "checkout-outbox"
	DefaultGroupID = "pricing-service-consumer"
)

var errMissingUserID = errors.New("missing or invalid user_id")

// CartClearer empties a user's cart once checkout has completed.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	Backoff time.Duration
}

type checkoutEvent struct {
	CheckoutID string `json:"checkout_id"`
	UserID     string `json:"user_id"`
}

type Poller struct {
	carts   CartClearer
	reader  messageReader
	log     *zap.Logger
	backoff time.Duration
}

func NewPoller(carts CartClearer, log *zap.Logger, cfg Config) *Poller {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.GroupID == "" {
		cfg.GroupID = DefaultGroupID
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(carts, reader, log, cfg.Backoff)
}

func newPoller(carts CartClearer, reader messageReader, log *zap.Logger, backoff time.Duration) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Poller{carts: carts, reader: reader, log: log, backoff: backoff}
}

// Run consumes checkout events until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("checkout poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error("error closing reader", zap.Error(err))
	}
}

// poll handles a single message. Malformed payloads are logged and skipped;
// only read failures are returned.
func (p *Poller) poll(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		return fmt.Errorf("error reading message: %w", err)
	}

	event, err := parseEvent(m.Value)
	if err != nil {
		p.log.Warn("skipping checkout message",
			zap.Int64("offset", m.Offset),
			zap.Error(err))
		return nil
	}

	if _, err := p.carts.ClearCart(ctx, event.UserID); err != nil {
		p.log.Error("failed to clear cart",
			zap.String("user_id", event.UserID),
			zap.String("checkout_id", event.CheckoutID),
			zap.Error(err))
		return nil
	}

	p.log.Info("cart cleared after checkout",
		zap.String("user_id", event.UserID),
		zap.String("checkout_id", event.CheckoutID))
	return nil
}

func parseEvent(data []byte) (checkoutEvent, error) {
	var event checkoutEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return checkoutEvent{}, fmt.Errorf("error parsing message: %w", err)
	}
	if event.UserID == "" {
		return checkoutEvent{}, errMissingUserID
	}
	return event, nil
}
