package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/growthfarm/farm-market-orders.git/internal/kafka"
	"github.com/growthfarm/farm-market-orders.git/internal/market"
	"github.com/growthfarm/farm-market-orders.git/internal/redisx"
)

// Notification is what lands in the buyer's feed.
type Notification struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount string    `json:"total_amount"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service consumes order-placed events and records a notification for the
// buyer. Events are deduped by event id, so redelivery is harmless.
type Service struct {
	Redis       *redis.Client
	Logger      *zap.Logger
	ServiceName string
}

func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderPlaced {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[market.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	n := Notification{
		OrderID:     p.OrderID,
		OrderNumber: p.OrderNumber,
		TotalAmount: p.TotalAmount.String(),
		Message:     fmt.Sprintf("Order %s placed, total %s", p.OrderNumber, p.TotalAmount.String()),
		CreatedAt:   time.Now().UTC(),
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	fkey := fmt.Sprintf(redisx.KeyBuyerNotifications, p.BuyerID)
	if err := s.Redis.LPush(ctx, fkey, body).Err(); err != nil {
		return err
	}
	_ = s.Redis.Expire(ctx, fkey, redisx.TTLNotifications).Err()

	s.Logger.Info("buyer notified",
		zap.String("order_id", p.OrderID),
		zap.String("order_number", p.OrderNumber),
		zap.String("buyer_id", p.BuyerID))
	return nil
}
