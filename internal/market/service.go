package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds the retry loop on a detected order-number
// conflict before the failure is surfaced as a persistence error.
const maxOrderNumberAttempts = 3

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// PlaceOrder runs the full flow: validate each line against current stock,
// snapshot prices, compute the total, then commit order + decrements in one
// atomic unit. Validation touches nothing; the first invalid line aborts. A
// failure during commit leaves no partial state behind.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	products, err := s.store.GetProducts(ctx, distinctProductIDs(in.Items))
	if err != nil {
		return nil, &PersistenceError{Err: fmt.Errorf("read products: %w", err)}
	}

	lines, err := ValidateItems(in.Items, products)
	if err != nil {
		return nil, err
	}

	total, err := TotalAmount(lines)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:              uuid.NewString(),
		BuyerID:         in.BuyerID,
		TotalAmount:     total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		CreatedAt:       time.Now().UTC(),
	}
	order.Items = make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		order.Items = append(order.Items, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  Subtotal(l),
		})
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = NewOrderNumber()
		err = s.store.CreateOrder(ctx, order)
		if !errors.Is(err, ErrOrderNumberCollision) {
			break
		}
		s.logger.Warn("order number collision, regenerating",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt))
		if attempt >= maxOrderNumberAttempts {
			return nil, &PersistenceError{Err: err}
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("buyer_id", order.BuyerID),
		zap.String("total_amount", order.TotalAmount.String()),
		zap.Int("items", len(order.Items)))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *Service) ListAvailableProducts(ctx context.Context) ([]Product, error) {
	return s.store.ListAvailableProducts(ctx)
}
