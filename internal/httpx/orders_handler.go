package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/growthfarm/farm-market-orders.git/internal/kafka"
	"github.com/growthfarm/farm-market-orders.git/internal/market"
	"github.com/growthfarm/farm-market-orders.git/internal/redisx"
)

// EventPublisher is what the handler needs from a Kafka producer; tests plug
// in a capturing fake.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

var _ EventPublisher = (*kafkax.Producer)(nil)

type OrdersHandler struct {
	Service        *market.Service
	PlacedEvents   EventPublisher
	RejectedEvents EventPublisher
	Redis          *redis.Client
	Logger         *zap.Logger
	ServiceName    string
}

type placeOrderReq struct {
	BuyerID         string             `json:"buyer_id"`
	Items           []market.ItemInput `json:"items"`
	ShippingAddress string             `json:"shipping_address,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/marketplace/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Get("/marketplace/products", h.listProducts)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Product   string `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}
	if req.BuyerID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing buyer_id or items"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Service.PlaceOrder(ctx, market.PlaceOrderInput{
		BuyerID:         req.BuyerID,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeOrderError(w, r, req.BuyerID, err)
		return
	}

	h.cacheStatus(ctx, order)
	h.publishPlaced(order, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) writeOrderError(w http.ResponseWriter, r *http.Request, buyerID string, err error) {
	var (
		notFound     *market.ProductNotFoundError
		unavailable  *market.ProductUnavailableError
		insufficient *market.InsufficientStockError
		changed      *market.StockChangedError
		persistence  *market.PersistenceError
	)
	switch {
	case errors.Is(err, market.ErrEmptyOrder), errors.Is(err, market.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "invalid_request"})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error: err.Error(), Kind: "product_not_found", Product: notFound.ProductID})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusConflict, errorBody{
			Error: err.Error(), Kind: "product_unavailable", Product: unavailable.ProductID})
	case errors.As(err, &insufficient):
		h.publishRejected(buyerID, "INSUFFICIENT_STOCK", market.StockShortfall{
			ProductID: insufficient.ProductID,
			Requested: insufficient.Requested,
			Available: insufficient.Available,
		}, r.Header.Get("X-Request-Id"))
		writeJSON(w, http.StatusConflict, errorBody{
			Error: err.Error(), Kind: "insufficient_stock",
			Product: insufficient.ProductID, Requested: insufficient.Requested, Available: insufficient.Available})
	case errors.As(err, &changed):
		h.publishRejected(buyerID, "STOCK_CHANGED", market.StockShortfall{
			ProductID: changed.ProductID,
			Requested: changed.Requested,
			Available: changed.Available,
		}, r.Header.Get("X-Request-Id"))
		writeJSON(w, http.StatusConflict, errorBody{
			Error: err.Error(), Kind: "stock_changed",
			Product: changed.ProductID, Requested: changed.Requested, Available: changed.Available})
	case errors.As(err, &persistence):
		h.Logger.Error("order commit failed", zap.String("buyer_id", buyerID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "order could not be committed", Kind: "persistence_failure"})
	default:
		h.Logger.Error("place order failed", zap.String("buyer_id", buyerID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *market.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body, _ := json.Marshal(map[string]any{
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
	})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publishPlaced(o *market.Order, traceID string) {
	if h.PlacedEvents == nil {
		return
	}
	items := make([]market.ItemSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, market.ItemSnapshot{
			ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice,
		})
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.ServiceName,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(market.OrderPlacedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			BuyerID:     o.BuyerID,
			TotalAmount: o.TotalAmount,
			Items:       items,
		}),
	}
	h.PlacedEvents.Publish(market.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) publishRejected(buyerID, reason string, detail market.StockShortfall, traceID string) {
	if h.RejectedEvents == nil {
		return
	}
	ev := market.Envelope{
		EventID:      uuid.NewString(),
		EventType:    market.EventOrderRejected,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     h.ServiceName,
		TraceID:      traceID,
		Payload: kafkax.MustMarshal(market.OrderRejectedPayload{
			BuyerID: buyerID,
			Reason:  reason,
			Details: []market.StockShortfall{detail},
		}),
	}
	h.RejectedEvents.Publish([]byte(buyerID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Service.GetOrder(ctx, orderID)
	if errors.Is(err, market.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// getOrderStatus serves the cached status when Redis has it and falls back
// to storage, re-filling the cache on the way out.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	order, err := h.Service.GetOrder(ctx, orderID)
	if errors.Is(err, market.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	h.cacheStatus(ctx, order)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	})
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Service.ListAvailableProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
