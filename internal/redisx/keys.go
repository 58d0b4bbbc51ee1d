package redisx

import "time"

const (
	// Cached order status: order_status:{order_id} -> {"status":"...","payment_status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Event dedup for consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Per-buyer notification feed (list, newest first): notify:buyer:{buyer_id}
	KeyBuyerNotifications = "notify:buyer:%s"
)

var (
	TTLStatusCache   = 5 * time.Minute
	TTLDedup         = 48 * time.Hour
	TTLNotifications = 7 * 24 * time.Hour
)
