package cart

import (
	"time"

	cartsvc "github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/internal/notifications"
)

// CartView is the wire shape of a cart plus the toasts raised since the
// previous response.
type CartView struct {
	Items         []cartsvc.LineItem `json:"items"`
	TotalItems    int                `json:"total_items"`
	TotalPrice    float64            `json:"total_price"`
	Notifications []NotificationView `json:"notifications"`
}

type NotificationView struct {
	ID         string       `json:"id"`
	Message    string       `json:"message"`
	Kind       cartsvc.Kind `json:"kind"`
	DurationMs int64        `json:"duration_ms"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewCartView builds the response from a snapshot and drained notifications.
func NewCartView(snap cartsvc.Snapshot, pending []notifications.Notification) CartView {
	items := snap.Items
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	views := make([]NotificationView, 0, len(pending))
	for _, n := range pending {
		views = append(views, NotificationView{
			ID:         n.ID,
			Message:    n.Message,
			Kind:       n.Kind,
			DurationMs: n.DurationMillis(),
			CreatedAt:  n.CreatedAt,
		})
	}
	return CartView{
		Items:         items,
		TotalItems:    snap.TotalItems,
		TotalPrice:    snap.TotalPrice,
		Notifications: views,
	}
}
