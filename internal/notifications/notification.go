package notifications

import (
	"time"

	"github.com/harvestconnect/harvestcart/internal/cart"
)

// DefaultDuration is how long a client should display a notification.
const DefaultDuration = 3 * time.Second

// Notification is one toast raised by a cart mutation.
type Notification struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Kind      cart.Kind     `json:"kind"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// DurationMillis exposes Duration in the unit browsers use for timers.
func (n Notification) DurationMillis() int64 {
	return n.Duration.Milliseconds()
}
