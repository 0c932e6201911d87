package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harvestconnect/harvestcart/internal/cart"
)

const defaultInboxCapacity = 20

// Inbox buffers notifications for one session until the client collects
// them. Once full, the oldest pending notification is dropped.
type Inbox struct {
	mu       sync.Mutex
	pending  []Notification
	capacity int
	duration time.Duration
	now      func() time.Time
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = defaultInboxCapacity
	}
	return &Inbox{
		capacity: capacity,
		duration: DefaultDuration,
		now:      time.Now,
	}
}

func (i *Inbox) Notify(message string, kind cart.Kind) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		Duration:  i.duration,
		CreatedAt: i.now().UTC(),
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.pending) >= i.capacity {
		i.pending = append(i.pending[:0], i.pending[len(i.pending)-i.capacity+1:]...)
	}
	i.pending = append(i.pending, n)
}

// Drain returns the pending notifications in arrival order and empties the
// inbox.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.pending
	i.pending = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Len reports the number of pending notifications.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.pending)
}
