package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/harvestconnect/harvestcart/pkg/logger"
)

// Operation labels used for metrics and log fields.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update_quantity"
	OpClear  = "clear"

	persistLoad   = "load"
	persistDecode = "decode"
	persistSave   = "save"
)

// StoreParams wires a Store. KV and Notifier are required.
type StoreParams struct {
	KV       KeyValueStore
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  Metrics
	// Key overrides DefaultStorageKey.
	Key string
	// LogContext carries fields (session id, request id) attached to
	// diagnostic log lines.
	LogContext context.Context
}

// Store owns one cart. Every mutation is written through to the key-value
// store; persistence is best effort and never surfaces to callers.
type Store struct {
	mu       sync.Mutex
	items    []LineItem
	kv       KeyValueStore
	notifier Notifier
	logg     *logger.Logger
	metrics  Metrics
	key      string
	logCtx   context.Context
}

// Snapshot is a consistent read of the cart.
type Snapshot struct {
	Items      []LineItem
	TotalItems int
	TotalPrice float64
}

// NewStore builds a store and rehydrates it from the durable key. A missing
// or unreadable value yields an empty cart.
func NewStore(p StoreParams) (*Store, error) {
	if p.KV == nil {
		return nil, fmt.Errorf("key-value store required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	key := p.Key
	if key == "" {
		key = DefaultStorageKey
	}
	metrics := p.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	logCtx := p.LogContext
	if logCtx == nil {
		logCtx = context.Background()
	}

	s := &Store{
		items:    []LineItem{},
		kv:       p.KV,
		notifier: p.Notifier,
		logg:     p.Logger,
		metrics:  metrics,
		key:      key,
		logCtx:   logCtx,
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	raw, found, err := s.safeGet()
	if err != nil {
		s.metrics.IncPersistenceFailure(persistLoad)
		s.logError("cart.load.failed", err)
		return
	}
	if !found {
		return
	}

	items, err := Decode(raw)
	if err != nil {
		s.metrics.IncPersistenceFailure(persistDecode)
		s.logWarn("cart.load.corrupt", err)
		// discard the corrupt value so the next reader starts clean
		s.persist()
		return
	}
	s.items = items
}

// AddItem merges newItem into the cart. An existing line keeps its captured
// title, price and image and gains newItem.Quantity.
func (s *Store) AddItem(newItem LineItem) {
	if newItem.Quantity < 1 {
		newItem.Quantity = 1
	}

	s.mu.Lock()
	var message string
	if idx := indexOf(s.items, newItem.ID); idx >= 0 {
		next := cloneItems(s.items)
		next[idx].Quantity = addQuantity(next[idx].Quantity, newItem.Quantity)
		s.items = next
		message = fmt.Sprintf("Updated %s quantity in cart", newItem.Title)
	} else {
		next := make([]LineItem, 0, len(s.items)+1)
		next = append(next, s.items...)
		s.items = append(next, newItem)
		message = fmt.Sprintf("%s added to cart", newItem.Title)
	}
	s.persist()
	s.mu.Unlock()

	s.metrics.IncMutation(OpAdd)
	s.notify(message, KindSuccess)
}

// RemoveItem deletes the line for id. Unknown ids are ignored.
func (s *Store) RemoveItem(id int64) {
	s.mu.Lock()
	var removed *LineItem
	next := make([]LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID == id {
			removed = &item
			continue
		}
		next = append(next, item)
	}
	s.items = next
	s.persist()
	s.mu.Unlock()

	s.metrics.IncMutation(OpRemove)
	if removed != nil {
		s.notify(fmt.Sprintf("%s removed from cart", removed.Title), KindInfo)
	}
}

// UpdateQuantity sets the absolute quantity of an existing line. A quantity
// of zero or less removes the line. It never creates lines.
func (s *Store) UpdateQuantity(id int64, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}

	s.mu.Lock()
	var message string
	next := cloneItems(s.items)
	if idx := indexOf(next, id); idx >= 0 {
		next[idx].Quantity = quantity
		message = fmt.Sprintf("%s quantity updated to %d", next[idx].Title, quantity)
	}
	s.items = next
	s.persist()
	s.mu.Unlock()

	s.metrics.IncMutation(OpUpdate)
	if message != "" {
		s.notify(message, KindSuccess)
	}
}

// ClearCart empties the cart regardless of its contents.
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.items = []LineItem{}
	s.persist()
	s.mu.Unlock()

	s.metrics.IncMutation(OpClear)
	s.notify("Cart cleared", KindInfo)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

// TotalPrice is the sum of price * quantity, unrounded.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

// Snapshot returns items and totals computed under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:      cloneItems(s.items),
		TotalItems: totalItems(s.items),
		TotalPrice: totalPrice(s.items),
	}
}

// persist must be called with s.mu held.
func (s *Store) persist() {
	raw, err := Encode(s.items)
	if err != nil {
		s.metrics.IncPersistenceFailure(persistSave)
		s.logError("cart.save.encode_failed", err)
		return
	}
	if err := s.safeSet(raw); err != nil {
		s.metrics.IncPersistenceFailure(persistSave)
		s.logError("cart.save.failed", err)
	}
}

func (s *Store) safeGet() (raw string, found bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("key-value store panic: %v", rec)
		}
	}()
	return s.kv.Get(s.key)
}

func (s *Store) safeSet(raw string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("key-value store panic: %v", rec)
		}
	}()
	return s.kv.Set(s.key, raw)
}

func (s *Store) notify(message string, kind Kind) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logError("cart.notify.failed", fmt.Errorf("notifier panic: %v", rec))
		}
	}()
	s.notifier.Notify(message, kind)
}

func (s *Store) logWarn(msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx := s.logg.WithFields(s.logCtx, map[string]any{"key": s.key, "error": errString(err)})
	s.logg.Warn(ctx, msg)
}

func (s *Store) logError(msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx := s.logg.WithField(s.logCtx, "key", s.key)
	s.logg.Error(ctx, msg, err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
