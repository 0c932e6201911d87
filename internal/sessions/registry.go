package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/internal/kvstore"
	"github.com/harvestconnect/harvestcart/internal/notifications"
	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"github.com/harvestconnect/harvestcart/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const minSweepInterval = time.Second

// Metrics is the recorder surface the registry feeds.
type Metrics interface {
	cart.Metrics
	notifications.KindCounter
	SetSessionsOpen(n int)
}

// Session is one browser cart. Do serializes work against the store so a
// mutation and the read that follows it observe the same state.
type Session struct {
	ID    string
	Store *cart.Store
	Inbox *notifications.Inbox

	mu       sync.Mutex
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's store.
func (s *Session) Do(fn func(store *cart.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.Store)
}

// RegistryParams wires a Registry. Backend is required.
type RegistryParams struct {
	Backend       cart.KeyValueStore
	StorageKey    string
	IdleTTL       time.Duration
	InboxCapacity int
	Logger        *logger.Logger
	Metrics       Metrics
}

// Registry owns the live sessions of this process. Sessions are built on
// first use and rehydrated from Backend; idle sessions are dropped from
// memory only.
type Registry struct {
	backend  cart.KeyValueStore
	key      string
	idleTTL  time.Duration
	inboxCap int
	logg     *logger.Logger
	metrics  Metrics
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	group    singleflight.Group
}

func NewRegistry(p RegistryParams) (*Registry, error) {
	if p.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart backend required")
	}
	key := p.StorageKey
	if key == "" {
		key = cart.DefaultStorageKey
	}
	return &Registry{
		backend:  p.Backend,
		key:      key,
		idleTTL:  p.IdleTTL,
		inboxCap: p.InboxCapacity,
		logg:     p.Logger,
		metrics:  p.Metrics,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// Open returns the live session for sessionID, building it on first use.
// Concurrent first opens of the same id share one build.
func (r *Registry) Open(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}
	if sess := r.lookup(sessionID); sess != nil {
		return sess, nil
	}

	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if sess := r.lookup(sessionID); sess != nil {
			return sess, nil
		}
		sess, err := r.build(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.sessions[sessionID] = sess
		open := len(r.sessions)
		r.mu.Unlock()
		r.reportOpen(open)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) lookup(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	sess.lastSeen = r.now()
	return sess
}

func (r *Registry) build(ctx context.Context, sessionID string) (*Session, error) {
	logCtx := context.WithoutCancel(ctx)
	if r.logg != nil {
		logCtx = r.logg.WithSessionID(logCtx, sessionID)
	}

	inbox := notifications.NewInbox(r.inboxCap)
	var counter notifications.KindCounter
	var storeMetrics cart.Metrics
	if r.metrics != nil {
		counter = r.metrics
		storeMetrics = r.metrics
	}
	notifier := notifications.NewFanout(r.logg,
		notifications.NewInstrumented(inbox, counter),
		notifications.NewLogger(logCtx, r.logg),
	)

	store, err := cart.NewStore(cart.StoreParams{
		KV:         kvstore.NewScoped(r.backend, sessionID),
		Notifier:   notifier,
		Logger:     r.logg,
		Metrics:    storeMetrics,
		Key:        r.key,
		LogContext: logCtx,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart store")
	}
	return &Session{
		ID:       sessionID,
		Store:    store,
		Inbox:    inbox,
		lastSeen: r.now(),
	}, nil
}

// Len reports the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops sessions unused for longer than the idle TTL and returns
// how many were dropped. Their carts stay in the backend.
func (r *Registry) EvictIdle() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	evicted := 0
	for id, sess := range r.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	open := len(r.sessions)
	r.mu.Unlock()

	if evicted > 0 {
		r.reportOpen(open)
	}
	return evicted
}

// Run sweeps idle sessions until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		<-ctx.Done()
		return
	}
	interval := r.idleTTL / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 && r.logg != nil {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "sessions.evicted")
			}
		}
	}
}

func (r *Registry) reportOpen(n int) {
	if r.metrics != nil {
		r.metrics.SetSessionsOpen(n)
	}
}
