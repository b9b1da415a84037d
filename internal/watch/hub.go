// Package watch fans order change notifications out to live subscribers:
// the customer tracking view watches a single order, the admin dashboard
// watches the whole collection.
package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

// Fetcher reads current order state for delivery to watchers. The store
// package satisfies it over *sql.DB; tests use a fake.
type Fetcher interface {
	FetchOrder(ctx context.Context, id string) (*models.Order, error)
	FetchAll(ctx context.Context) ([]models.Order, error)
}

// refetchAll is the internal notification that invalidates everything,
// queued after a listener reconnect so updates missed while disconnected
// are absorbed.
const refetchAll = ""

type Hub struct {
	fetcher Fetcher
	logger  zerolog.Logger

	notifications chan string

	mu            sync.Mutex
	orderWatchers map[string]map[int64]func(*models.Order)
	allWatchers   map[int64]func([]models.Order)
	nextID        int64

	// deliverMu serializes every callback invocation, including the
	// initial snapshot, so a watcher never sees an older state delivered
	// after a newer one and never runs after its unsubscribe returns.
	deliverMu sync.Mutex
}

func NewHub(fetcher Fetcher, logger zerolog.Logger) *Hub {
	return &Hub{
		fetcher:       fetcher,
		logger:        logger,
		notifications: make(chan string, 256),
		orderWatchers: make(map[string]map[int64]func(*models.Order)),
		allWatchers:   make(map[int64]func([]models.Order)),
	}
}

// Notify queues a change notification for one order id. An empty id
// refreshes every watcher.
func (h *Hub) Notify(orderID string) {
	select {
	case h.notifications <- orderID:
	default:
		// Queue full: collapse into a full refresh rather than dropping
		// the update.
		h.drainQueued()
		h.notifications <- refetchAll
	}
}

// NotifyAll refreshes every watcher, used after the LISTEN connection
// reestablishes.
func (h *Hub) NotifyAll() {
	h.Notify(refetchAll)
}

// Run consumes notifications until the context is canceled. Fetch errors
// are logged and the loop keeps going; the subscription recovers on the
// next successful push.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case first := <-h.notifications:
			ids := h.coalesce(first)
			h.deliver(ctx, ids)
		}
	}
}

// coalesce drains whatever else is queued, so a burst of writes to the
// same order produces one fetch of the latest state. Intermediate states
// may be skipped; the delivered state is always the newest.
func (h *Hub) coalesce(first string) map[string]bool {
	ids := map[string]bool{first: true}
	for {
		select {
		case id := <-h.notifications:
			ids[id] = true
		default:
			return ids
		}
	}
}

func (h *Hub) drainQueued() {
	for {
		select {
		case <-h.notifications:
		default:
			return
		}
	}
}

func (h *Hub) deliver(ctx context.Context, ids map[string]bool) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	if ids[refetchAll] {
		h.deliverEverything(ctx)
		return
	}

	for id := range ids {
		h.deliverOrder(ctx, id)
	}
	h.deliverCollection(ctx)
}

func (h *Hub) deliverEverything(ctx context.Context) {
	h.mu.Lock()
	watchedIDs := make([]string, 0, len(h.orderWatchers))
	for id := range h.orderWatchers {
		watchedIDs = append(watchedIDs, id)
	}
	h.mu.Unlock()

	for _, id := range watchedIDs {
		h.deliverOrder(ctx, id)
	}
	h.deliverCollection(ctx)
}

func (h *Hub) deliverOrder(ctx context.Context, id string) {
	h.mu.Lock()
	fns := make([]func(*models.Order), 0, len(h.orderWatchers[id]))
	for _, fn := range h.orderWatchers[id] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	order, err := h.fetchOrder(ctx, id)
	if err != nil {
		h.logger.Error().Err(err).Str("order_id", id).Msg("fetch order for watchers")
		return
	}

	for _, fn := range fns {
		fn(order)
	}
}

func (h *Hub) deliverCollection(ctx context.Context) {
	h.mu.Lock()
	fns := make([]func([]models.Order), 0, len(h.allWatchers))
	for _, fn := range h.allWatchers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	orders, err := h.fetcher.FetchAll(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("fetch orders for watchers")
		return
	}

	for _, fn := range fns {
		fn(orders)
	}
}

// fetchOrder maps a missing order to a nil delivery, matching the
// watcher contract for deleted or unknown ids.
func (h *Hub) fetchOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := h.fetcher.FetchOrder(ctx, id)
	if errors.Is(err, database.ErrOrderNotFound) {
		return nil, nil
	}
	return order, err
}

// WatchOrder registers fn for an order. fn is invoked once immediately
// with the current state (nil when the order does not exist or cannot be
// read yet) and again on every subsequent change. The returned func unsubscribes; after it
// returns, fn is never called again. Multiple watchers on the same id do
// not interfere.
func (h *Hub) WatchOrder(orderID string, fn func(*models.Order)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.orderWatchers[orderID] == nil {
		h.orderWatchers[orderID] = make(map[int64]func(*models.Order))
	}
	h.orderWatchers[orderID][id] = fn
	h.mu.Unlock()

	// Initial snapshot, serialized with hub deliveries so a concurrent
	// write cannot be shadowed by an older snapshot. A failed fetch still
	// delivers nil: the watcher always gets its immediate callback, and
	// real state follows on the next successful push.
	h.deliverMu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	order, err := h.fetchOrder(ctx, orderID)
	cancel()
	if err != nil {
		h.logger.Error().Err(err).Str("order_id", orderID).Msg("fetch initial order snapshot")
		order = nil
	}
	fn(order)
	h.deliverMu.Unlock()

	return func() {
		h.deliverMu.Lock()
		defer h.deliverMu.Unlock()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.orderWatchers[orderID], id)
		if len(h.orderWatchers[orderID]) == 0 {
			delete(h.orderWatchers, orderID)
		}
	}
}

// WatchAll registers fn for the whole collection, newest-placed-first.
// Same contract as WatchOrder: immediate snapshot, every change, nothing
// after unsubscribe.
func (h *Hub) WatchAll(fn func([]models.Order)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.allWatchers[id] = fn
	h.mu.Unlock()

	h.deliverMu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	orders, err := h.fetcher.FetchAll(ctx)
	cancel()
	if err != nil {
		h.logger.Error().Err(err).Msg("fetch initial orders snapshot")
		orders = nil
	}
	fn(orders)
	h.deliverMu.Unlock()

	return func() {
		h.deliverMu.Lock()
		defer h.deliverMu.Unlock()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.allWatchers, id)
	}
}
