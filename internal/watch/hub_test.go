package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

// fakeFetcher serves orders from an in-memory map and counts fetches.
// A non-nil failWith makes every fetch fail until cleared.
type fakeFetcher struct {
	mu         sync.Mutex
	orders     map[string]*models.Order
	fetchCount int
	failWith   error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{orders: make(map[string]*models.Order)}
}

func (f *fakeFetcher) put(o *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeFetcher) FetchOrder(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCount++
	if f.failWith != nil {
		return nil, f.failWith
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var all []models.Order
	for _, o := range f.orders {
		all = append(all, *o)
	}
	return all, nil
}

func (f *fakeFetcher) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCount
}

func startHub(t *testing.T, fetcher Fetcher) *Hub {
	t.Helper()
	hub := NewHub(fetcher, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// recorder collects delivered order states.
type recorder struct {
	mu     sync.Mutex
	states []*models.Order
}

func (r *recorder) record(o *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, o)
}

func (r *recorder) snapshot() []*models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Order(nil), r.states...)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestWatchOrderImmediateSnapshot(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	rec := &recorder{}
	unsub := hub.WatchOrder("ord-1", rec.record)
	defer unsub()

	states := rec.snapshot()
	if len(states) != 1 {
		t.Fatalf("expected 1 immediate delivery, got %d", len(states))
	}
	if states[0] == nil || states[0].Status != models.StatusConfirmed {
		t.Errorf("unexpected snapshot %+v", states[0])
	}
}

func TestWatchOrderMissingDeliversNil(t *testing.T) {
	hub := startHub(t, newFakeFetcher())

	rec := &recorder{}
	unsub := hub.WatchOrder("no-such-order", rec.record)
	defer unsub()

	states := rec.snapshot()
	if len(states) != 1 || states[0] != nil {
		t.Fatalf("expected one nil delivery, got %+v", states)
	}
}

func TestWatchOrderFailedSnapshotDeliversNil(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	fetcher.fail(errors.New("connection refused"))
	hub := startHub(t, fetcher)

	rec := &recorder{}
	unsub := hub.WatchOrder("ord-1", rec.record)
	defer unsub()

	// The watcher still gets its immediate callback, as nil.
	states := rec.snapshot()
	if len(states) != 1 || states[0] != nil {
		t.Fatalf("expected one nil delivery on failed snapshot, got %+v", states)
	}

	// Real state arrives with the next successful push.
	fetcher.fail(nil)
	hub.Notify("ord-1")

	waitFor(t, func() bool {
		states := rec.snapshot()
		return len(states) >= 2 && states[len(states)-1] != nil &&
			states[len(states)-1].Status == models.StatusConfirmed
	}, "watcher never recovered after the fetch failure cleared")
}

func TestWatchOrderDeliversLatestAfterWrite(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	rec := &recorder{}
	unsub := hub.WatchOrder("ord-1", rec.record)
	defer unsub()

	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusPreparing})
	hub.Notify("ord-1")

	waitFor(t, func() bool {
		states := rec.snapshot()
		return len(states) >= 2 && states[len(states)-1].Status == models.StatusPreparing
	}, "watcher never saw the new status")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	rec := &recorder{}
	unsub := hub.WatchOrder("ord-1", rec.record)
	before := len(rec.snapshot())
	unsub()

	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusReady})
	hub.Notify("ord-1")

	// Give the hub a chance to misbehave.
	time.Sleep(50 * time.Millisecond)

	if got := len(rec.snapshot()); got != before {
		t.Errorf("deliveries after unsubscribe: had %d, now %d", before, got)
	}
}

func TestConcurrentWatchersSameOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	recs := make([]*recorder, 3)
	for i := range recs {
		recs[i] = &recorder{}
		unsub := hub.WatchOrder("ord-1", recs[i].record)
		defer unsub()
	}

	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusDelivered})
	hub.Notify("ord-1")

	for i, rec := range recs {
		waitFor(t, func() bool {
			states := rec.snapshot()
			return len(states) >= 2 && states[len(states)-1].Status == models.StatusDelivered
		}, "watcher "+string(rune('a'+i))+" missed the update")
	}
}

func TestBurstCoalescesToLatest(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	rec := &recorder{}
	unsub := hub.WatchOrder("ord-1", rec.record)
	defer unsub()

	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusDelivered})
	for i := 0; i < 100; i++ {
		hub.Notify("ord-1")
	}

	waitFor(t, func() bool {
		states := rec.snapshot()
		return len(states) >= 2 && states[len(states)-1].Status == models.StatusDelivered
	}, "watcher never converged on latest state")

	// Intermediate deliveries may be coalesced; whatever was delivered,
	// nothing may be dropped into a nil and the final state is the
	// latest write (checked above).
	if fetcher.fetches() == 0 {
		t.Fatal("no fetches recorded")
	}

	for _, s := range rec.snapshot() {
		if s == nil {
			t.Fatal("nil state delivered for existing order")
		}
	}
}

func TestWatchAllSeesCollectionChanges(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	var mu sync.Mutex
	var latest []models.Order
	unsub := hub.WatchAll(func(orders []models.Order) {
		mu.Lock()
		latest = orders
		mu.Unlock()
	})
	defer unsub()

	mu.Lock()
	if len(latest) != 1 {
		t.Fatalf("initial collection snapshot had %d orders, want 1", len(latest))
	}
	mu.Unlock()

	fetcher.put(&models.Order{ID: "ord-2", Status: models.StatusConfirmed})
	hub.Notify("ord-2")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 2
	}, "collection watcher never saw the second order")
}

func TestNotifyAllRefreshesWatchers(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusConfirmed})
	hub := startHub(t, fetcher)

	rec := &recorder{}
	unsub := hub.WatchOrder("ord-1", rec.record)
	defer unsub()

	fetcher.put(&models.Order{ID: "ord-1", Status: models.StatusReady})
	hub.NotifyAll()

	waitFor(t, func() bool {
		states := rec.snapshot()
		return len(states) >= 2 && states[len(states)-1].Status == models.StatusReady
	}, "refresh never reached the order watcher")
}
