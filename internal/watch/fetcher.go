package watch

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

// DBFetcher reads order state from Postgres for the hub.
type DBFetcher struct {
	DB *sql.DB
}

func (f *DBFetcher) FetchOrder(ctx context.Context, id string) (*models.Order, error) {
	return store.GetOrder(ctx, f.DB, id)
}

func (f *DBFetcher) FetchAll(ctx context.Context) ([]models.Order, error) {
	return store.ListOrders(ctx, f.DB, "")
}

// RunListener bridges Postgres NOTIFY events into the hub until the
// context is canceled. pq delivers a nil notification after reconnecting;
// that triggers a full refresh so nothing missed while disconnected stays
// stale. A periodic ping keeps the connection honest during quiet spells.
func RunListener(ctx context.Context, listener *pq.Listener, hub *Hub) error {
	defer listener.Close()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-listener.Notify:
			if n == nil {
				hub.NotifyAll()
				continue
			}
			hub.Notify(n.Extra)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					hub.logger.Warn().Err(err).Msg("listener ping failed")
				}
			}()
		}
	}
}
