package database

import (
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// OrderEventsChannel is the Postgres NOTIFY channel that order writes
// publish to. The payload is the order id.
const OrderEventsChannel = "order_events"

// NewListener opens a dedicated LISTEN connection on the order events
// channel. pq.Listener reconnects on its own; connection state changes are
// logged and surfaced to the consumer through the Notify channel (a nil
// notification is delivered after a reconnect).
func NewListener(url string, logger zerolog.Logger) (*pq.Listener, error) {
	listener := pq.NewListener(url, 250*time.Millisecond, 30*time.Second,
		func(event pq.ListenerEventType, err error) {
			switch event {
			case pq.ListenerEventConnectionAttemptFailed:
				logger.Error().Err(err).Msg("listener connection attempt failed")
			case pq.ListenerEventDisconnected:
				logger.Warn().Err(err).Msg("listener disconnected")
			case pq.ListenerEventReconnected:
				logger.Info().Msg("listener reconnected")
			}
		})

	if err := listener.Listen(OrderEventsChannel); err != nil {
		listener.Close()
		return nil, err
	}

	return listener, nil
}
