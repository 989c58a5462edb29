package audit

import (
	"context"

	id "apertura/pkg/domain"
)

// Sink accepts events for delivery. Kafka topics and tables are both sinks.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink.
type Store interface {
	Sink
	ListBySolicitud(ctx context.Context, solicitudID id.SolicitudID) ([]Event, error)
}
