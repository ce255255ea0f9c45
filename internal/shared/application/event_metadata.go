// Package application holds helpers shared by the application layers of
// every bounded context.
package application

import (
	"context"

	"github.com/felixgeelhaar/rendezvous/internal/shared/domain"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/google/uuid"
)

// EventMetadataFromContext builds event metadata from the request-scoped
// identifiers. A missing or malformed correlation ID is replaced by a new
// one; the request ID, when present, becomes the causation ID.
func EventMetadataFromContext(ctx context.Context) domain.EventMetadata {
	metadata := domain.EventMetadata{CorrelationID: uuid.New()}
	if id, err := uuid.Parse(observability.CorrelationIDFromContext(ctx)); err == nil {
		metadata.CorrelationID = id
	}
	if id, err := uuid.Parse(observability.RequestIDFromContext(ctx)); err == nil {
		metadata.CausationID = id
	}
	return metadata
}

// Stamp attaches the metadata for ctx to every event that accepts it.
func Stamp(ctx context.Context, events ...domain.DomainEvent) {
	metadata := EventMetadataFromContext(ctx)
	for _, event := range events {
		if s, ok := event.(domain.Stampable); ok {
			s.Stamp(metadata)
		}
	}
}
