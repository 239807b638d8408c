package remote

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	RecordLister interface {
		// ListByUser returns every record owned by userID.
		ListByUser(ctx context.Context, userID string) ([]core.Record, error)
	}

	RecordCreator interface {
		// Create persists r (ID empty) and returns it with the assigned ID.
		Create(ctx context.Context, r core.Record) (core.Record, error)
	}

	RecordUpdater interface {
		// Update applies the set fields of p to the record and returns the stored record.
		Update(ctx context.Context, id string, p core.Patch) (core.Record, error)
	}

	RecordDeleter interface {
		// Delete removes the record and returns what was deleted.
		Delete(ctx context.Context, id string) (core.Record, error)
	}

	// Backend is everything the records store needs from persistence.
	Backend interface {
		RecordLister
		RecordCreator
		RecordUpdater
		RecordDeleter
	}

	// Pinger is implemented by backends that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
