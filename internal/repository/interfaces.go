package repository

import (
	"context"

	"nextstep-polls/internal/domain"
)

// Store persists the poll collection and this device's ballot record in a
// durable key-value namespace. Missing or corrupt data loads as empty; only
// transport failures are returned as errors. Saves replace the whole value.
type Store interface {
	// LoadAll returns the poll collection in insertion order
	LoadAll(ctx context.Context) ([]domain.Poll, error)

	// SaveAll replaces the poll collection
	SaveAll(ctx context.Context, polls []domain.Poll) error

	// LoadBallotRecord returns the last ballot per poll for this device
	LoadBallotRecord(ctx context.Context) (domain.BallotRecord, error)

	// SaveBallotRecord replaces the ballot record
	SaveBallotRecord(ctx context.Context, record domain.BallotRecord) error

	// Reset deletes both records
	Reset(ctx context.Context) error
}
