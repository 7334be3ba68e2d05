package waitlist

import (
	"context"
	"time"

	"github.com/EABruton/waitlist/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// PartyStore is the transactional party persistence. Every call is a single
// transaction; no call returns partial results on error.
type PartyStore interface {
	GetByPartyID(ctx context.Context, partyID string) (*domain.Party, error)
	Create(ctx context.Context, name string, size int) (domain.PartyTicket, error)
	DeleteByPartyID(ctx context.Context, partyID string) error

	AvailableSeats(ctx context.Context) (int, error)
	CurrentQueuePositions(ctx context.Context) ([]domain.QueuePosition, error)
	PartiesToDequeue(ctx context.Context, available int) ([]string, error)

	SetCheckingIn(ctx context.Context, partyIDs []string) (time.Time, error)
	DeleteCheckinExpired(ctx context.Context) ([]string, error)
	SetSeated(ctx context.Context, partyID string, size int) (time.Time, error)
	RemoveExpiredSeats(ctx context.Context) ([]string, error)
}

// JobBus schedules work on named durable queues. Delivery happens no earlier
// than now + delay.
type JobBus interface {
	Enqueue(ctx context.Context, queue, name string, payload any, delay time.Duration) error
}

// Broadcaster fans messages out to currently subscribed clients and keeps
// the latest queue snapshot readable for freshly connected ones.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, v any) error
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
}
