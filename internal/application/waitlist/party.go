package waitlist

import (
	"context"
	"time"

	"github.com/EABruton/waitlist/internal/domain"
	"github.com/EABruton/waitlist/internal/metrics"
)

type JoinCmd struct {
	Name string
	Size int
}

// Join validates the request, persists a queued party, and triggers an
// admission pass for it.
func (s *Service) Join(ctx context.Context, cmd JoinCmd) (domain.PartyTicket, error) {
	name, err := domain.ValidatePartyName(cmd.Name, s.maxNameLength)
	if err != nil {
		return domain.PartyTicket{}, err
	}
	if err := domain.ValidatePartySize(cmd.Size, s.maxSeats); err != nil {
		return domain.PartyTicket{}, err
	}

	ticket, err := s.store.Create(ctx, name, cmd.Size)
	if err != nil {
		return domain.PartyTicket{}, err
	}
	metrics.RecordPartyJoined()

	if err := s.jobs.Enqueue(ctx, QueueDequeue, JobRunDequeue, nil, 0); err != nil {
		// The row exists; only the trigger was lost. Surface it so the
		// client retries instead of waiting on an admission that may
		// not come until the next mutation.
		return domain.PartyTicket{}, domain.Wrap(domain.CodePartyCreate, "admission pass could not be triggered", err)
	}
	return ticket, nil
}

// Get reads the party backing a session. A not-found result is the signal
// for callers to clear that session.
func (s *Service) Get(ctx context.Context, partyID string) (*domain.Party, error) {
	return s.store.GetByPartyID(ctx, partyID)
}

// Leave removes a party and re-triggers admissions for the freed seats.
func (s *Service) Leave(ctx context.Context, partyID string) error {
	if err := s.store.DeleteByPartyID(ctx, partyID); err != nil {
		return err
	}
	metrics.RecordPartyRemoved(metrics.ReasonLeft, 1)

	if err := s.jobs.Enqueue(ctx, QueueDequeue, JobRunDequeue, nil, 0); err != nil {
		return domain.Wrap(domain.CodePartyDelete, "admission pass could not be triggered", err)
	}
	return nil
}

// CheckIn seats a checking-in party and schedules its seat expiry at the
// store-stamped expiration.
func (s *Service) CheckIn(ctx context.Context, partyID string, size int) (time.Time, error) {
	expiration, err := s.store.SetSeated(ctx, partyID, size)
	if err != nil {
		if domain.IsNotFound(err) {
			return time.Time{}, err
		}
		return time.Time{}, domain.Wrap(domain.CodePartyCheckIn, "party could not check in", err)
	}
	metrics.RecordPartySeated()

	delay := expiration.Sub(s.clock.Now())
	if err := s.jobs.Enqueue(ctx, QueueSeatExpired, JobClearExpiredSeats, nil, delay); err != nil {
		return time.Time{}, domain.Wrap(domain.CodePartyCheckIn, "seat expiry could not be scheduled", err)
	}
	return expiration, nil
}
