package waitlist

import (
	"context"

	"github.com/EABruton/waitlist/internal/metrics"
)

// RunCheckinExpiry purges parties that missed their check-in window, tells
// their streams, and re-triggers admissions for the freed seats.
func (s *Service) RunCheckinExpiry(ctx context.Context) error {
	ids, err := s.store.DeleteCheckinExpired(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	metrics.RecordPartyRemoved(metrics.ReasonCheckinExpired, len(ids))

	if err := s.bus.Publish(ctx, ChannelCheckinExpired, CheckinExpiredMessage{PartyIDs: ids}); err != nil {
		return err
	}
	return s.jobs.Enqueue(ctx, QueueDequeue, JobRunDequeue, nil, 0)
}

// RunSeatExpiry clears lapsed seats and re-triggers admissions. No
// broadcast: a seated party's stream already closed when it was seated.
func (s *Service) RunSeatExpiry(ctx context.Context) error {
	ids, err := s.store.RemoveExpiredSeats(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	metrics.RecordPartyRemoved(metrics.ReasonSeatExpired, len(ids))

	return s.jobs.Enqueue(ctx, QueueDequeue, JobRunDequeue, nil, 0)
}
