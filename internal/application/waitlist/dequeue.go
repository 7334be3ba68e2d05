package waitlist

import (
	"context"

	"github.com/EABruton/waitlist/internal/metrics"
)

// RunDequeue is one admission pass. It admits the longest queued prefix
// whose cumulative size fits the free seats, stamps the shared check-in
// window, schedules the window's expiry sweep, and always refreshes the
// queue snapshot. The triggering payload is ignored; state is re-read.
func (s *Service) RunDequeue(ctx context.Context) error {
	available, err := s.store.AvailableSeats(ctx)
	if err != nil {
		return err
	}

	if available > 0 {
		ids, err := s.store.PartiesToDequeue(ctx, available)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			expiration, err := s.store.SetCheckingIn(ctx, ids)
			if err != nil {
				return err
			}
			// Zero expiration: the selected rows vanished before the
			// update matched anything (a party can still leave through
			// the API). Nothing flipped, so nothing to announce.
			if !expiration.IsZero() {
				delay := expiration.Sub(s.clock.Now())
				if err := s.jobs.Enqueue(ctx, QueueCheckinExpired, JobPurgeExpiredCheckins, nil, delay); err != nil {
					return err
				}
				if err := s.bus.Publish(ctx, ChannelDequeued, DequeuedMessage{
					PartyIDs:             ids,
					CheckingInExpiration: expiration,
				}); err != nil {
					return err
				}
				metrics.RecordPartiesAdmitted(len(ids))
			}
		}
	}

	positions, err := s.store.CurrentQueuePositions(ctx)
	if err != nil {
		return err
	}

	snapshot := QueuePositionsMessage{QueuedParties: make([]QueuedParty, 0, len(positions))}
	for _, p := range positions {
		snapshot.QueuedParties = append(snapshot.QueuedParties, QueuedParty{PartyID: p.PartyID, Row: p.Row})
	}
	metrics.SetQueueDepth(len(positions))

	if err := s.bus.SetJSON(ctx, KeyQueuedPartyPositions, snapshot, 0); err != nil {
		return err
	}
	return s.bus.Publish(ctx, ChannelQueuePositions, snapshot)
}
