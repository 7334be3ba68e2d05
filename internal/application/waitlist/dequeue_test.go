package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EABruton/waitlist/internal/domain"
)

func TestService_RunDequeue(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	t.Run("admits_fifo_prefix_and_announces", func(t *testing.T) {
		store := newFakeStore()
		store.available = 6
		store.toDequeue = []string{"first00000", "second0000"}
		store.checkinExpiration = now.Add(time.Minute)
		store.positions = []domain.QueuePosition{{PartyID: "third00000", Row: 1}}
		jobs := &fakeJobs{}
		bus := newFakeBus()

		svc := newTestService(store, jobs, bus, now)
		require.NoError(t, svc.RunDequeue(context.Background()))

		// both admitted parties flipped in one store call
		require.Len(t, store.checkinIDs, 1)
		assert.Equal(t, []string{"first00000", "second0000"}, store.checkinIDs[0])

		// window sweep scheduled at the shared expiration
		require.Len(t, jobs.jobs, 1)
		assert.Equal(t, QueueCheckinExpired, jobs.jobs[0].queue)
		assert.Equal(t, time.Minute, jobs.jobs[0].delay)

		// admission broadcast first, then the fresh snapshot
		require.Len(t, bus.published, 2)
		assert.Equal(t, ChannelDequeued, bus.published[0].channel)
		dequeued := bus.published[0].payload.(DequeuedMessage)
		assert.Equal(t, []string{"first00000", "second0000"}, dequeued.PartyIDs)
		assert.Equal(t, store.checkinExpiration, dequeued.CheckingInExpiration)

		assert.Equal(t, ChannelQueuePositions, bus.published[1].channel)
		snapshot := bus.published[1].payload.(QueuePositionsMessage)
		require.Len(t, snapshot.QueuedParties, 1)
		assert.Equal(t, "third00000", snapshot.QueuedParties[0].PartyID)

		// the same snapshot is cached for late-connecting streams
		assert.Equal(t, snapshot, bus.cache[KeyQueuedPartyPositions])
	})

	t.Run("full_venue_skips_admission_but_refreshes_snapshot", func(t *testing.T) {
		store := newFakeStore()
		store.available = 0
		store.positions = []domain.QueuePosition{{PartyID: "first00000", Row: 1}}
		bus := newFakeBus()
		jobs := &fakeJobs{}

		svc := newTestService(store, jobs, bus, now)
		require.NoError(t, svc.RunDequeue(context.Background()))

		assert.Empty(t, store.checkinIDs)
		assert.Empty(t, jobs.jobs)
		require.Len(t, bus.published, 1)
		assert.Equal(t, ChannelQueuePositions, bus.published[0].channel)
	})

	t.Run("no_candidates_is_quiet", func(t *testing.T) {
		store := newFakeStore()
		store.available = 4
		store.toDequeue = nil
		bus := newFakeBus()

		svc := newTestService(store, &fakeJobs{}, bus, now)
		require.NoError(t, svc.RunDequeue(context.Background()))

		assert.Empty(t, store.checkinIDs)
		require.Len(t, bus.published, 1)
		assert.Equal(t, ChannelQueuePositions, bus.published[0].channel)
	})

	t.Run("vanished_candidates_flip_nothing", func(t *testing.T) {
		store := newFakeStore()
		store.available = 4
		store.toDequeue = []string{"gone000000"}
		store.checkinExpiration = time.Time{} // update matched no rows
		bus := newFakeBus()
		jobs := &fakeJobs{}

		svc := newTestService(store, jobs, bus, now)
		require.NoError(t, svc.RunDequeue(context.Background()))

		assert.Empty(t, jobs.jobs, "no sweep for a window that never opened")
		require.Len(t, bus.published, 1)
		assert.Equal(t, ChannelQueuePositions, bus.published[0].channel)
	})

	t.Run("empty_queue_snapshot_is_a_json_array", func(t *testing.T) {
		store := newFakeStore()
		store.available = 0
		store.positions = nil
		bus := newFakeBus()

		svc := newTestService(store, &fakeJobs{}, bus, now)
		require.NoError(t, svc.RunDequeue(context.Background()))

		b, err := json.Marshal(bus.cache[KeyQueuedPartyPositions])
		require.NoError(t, err)
		assert.JSONEq(t, `{"queuedParties":[]}`, string(b))
	})

	t.Run("propagates_read_errors", func(t *testing.T) {
		store := newFakeStore()
		store.availableErr = domain.Wrap(domain.CodeSeatsRead, "available seats could not be read", errors.New("db down"))

		svc := newTestService(store, &fakeJobs{}, newFakeBus(), now)
		err := svc.RunDequeue(context.Background())
		assert.Equal(t, domain.CodeSeatsRead, domain.CodeOf(err))
	})
}
