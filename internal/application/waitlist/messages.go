package waitlist

import "time"

// Pub/sub channels and the snapshot cache key. The event stream bridge
// subscribes to all three channels on behalf of one client.
const (
	ChannelDequeued       = "dequeued-channel"
	ChannelCheckinExpired = "checking-in-expired-channel"
	ChannelQueuePositions = "queue-positions-channel"

	KeyQueuedPartyPositions = "queued-party-positions"
)

// Job queues and job names. One worker per queue; handlers ignore payloads
// and re-read store state.
const (
	QueueDequeue        = "dequeue"
	QueueCheckinExpired = "checkin-expired"
	QueueSeatExpired    = "seat-expired"

	JobRunDequeue           = "run-dequeue"
	JobPurgeExpiredCheckins = "purge-expired-checkins"
	JobClearExpiredSeats    = "clear-expired-seats"
)

// DequeuedMessage is broadcast after a dequeue run flips parties into their
// check-in window.
type DequeuedMessage struct {
	PartyIDs             []string  `json:"partyIDs"`
	CheckingInExpiration time.Time `json:"checkingInExpiration"`
}

// CheckinExpiredMessage lists parties purged for missing their window.
type CheckinExpiredMessage struct {
	PartyIDs []string `json:"partyIDs"`
}

// QueuedParty is one row of the queue snapshot.
type QueuedParty struct {
	PartyID string `json:"partyID"`
	Row     int    `json:"row"`
}

// QueuePositionsMessage is both the broadcast and the cached snapshot shape.
type QueuePositionsMessage struct {
	QueuedParties []QueuedParty `json:"queuedParties"`
}
