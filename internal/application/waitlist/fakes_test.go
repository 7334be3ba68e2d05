package waitlist

import (
	"context"
	"time"

	"github.com/EABruton/waitlist/internal/domain"
)

/*
Fakes for ports
*/

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type seatedCall struct {
	partyID string
	size    int
}

type fakeStore struct {
	// canned results
	parties           map[string]*domain.Party
	createTicket      domain.PartyTicket
	available         int
	toDequeue         []string
	positions         []domain.QueuePosition
	checkinExpiration time.Time
	seatedExpiration  time.Time
	expiredCheckins   []string
	expiredSeats      []string

	// injected errors (if set, method returns error)
	getErr             error
	createErr          error
	deleteErr          error
	availableErr       error
	positionsErr       error
	toDequeueErr       error
	checkinErr         error
	seatedErr          error
	expiredCheckinsErr error
	expiredSeatsErr    error

	// recorded calls
	createdNames []string
	createdSizes []int
	deletedIDs   []string
	checkinIDs   [][]string
	seatedCalls  []seatedCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{parties: map[string]*domain.Party{}}
}

func (f *fakeStore) GetByPartyID(ctx context.Context, partyID string) (*domain.Party, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.parties[partyID]
	if !ok {
		return nil, domain.ErrPartyNotFound("party not found")
	}
	return p, nil
}

func (f *fakeStore) Create(ctx context.Context, name string, size int) (domain.PartyTicket, error) {
	if f.createErr != nil {
		return domain.PartyTicket{}, f.createErr
	}
	f.createdNames = append(f.createdNames, name)
	f.createdSizes = append(f.createdSizes, size)
	return f.createTicket, nil
}

func (f *fakeStore) DeleteByPartyID(ctx context.Context, partyID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, partyID)
	return nil
}

func (f *fakeStore) AvailableSeats(ctx context.Context) (int, error) {
	return f.available, f.availableErr
}

func (f *fakeStore) CurrentQueuePositions(ctx context.Context) ([]domain.QueuePosition, error) {
	return f.positions, f.positionsErr
}

func (f *fakeStore) PartiesToDequeue(ctx context.Context, available int) ([]string, error) {
	return f.toDequeue, f.toDequeueErr
}

func (f *fakeStore) SetCheckingIn(ctx context.Context, partyIDs []string) (time.Time, error) {
	if f.checkinErr != nil {
		return time.Time{}, f.checkinErr
	}
	f.checkinIDs = append(f.checkinIDs, partyIDs)
	return f.checkinExpiration, nil
}

func (f *fakeStore) DeleteCheckinExpired(ctx context.Context) ([]string, error) {
	return f.expiredCheckins, f.expiredCheckinsErr
}

func (f *fakeStore) SetSeated(ctx context.Context, partyID string, size int) (time.Time, error) {
	if f.seatedErr != nil {
		return time.Time{}, f.seatedErr
	}
	f.seatedCalls = append(f.seatedCalls, seatedCall{partyID: partyID, size: size})
	return f.seatedExpiration, nil
}

func (f *fakeStore) RemoveExpiredSeats(ctx context.Context) ([]string, error) {
	return f.expiredSeats, f.expiredSeatsErr
}

type enqueuedJob struct {
	queue string
	name  string
	delay time.Duration
}

type fakeJobs struct {
	err  error
	jobs []enqueuedJob
}

func (f *fakeJobs) Enqueue(ctx context.Context, queue, name string, payload any, delay time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, enqueuedJob{queue: queue, name: name, delay: delay})
	return nil
}

type publishedMsg struct {
	channel string
	payload any
}

type fakeBus struct {
	publishErr error
	setErr     error

	published []publishedMsg
	cache     map[string]any
}

func newFakeBus() *fakeBus {
	return &fakeBus{cache: map[string]any{}}
}

func (f *fakeBus) Publish(ctx context.Context, channel string, v any) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMsg{channel: channel, payload: v})
	return nil
}

func (f *fakeBus) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.cache[key] = val
	return nil
}
