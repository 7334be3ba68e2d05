package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/EABruton/waitlist/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const createIDAttempts = 3

// Repo is the party store. Every mutation is a single transaction; the
// store-side NOW() is the only clock admissibility decisions consult.
type Repo struct {
	db                 *sql.DB
	maxSeats           int
	checkinExpiry      time.Duration
	serviceTimePerSeat time.Duration
}

func New(db *sql.DB, maxSeats int, checkinExpiry, serviceTimePerSeat time.Duration) *Repo {
	return &Repo{
		db:                 db,
		maxSeats:           maxSeats,
		checkinExpiry:      checkinExpiry,
		serviceTimePerSeat: serviceTimePerSeat,
	}
}

func (r *Repo) GetByPartyID(ctx context.Context, partyID string) (*domain.Party, error) {
	row := r.db.QueryRowContext(ctx, getPartySQL, partyID)

	var p domain.Party
	var status string
	err := row.Scan(
		&p.ID, &p.PartyID, &p.Name, &p.Size,
		&p.QueuedAt, &status, &p.CheckinExpiration, &p.SeatExpiration,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPartyNotFound("party not found")
	}
	if err != nil {
		return nil, domain.Wrap(domain.CodePartyRead, "party could not be read", err)
	}
	p.Status = domain.PartyStatus(status)
	return &p, nil
}

// Create inserts a fresh queued party and, in the same transaction, computes
// its 1-based position among all queued rows. Collisions on the generated
// party_id are retried a bounded number of times.
func (r *Repo) Create(ctx context.Context, name string, size int) (domain.PartyTicket, error) {
	var lastErr error
	for attempt := 0; attempt < createIDAttempts; attempt++ {
		pid, err := newPartyID()
		if err != nil {
			return domain.PartyTicket{}, domain.Wrap(domain.CodePartyCreate, "party could not be created", err)
		}

		ticket, err := r.insertQueued(ctx, pid, name, size)
		if err == nil {
			return ticket, nil
		}
		if isUniqueViolation(err) {
			lastErr = err
			continue
		}
		return domain.PartyTicket{}, domain.Wrap(domain.CodePartyCreate, "party could not be created", err)
	}
	return domain.PartyTicket{}, domain.Wrap(domain.CodePartyCreate, "party could not be created", lastErr)
}

func (r *Repo) insertQueued(ctx context.Context, pid, name string, size int) (domain.PartyTicket, error) {
	var position int
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertPartySQL, uuid.NewString(), pid, name, size); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, positionInQueueSQL, pid).Scan(&position)
	})
	if err != nil {
		return domain.PartyTicket{}, err
	}
	return domain.PartyTicket{PartyID: pid, PositionInQueue: position}, nil
}

func (r *Repo) DeleteByPartyID(ctx context.Context, partyID string) error {
	res, err := r.db.ExecContext(ctx, deletePartySQL, partyID)
	if err != nil {
		return domain.Wrap(domain.CodePartyDelete, "party could not be deleted", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Wrap(domain.CodePartyDelete, "party could not be deleted", err)
	}
	if n == 0 {
		return domain.ErrPartyNotFound("party not found")
	}
	return nil
}

// AvailableSeats counts seats not held by seated-with-future-expiration or
// checking-in parties. Checking-in rows hold seats so a grace window can
// never oversell the venue.
func (r *Repo) AvailableSeats(ctx context.Context) (int, error) {
	var available int
	err := r.db.QueryRowContext(ctx, availableSeatsSQL, r.maxSeats).Scan(&available)
	if err != nil {
		return 0, domain.Wrap(domain.CodeSeatsRead, "available seats could not be read", err)
	}
	return available, nil
}

func (r *Repo) CurrentQueuePositions(ctx context.Context) ([]domain.QueuePosition, error) {
	rows, err := r.db.QueryContext(ctx, queuePositionsSQL)
	if err != nil {
		return nil, domain.Wrap(domain.CodeQueueRead, "queue positions could not be read", err)
	}
	defer rows.Close()

	var out []domain.QueuePosition
	for rows.Next() {
		var qp domain.QueuePosition
		if err := rows.Scan(&qp.PartyID, &qp.Row); err != nil {
			return nil, domain.Wrap(domain.CodeQueueRead, "queue positions could not be read", err)
		}
		out = append(out, qp)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.CodeQueueRead, "queue positions could not be read", err)
	}
	return out, nil
}

func (r *Repo) PartiesToDequeue(ctx context.Context, available int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, partiesToDequeueSQL, available)
	if err != nil {
		return nil, domain.Wrap(domain.CodeQueueRead, "dequeue candidates could not be read", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Wrap(domain.CodeQueueRead, "dequeue candidates could not be read", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.CodeQueueRead, "dequeue candidates could not be read", err)
	}
	return ids, nil
}

// SetCheckingIn flips the given parties into their check-in window. One
// UPDATE, one NOW(): all of them share the returned expiration. No matching
// rows is not an error; the zero time signals "nothing flipped".
func (r *Repo) SetCheckingIn(ctx context.Context, partyIDs []string) (time.Time, error) {
	if len(partyIDs) == 0 {
		return time.Time{}, nil
	}

	rows, err := r.db.QueryContext(ctx, setCheckingInSQL, pq.Array(partyIDs), r.checkinExpiry.Seconds())
	if err != nil {
		return time.Time{}, domain.Wrap(domain.CodePartyCheckIn, "check-in window could not be set", err)
	}
	defer rows.Close()

	var expiration time.Time
	for rows.Next() {
		if err := rows.Scan(&expiration); err != nil {
			return time.Time{}, domain.Wrap(domain.CodePartyCheckIn, "check-in window could not be set", err)
		}
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, domain.Wrap(domain.CodePartyCheckIn, "check-in window could not be set", err)
	}
	return expiration, nil
}

func (r *Repo) DeleteCheckinExpired(ctx context.Context) ([]string, error) {
	return r.deleteReturningIDs(ctx, deleteCheckinExpiredSQL)
}

// SetSeated seats a party for size x service-time. The status guard makes
// early and late check-ins resolve to not-found instead of double-seating.
func (r *Repo) SetSeated(ctx context.Context, partyID string, size int) (time.Time, error) {
	secs := float64(size) * r.serviceTimePerSeat.Seconds()

	var expiration time.Time
	err := r.db.QueryRowContext(ctx, setSeatedSQL, partyID, secs).Scan(&expiration)
	if err == sql.ErrNoRows {
		return time.Time{}, domain.ErrPartyNotFound("party is not checking in")
	}
	if err != nil {
		return time.Time{}, domain.Wrap(domain.CodePartySetSeated, "party could not be seated", err)
	}
	return expiration, nil
}

func (r *Repo) RemoveExpiredSeats(ctx context.Context) ([]string, error) {
	return r.deleteReturningIDs(ctx, removeExpiredSeatsSQL)
}

func (r *Repo) deleteReturningIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.Wrap(domain.CodePartyDelete, "expired parties could not be removed", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Wrap(domain.CodePartyDelete, "expired parties could not be removed", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.CodePartyDelete, "expired parties could not be removed", err)
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
