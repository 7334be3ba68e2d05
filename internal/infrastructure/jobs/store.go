package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const createJobsTableSQL = `
CREATE TABLE IF NOT EXISTS waitlist_jobs (
  id         UUID PRIMARY KEY,
  queue      TEXT NOT NULL,
  name       TEXT NOT NULL,
  payload    JSONB NOT NULL DEFAULT '{}'::jsonb,
  state      TEXT NOT NULL DEFAULT 'queued'
             CHECK (state IN ('queued', 'running', 'done', 'failed')),
  run_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  attempts   INT NOT NULL DEFAULT 0,
  last_error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`

const createJobsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_waitlist_jobs_claim
  ON waitlist_jobs (queue, state, run_at)
`

const enqueueJobSQL = `
INSERT INTO waitlist_jobs (id, queue, name, payload, run_at)
VALUES ($1, $2, $3, $4, NOW() + make_interval(secs => $5))
`

const claimJobSQL = `
UPDATE waitlist_jobs
SET state = 'running', attempts = attempts + 1, updated_at = NOW()
WHERE id = (
  SELECT id FROM waitlist_jobs
  WHERE queue = $1 AND state = 'queued' AND run_at <= NOW()
  ORDER BY run_at ASC, created_at ASC
  LIMIT 1
  FOR UPDATE SKIP LOCKED
)
RETURNING id, queue, name, payload, run_at, attempts
`

const completeJobSQL = `
UPDATE waitlist_jobs SET state = 'done', updated_at = NOW() WHERE id = $1
`

const failJobSQL = `
UPDATE waitlist_jobs SET state = 'failed', last_error = $2, updated_at = NOW() WHERE id = $1
`

type Job struct {
	ID       string
	Queue    string
	Name     string
	Payload  []byte
	RunAt    time.Time
	Attempts int
}

// Store is the durable job queue. Jobs become claimable once run_at passes;
// claiming uses SKIP LOCKED so a claim never blocks on another claim.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createJobsTableSQL, createJobsIndexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure jobs schema: %w", err)
		}
	}
	return nil
}

// Enqueue schedules a job to run no earlier than now + delay. The waitlist
// handlers ignore payloads, but they are stored for inspection.
func (s *Store) Enqueue(ctx context.Context, queue, name string, payload any, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}

	body := []byte("{}")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal job payload: %w", err)
		}
		body = b
	}

	_, err := s.db.ExecContext(ctx, enqueueJobSQL,
		uuid.NewString(), queue, name, body, delay.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s/%s: %w", queue, name, err)
	}
	return nil
}

// Claim takes the next due job off the queue, or returns (nil, nil) when
// nothing is due.
func (s *Store) Claim(ctx context.Context, queue string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, claimJobSQL, queue)

	var j Job
	err := row.Scan(&j.ID, &j.Queue, &j.Name, &j.Payload, &j.RunAt, &j.Attempts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", queue, err)
	}
	return &j, nil
}

func (s *Store) Complete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, completeJobSQL, id)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return nil
}

// Fail parks the job for inspection. There is no automatic retry: every
// waitlist mutation re-enqueues a dequeue, so triggering is redundant
// enough that the next job redoes the work.
func (s *Store) Fail(ctx context.Context, id, cause string) error {
	_, err := s.db.ExecContext(ctx, failJobSQL, id, cause)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}
