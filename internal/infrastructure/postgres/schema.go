package postgres

import (
	"context"
	"fmt"
)

const createPartiesTableSQL = `
CREATE TABLE IF NOT EXISTS parties (
  id                 UUID PRIMARY KEY,
  party_id           VARCHAR(10) NOT NULL UNIQUE,
  name               VARCHAR(30) NOT NULL,
  size               INT NOT NULL,
  status             TEXT NOT NULL DEFAULT 'queued'
                     CHECK (status IN ('queued', 'checking-in', 'seated')),
  queued_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  checkin_expiration TIMESTAMPTZ NULL,
  seat_expiration    TIMESTAMPTZ NULL
)
`

const createPartiesIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_parties_status_queued_at
  ON parties (status, queued_at, party_id)
`

// EnsureSchema creates the parties table and its queue-scan index when
// missing. Runs once at startup, before the HTTP server and workers.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createPartiesTableSQL, createPartiesIndexSQL} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure parties schema: %w", err)
		}
	}
	return nil
}
