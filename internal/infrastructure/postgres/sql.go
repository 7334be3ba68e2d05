package postgres

const insertPartySQL = `
INSERT INTO parties (id, party_id, name, size, status)
VALUES ($1, $2, $3, $4, 'queued')
`

const positionInQueueSQL = `
SELECT position FROM (
  SELECT party_id,
         ROW_NUMBER() OVER (ORDER BY queued_at ASC, party_id ASC) AS position
  FROM parties
  WHERE status = 'queued'
) q
WHERE party_id = $1
`

const getPartySQL = `
SELECT id, party_id, name, size, queued_at, status, checkin_expiration, seat_expiration
FROM parties
WHERE party_id = $1
`

const deletePartySQL = `
DELETE FROM parties WHERE party_id = $1
`

const availableSeatsSQL = `
SELECT $1::int - COALESCE(SUM(size), 0)::int
FROM parties
WHERE (status = 'seated' AND seat_expiration > NOW())
   OR status = 'checking-in'
`

const queuePositionsSQL = `
SELECT party_id,
       ROW_NUMBER() OVER (ORDER BY queued_at ASC, party_id ASC) AS position
FROM parties
WHERE status = 'queued'
ORDER BY queued_at ASC, party_id ASC
`

// Longest FIFO prefix whose cumulative size fits. The running sum makes the
// policy strict: a head party too large to seat blocks everything behind it.
const partiesToDequeueSQL = `
SELECT party_id FROM (
  SELECT party_id, queued_at,
         SUM(size) OVER (ORDER BY queued_at ASC, party_id ASC) AS running_total
  FROM parties
  WHERE status = 'queued'
) q
WHERE running_total <= $1
ORDER BY queued_at ASC, party_id ASC
`

// One statement, one NOW(): every admitted party shares the same expiration.
const setCheckingInSQL = `
UPDATE parties
SET status = 'checking-in',
    checkin_expiration = NOW() + make_interval(secs => $2)
WHERE party_id = ANY($1)
RETURNING checkin_expiration
`

const deleteCheckinExpiredSQL = `
DELETE FROM parties
WHERE status = 'checking-in' AND checkin_expiration < NOW()
RETURNING party_id
`

const setSeatedSQL = `
UPDATE parties
SET status = 'seated',
    seat_expiration = NOW() + make_interval(secs => $2),
    checkin_expiration = NULL
WHERE party_id = $1 AND status = 'checking-in'
RETURNING seat_expiration
`

const removeExpiredSeatsSQL = `
DELETE FROM parties
WHERE status = 'seated' AND seat_expiration < NOW()
RETURNING party_id
`
