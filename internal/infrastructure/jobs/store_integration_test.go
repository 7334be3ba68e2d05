//go:build integration
// +build integration

package jobs_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/EABruton/waitlist/internal/infrastructure/jobs"
)

func testStore(t *testing.T) (*jobs.Store, *sql.DB) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Ping())

	store := jobs.NewStore(db)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store, db
}

// testQueue returns a queue name unique to this run so tests never see
// jobs left behind by earlier runs.
func testQueue(name string) string {
	return fmt.Sprintf("it-%s-%d", name, time.Now().UnixNano())
}

func jobState(t *testing.T, db *sql.DB, id string) (string, sql.NullString) {
	t.Helper()
	var state string
	var lastError sql.NullString
	err := db.QueryRowContext(context.Background(),
		"SELECT state, last_error FROM waitlist_jobs WHERE id = $1", id,
	).Scan(&state, &lastError)
	require.NoError(t, err)
	return state, lastError
}

func TestLive_EnqueueClaimComplete(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()
	queue := testQueue("dequeue")

	job, err := store.Claim(ctx, queue)
	require.NoError(t, err)
	require.Nil(t, job, "an empty queue claims nothing")

	require.NoError(t, store.Enqueue(ctx, queue, "dequeue", map[string]string{"trigger": "join"}, 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Enqueue(ctx, queue, "dequeue", nil, 0))

	first, err := store.Claim(ctx, queue)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, queue, first.Queue)
	require.Equal(t, "dequeue", first.Name)
	require.Equal(t, 1, first.Attempts)
	require.JSONEq(t, `{"trigger": "join"}`, string(first.Payload))

	second, err := store.Claim(ctx, queue)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.NotEqual(t, first.ID, second.ID)
	require.JSONEq(t, `{}`, string(second.Payload))

	// Both jobs are running now; there is nothing left to claim.
	job, err = store.Claim(ctx, queue)
	require.NoError(t, err)
	require.Nil(t, job)

	require.NoError(t, store.Complete(ctx, first.ID))
	state, _ := jobState(t, db, first.ID)
	require.Equal(t, "done", state)
	state, _ = jobState(t, db, second.ID)
	require.Equal(t, "running", state)
}

func TestLive_DelayedJobHeldUntilDue(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	queue := testQueue("seat-expired")

	enqueuedAt := time.Now()
	require.NoError(t, store.Enqueue(ctx, queue, "seat-expired", nil, 600*time.Millisecond))

	job, err := store.Claim(ctx, queue)
	require.NoError(t, err)
	require.Nil(t, job, "the job is not due yet")

	time.Sleep(800 * time.Millisecond)

	job, err = store.Claim(ctx, queue)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.True(t, job.RunAt.After(enqueuedAt))
}

func TestLive_FailParksJob(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()
	queue := testQueue("checkin-expired")

	require.NoError(t, store.Enqueue(ctx, queue, "checkin-expired", nil, 0))

	job, err := store.Claim(ctx, queue)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, store.Fail(ctx, job.ID, "redis publish refused"))
	state, lastError := jobState(t, db, job.ID)
	require.Equal(t, "failed", state)
	require.Equal(t, "redis publish refused", lastError.String)

	// Failed jobs stay parked; they are never claimed again.
	job, err = store.Claim(ctx, queue)
	require.NoError(t, err)
	require.Nil(t, job)
}
