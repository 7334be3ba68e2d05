package jobs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewStore(db), mock, func() { _ = db.Close() }
}

func TestStore_Enqueue(t *testing.T) {
	t.Run("schedules_with_delay_seconds", func(t *testing.T) {
		store, mock, done := newTestStore(t)
		defer done()

		mock.ExpectExec("INSERT INTO waitlist_jobs").
			WithArgs(sqlmock.AnyArg(), "dequeue", "run-dequeue", []byte("{}"), float64(30)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Enqueue(context.Background(), "dequeue", "run-dequeue", nil, 30*time.Second)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clamps_negative_delay_to_zero", func(t *testing.T) {
		store, mock, done := newTestStore(t)
		defer done()

		mock.ExpectExec("INSERT INTO waitlist_jobs").
			WithArgs(sqlmock.AnyArg(), "seat-expired", "clear-expired-seats", []byte("{}"), float64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Enqueue(context.Background(), "seat-expired", "clear-expired-seats", nil, -5*time.Second)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("marshals_payload", func(t *testing.T) {
		store, mock, done := newTestStore(t)
		defer done()

		mock.ExpectExec("INSERT INTO waitlist_jobs").
			WithArgs(sqlmock.AnyArg(), "dequeue", "run-dequeue", []byte(`{"why":"seed"}`), float64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Enqueue(context.Background(), "dequeue", "run-dequeue", map[string]string{"why": "seed"}, 0)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Claim(t *testing.T) {
	t.Run("returns_due_job", func(t *testing.T) {
		store, mock, done := newTestStore(t)
		defer done()

		runAt := time.Now().UTC()
		rows := sqlmock.NewRows([]string{"id", "queue", "name", "payload", "run_at", "attempts"}).
			AddRow("job-1", "dequeue", "run-dequeue", []byte("{}"), runAt, 1)

		mock.ExpectQuery("UPDATE waitlist_jobs").
			WithArgs("dequeue").
			WillReturnRows(rows)

		job, err := store.Claim(context.Background(), "dequeue")
		assert.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 1, job.Attempts)
	})

	t.Run("nothing_due_yields_nil_job", func(t *testing.T) {
		store, mock, done := newTestStore(t)
		defer done()

		mock.ExpectQuery("UPDATE waitlist_jobs").
			WithArgs("dequeue").
			WillReturnError(sql.ErrNoRows)

		job, err := store.Claim(context.Background(), "dequeue")
		assert.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("wraps_other_errors", func(t *testing.T) {
		store, mock, done := newTestStore(t)
		defer done()

		mock.ExpectQuery("UPDATE waitlist_jobs").
			WithArgs("dequeue").
			WillReturnError(sql.ErrConnDone)

		_, err := store.Claim(context.Background(), "dequeue")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "claim dequeue")
	})
}

func TestStore_CompleteAndFail(t *testing.T) {
	store, mock, done := newTestStore(t)
	defer done()

	mock.ExpectExec("UPDATE waitlist_jobs SET state = 'done'").
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, store.Complete(context.Background(), "job-1"))

	mock.ExpectExec("UPDATE waitlist_jobs SET state = 'failed'").
		WithArgs("job-2", "boom").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, store.Fail(context.Background(), "job-2", "boom"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
