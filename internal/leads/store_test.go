package leads

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
)

const (
	allLeadsKey  = "service:leadtracker|Lead|all"
	history5Key  = "service:leadtracker|LeadHistory|lead_id=5"
	selectAll    = "SELECT * FROM leads ORDER BY id DESC"
	selectLocked = "SELECT * FROM leads WHERE id=$1 FOR UPDATE"
)

var leadColumns = []string{"id", "name", "contact_number", "address", "source", "status", "first_contacted", "scheduled_walk_in", "licence", "notes", "updated_at"}

var historyColumns = []string{"id", "lead_id", "old_status", "new_status", "changed_at", "notes"}

var now = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func leadRow(id int64, name string, status interface{}, notes interface{}) []driver.Value {
	return []driver.Value{id, name, "555-01" + name, nil, "Instagram", status, nil, nil, "no", notes, now}
}

type fixture struct {
	store Store
	mock  sqlmock.Sqlmock
	redis *miniredis.Miniredis
	logs  *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	conn := sqlx.NewDb(mockDB, "postgres")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s, err := New(&Config{
		ReadConn:  conn,
		WriteConn: conn,
		Redis:     rdb,
		Logger:    logrus.NewEntry(logger),
	})
	require.NoError(t, err)

	return &fixture{store: s, mock: mock, redis: mr, logs: hook}
}

func TestFetchAllIsCachedAndInsertIsVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(1, "Ann", "pending", nil)...))

	got, err := f.store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// served from redis: no db expectation
	got, err = f.store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusPending, got[0].Status)

	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).
		WithArgs("A", "123", nil, "Instagram", "pending", nil, nil, "yes", nil).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(2, "A", "123", nil, "Instagram", "pending", nil, nil, "yes", nil, now))

	inserted, err := f.store.Insert(ctx, Fields{Name: "A", ContactNumber: "123", Source: SourceInstagram, Status: StatusPending, Licence: LicenceYes})
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted.ID)
	assert.False(t, f.redis.Exists(allLeadsKey))

	f.mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WillReturnRows(sqlmock.NewRows(leadColumns).
			AddRow(2, "A", "123", nil, "Instagram", "pending", nil, nil, "yes", nil, now).
			AddRow(leadRow(1, "Ann", "pending", nil)...))

	got, err = f.store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestInsertDefaults(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).
		WithArgs("Bo", "999", nil, nil, "pending", nil, nil, "no", nil).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(3, "Bo", "999", nil, nil, "pending", nil, nil, "no", nil, now))

	l, err := f.store.Insert(context.Background(), Fields{Name: " Bo ", ContactNumber: "999"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, l.Status)
	assert.Equal(t, LicenceNo, l.Licence)
	assert.Equal(t, Source(""), l.Source)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestInsertRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Insert(ctx, Fields{Name: "A"})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.NotErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.store.Insert(ctx, Fields{Name: "A", ContactNumber: "1", Source: "Billboard"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.store.Insert(ctx, Fields{Name: "A", ContactNumber: "1", Licence: "maybe"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// nothing reached the db
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestInsertDatabaseDown(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).WillReturnError(driver.ErrBadConn)

	_, err := f.store.Insert(context.Background(), Fields{Name: "A", ContactNumber: "1"})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestUpdateStatusChangeWritesOneHistoryRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.redis.Set(allLeadsKey, "[]"))
	require.NoError(t, f.redis.Set(history5Key, "[]"))

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "pending", "first call")...))
	f.mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads SET")).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "processing", "sent forms")...))
	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_history")).
		WithArgs(int64(5), "pending", "processing", "sent forms").
		WillReturnRows(sqlmock.NewRows(historyColumns).AddRow(1, 5, "pending", "processing", now, "sent forms"))
	f.mock.ExpectCommit()

	notes := "sent forms"
	l, err := f.store.Update(ctx, 5, Fields{Name: "Cy", ContactNumber: "555-01Cy", Source: SourceInstagram, Status: StatusProcessing, Licence: LicenceNo, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, l.Status)

	assert.False(t, f.redis.Exists(allLeadsKey))
	assert.False(t, f.redis.Exists(history5Key))
	assert.NoError(t, f.mock.ExpectationsWereMet())

	entry := f.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, StatusPending, entry.Data["old_status"])
	assert.Equal(t, StatusProcessing, entry.Data["new_status"])
}

func TestUpdateSameStatusWritesNoHistory(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "pending", nil)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads SET")).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cyrus", "pending", nil)...))
	f.mock.ExpectCommit()

	// an INSERT INTO lead_history here would be an unexpected query and fail the update
	l, err := f.store.Update(context.Background(), 5, Fields{Name: "Cyrus", ContactNumber: "555", Status: StatusPending})
	require.NoError(t, err)
	assert.Equal(t, "Cyrus", l.Name)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateFromNullStatusWritesNoHistory(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", nil, nil)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads SET")).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "onboarded", nil)...))
	f.mock.ExpectCommit()

	_, err := f.store.UpdateStatus(context.Background(), 5, StatusOnboarded)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateStatusKeepsOtherFields(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "processing", "call back")...))
	f.mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads SET")).
		WithArgs("Cy", "555-01Cy", nil, "Instagram", "rejected", nil, nil, "no", "call back", int64(5)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "rejected", "call back")...))
	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_history")).
		WithArgs(int64(5), "processing", "rejected", "call back").
		WillReturnRows(sqlmock.NewRows(historyColumns).AddRow(2, 5, "processing", "rejected", now, "call back"))
	f.mock.ExpectCommit()

	_, err := f.store.UpdateStatus(context.Background(), 5, StatusRejected)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateAdvancesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	later := now.Add(time.Minute)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "pending", nil)...))
	// the row's timestamp comes from the database clock, never from the caller
	f.mock.ExpectQuery(`(?s)^UPDATE leads SET .*updated_at=NOW\(\)\s+WHERE id=\$10 RETURNING \*$`).
		WithArgs("Cyrus", "555", nil, nil, "pending", nil, nil, "no", nil, int64(5)).
		WillReturnRows(sqlmock.NewRows(leadColumns).
			AddRow(5, "Cyrus", "555", nil, nil, "pending", nil, nil, "no", nil, later))
	f.mock.ExpectCommit()

	l, err := f.store.Update(context.Background(), 5, Fields{Name: "Cyrus", ContactNumber: "555"})
	require.NoError(t, err)
	assert.True(t, l.UpdatedAt.After(now))
	assert.Equal(t, later, l.UpdatedAt)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).WillReturnRows(sqlmock.NewRows(leadColumns))
	f.mock.ExpectRollback()

	_, err := f.store.Update(context.Background(), 404, Fields{Name: "A", ContactNumber: "1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).WillReturnRows(sqlmock.NewRows(leadColumns))
	f.mock.ExpectRollback()

	_, err = f.store.UpdateStatus(context.Background(), 404, StatusOnboarded)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateAndHistoryAreOneTransaction(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.redis.Set(allLeadsKey, "[]"))

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(selectLocked)).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "pending", nil)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads SET")).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "processing", nil)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_history")).
		WillReturnError(errors.New("disk full"))
	f.mock.ExpectRollback()

	_, err := f.store.UpdateStatus(context.Background(), 5, StatusProcessing)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")

	// rolled back: nothing was written so nothing was invalidated
	assert.True(t, f.redis.Exists(allLeadsKey))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.UpdateStatus(context.Background(), 5, "lost")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.redis.Set(allLeadsKey, "[]"))

	f.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM leads WHERE id=$1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.store.Delete(ctx, 5))
	assert.False(t, f.redis.Exists(allLeadsKey))

	// absent id: still fine
	f.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM leads WHERE id=$1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, f.store.Delete(ctx, 5))

	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM lead_history WHERE lead_id=$1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(historyColumns).AddRow(1, 5, "pending", "processing", now, nil))

	h, err := f.store.History(ctx, 5)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, StatusPending, h[0].OldStatus)
	assert.True(t, f.redis.Exists(history5Key))

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM leads WHERE id=$1")).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(leadRow(5, "Cy", "pending", nil)...))
	l, err := f.store.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Cy", l.Name)

	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM leads WHERE id=$1")).
		WillReturnRows(sqlmock.NewRows(leadColumns))
	_, err = f.store.Get(context.Background(), 6)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
