package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Contact struct {
	ID     int64  `json:"id"`
	LeadID int64  `json:"lead_id"`
	Phone  string `json:"phone"`
}

const (
	contactsGetAll      = "contactsGetAll"
	contactsGetByLeadID = "contactsGetByLeadID"
	contactsGetByID     = "contactsGetByID"
)

const (
	allKey    = "service:test|Contact|all"
	leadKey7  = "service:test|Contact|lead_id=7"
	selectAll = "SELECT * FROM contacts ORDER BY id DESC"
)

func contactsTable() *Table {
	return &Table{
		Struct:          Contact{},
		PrimaryKeyField: "id",
		InsertQuery:     "INSERT INTO contacts (lead_id, phone) VALUES (:lead_id, :phone) RETURNING *",
		UpdateQuery:     "UPDATE contacts SET phone=:phone WHERE id=:id RETURNING *",
		DeleteQuery:     "DELETE FROM contacts WHERE id=:id",
		Queries: []*Query{
			{
				Name:         contactsGetAll,
				CacheKey:     "all",
				Query:        selectAll,
				SelectAction: CacheSet,
			},
			{
				Name:         contactsGetByLeadID,
				CacheKey:     "lead_id=%v",
				Query:        "SELECT * FROM contacts WHERE lead_id=:lead_id",
				SelectAction: CacheSet,
				UpdateAction: CacheNoAction,
			},
			{
				Name:         contactsGetByID,
				CacheKey:     "id=%v",
				Query:        "SELECT * FROM contacts WHERE id=:id",
				InsertAction: CacheNoAction,
				UpdateAction: CacheNoAction,
				DeleteAction: CacheNoAction,
			},
		},
	}
}

func newTestStorage(t *testing.T, useCache bool) (Storage, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	conn := sqlx.NewDb(mockDB, "postgres")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s, err := New(&Config{
		ReadOnlyDbConn:  conn,
		WriteOnlyDbConn: conn,
		Redis:           rdb,
		Tables:          []*Table{contactsTable()},
		ServiceName:     "test",
		DefaultTTL:      60,
		DoNotUseCache:   !useCache,
	})
	require.NoError(t, err)

	return s, mock, mr
}

func contactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "lead_id", "phone"}).
		AddRow(2, 7, "555-0102").
		AddRow(1, 7, "555-0101")
}

func TestSelectAllCachesResult(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).WillReturnRows(contactRows())

	first := []Contact{}
	require.NoError(t, s.SelectAll(ctx, nil, &first, contactsGetAll))
	require.Len(t, first, 2)
	assert.True(t, mr.Exists(allKey))

	// no second expectation: this has to come from redis
	second := []Contact{}
	require.NoError(t, s.SelectAll(ctx, nil, &second, contactsGetAll))
	assert.Equal(t, first, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectAllEmptyResultIsCachedAsEmpty(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}))

	var got []Contact
	require.NoError(t, s.SelectAll(ctx, nil, &got, contactsGetAll))
	assert.NotNil(t, got)
	assert.Empty(t, got)

	v, err := mr.Get(allKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestSelectAllWithParams(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM contacts WHERE lead_id=$1")).
		WithArgs(int64(7)).
		WillReturnRows(contactRows())

	got := []Contact{}
	require.NoError(t, s.SelectAll(ctx, map[string]interface{}{"lead_id": int64(7)}, &got, contactsGetByLeadID))
	assert.Len(t, got, 2)
	assert.True(t, mr.Exists(leadKey7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertInvalidatesCache(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	require.NoError(t, mr.Set(allKey, "[]"))
	require.NoError(t, mr.Set(leadKey7, "[]"))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contacts (lead_id, phone) VALUES ($1, $2) RETURNING *")).
		WithArgs(int64(7), "555-0103").
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}).AddRow(3, 7, "555-0103"))

	c := &Contact{LeadID: 7, Phone: "555-0103"}
	require.NoError(t, s.Insert(ctx, c))
	assert.Equal(t, int64(3), c.ID)

	assert.False(t, mr.Exists(allKey))
	assert.False(t, mr.Exists(leadKey7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRespectsNoAction(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	require.NoError(t, mr.Set(allKey, "[]"))
	require.NoError(t, mr.Set(leadKey7, "[]"))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts SET phone=$1 WHERE id=$2 RETURNING *")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}).AddRow(3, 7, "555-0199"))

	require.NoError(t, s.Update(ctx, &Contact{ID: 3, LeadID: 7, Phone: "555-0199"}))

	assert.False(t, mr.Exists(allKey))
	// contactsGetByLeadID has UpdateAction: CacheNoAction
	assert.True(t, mr.Exists(leadKey7))
}

func TestUpdateMissingRow(t *testing.T) {
	s, mock, _ := newTestStorage(t, true)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}))

	err := s.Update(context.Background(), &Contact{ID: 99, Phone: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	require.NoError(t, mr.Set(allKey, "[]"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id=$1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(ctx, &Contact{ID: 42}))
	assert.False(t, mr.Exists(allKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectNotFound(t *testing.T) {
	s, mock, _ := newTestStorage(t, true)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM contacts WHERE id=$1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}))

	err := s.Select(context.Background(), &Contact{ID: 1}, contactsGetByID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTxInvalidatesOnlyAfterCommit(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	require.NoError(t, mr.Set(allKey, "[]"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM contacts WHERE id=$1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}).AddRow(3, 7, "555-0103"))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "phone"}).AddRow(3, 7, "555-0104"))
	mock.ExpectCommit()

	tx, err := s.TXBegin(ctx)
	require.NoError(t, err)

	c := &Contact{ID: 3}
	require.NoError(t, tx.TxSelect(ctx, c, contactsGetByID))
	assert.Equal(t, "555-0103", c.Phone)

	c.Phone = "555-0104"
	require.NoError(t, tx.TXUpdate(ctx, c))
	assert.True(t, mr.Exists(allKey), "cache must not change before commit")

	require.NoError(t, tx.TXEnd(ctx))
	assert.False(t, mr.Exists(allKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxDeleteInvalidatesAfterCommit(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	require.NoError(t, mr.Set(allKey, "[]"))
	require.NoError(t, mr.Set(leadKey7, "[]"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM contacts WHERE lead_id=$1")).
		WithArgs(7).
		WillReturnRows(contactRows())
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id=$1")).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id=$1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := s.TXBegin(ctx)
	require.NoError(t, err)

	// reads inside a transaction go to the db even though lead_id=7 is cached
	got := []Contact{}
	require.NoError(t, tx.TxSelectAll(ctx, map[string]interface{}{"lead_id": 7}, &got, contactsGetByLeadID))
	require.Len(t, got, 2)

	for i := range got {
		require.NoError(t, tx.TXDelete(ctx, &got[i]))
	}
	assert.True(t, mr.Exists(allKey), "cache must not change before commit")
	assert.True(t, mr.Exists(leadKey7), "cache must not change before commit")

	require.NoError(t, tx.TXEnd(ctx))
	assert.False(t, mr.Exists(allKey))
	assert.False(t, mr.Exists(leadKey7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRollbackLeavesCache(t *testing.T) {
	s, mock, mr := newTestStorage(t, true)
	ctx := context.Background()

	require.NoError(t, mr.Set(allKey, "[]"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contacts")).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	tx, err := s.TXBegin(ctx)
	require.NoError(t, err)

	err = tx.TXInsert(ctx, &Contact{LeadID: 7, Phone: "1"})
	require.Error(t, err)
	require.NoError(t, tx.TXRollback(ctx))

	assert.True(t, mr.Exists(allKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoNotUseCache(t *testing.T) {
	s, mock, mr := newTestStorage(t, false)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).WillReturnRows(contactRows())
	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).WillReturnRows(contactRows())

	for i := 0; i < 2; i++ {
		got := []Contact{}
		require.NoError(t, s.SelectAll(ctx, nil, &got, contactsGetAll))
	}

	assert.False(t, mr.Exists(allKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectAllRequiresSlicePointer(t *testing.T) {
	s, _, _ := newTestStorage(t, true)

	err := s.SelectAll(context.Background(), nil, []Contact{}, contactsGetAll)
	assert.Error(t, err)
}

func TestUnknownQuery(t *testing.T) {
	s, _, _ := newTestStorage(t, true)

	err := s.SelectAll(context.Background(), nil, &[]Contact{}, "nope")
	assert.Error(t, err)
}
