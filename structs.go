package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a select or update matches no rows
var ErrNotFound = errors.New("storage: no rows found")

type actionTypes int32

const (
	actionSelect actionTypes = iota
	actionInsert
	actionUpdate
	actionDelete
)

// Define the cache actions you can take
type CacheAction int32

const (
	CacheDefault  CacheAction = iota // CacheDel for insert/update/delete, CacheNoAction for select
	CacheNoAction                    // do nothing
	CacheDel
	CacheSet
)

// Query is a named sql query plus the config of its cache entry
type Query struct {
	Name string // unique across all tables

	/*
		CacheKey is the part of the redis key that identifies this query's result, e.g. `all` or `lead_id=%v`.
		Each `column=%v` pipe is filled from the object being selected / mutated.
		The full key is `service:{serviceName}|{tableName}|{CacheKey}`
	*/
	CacheKey string
	Query    string // sql query with named parameters e.g. `select * from leads where id=:id`

	CacheTTL int // time to live in seconds; 0 = Config.DefaultTTL

	InsertAction CacheAction // action to take on this key when a row of the table is inserted
	UpdateAction CacheAction // action to take on this key when a row of the table is updated
	DeleteAction CacheAction // action to take on this key when a row of the table is deleted
	SelectAction CacheAction // CacheSet to cache the result of the query; CacheNoAction to always hit the db

	tableName      string
	fullCacheKey   string
	cacheKeyFields []string
}

// Table holds the config for a DB struct and all the queries run against it
type Table struct {
	Struct          interface{} // DB struct this is based off of
	PrimaryKeyField string      // column name of the primary key e.g. id

	InsertQuery string // must end with `RETURNING *`
	UpdateQuery string // must end with `RETURNING *`
	DeleteQuery string

	Queries []*Query

	tableName string
}

// Conn is what both *sqlx.DB and *sqlx.Tx give us
type Conn interface {
	BindNamed(query string, arg interface{}) (string, []interface{}, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var (
	_ Conn = (*sqlx.DB)(nil)
	_ Conn = (*sqlx.Tx)(nil)
)
