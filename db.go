package storage

import (
	"github.com/jmoiron/sqlx"
)

type db struct {
	writeConnection *sqlx.DB
	readConnection  *sqlx.DB
}

func newDB(conf *Config) *db {
	return &db{
		writeConnection: conf.WriteOnlyDbConn,
		readConnection:  conf.ReadOnlyDbConn,
	}
}

// bind turns a query with named parameters into the driver's bindvar format using obj's fields
func (db *db) bind(conn Conn, query string, obj interface{}) (string, []interface{}, error) {
	if obj == nil {
		return query, nil, nil
	}
	return conn.BindNamed(query, obj)
}

func (db *db) writeConn() *sqlx.DB {
	return db.writeConnection
}

func (db *db) readConn() *sqlx.DB {
	return db.readConnection
}
