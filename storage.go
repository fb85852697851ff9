package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/sirupsen/logrus"
)

// Storage defines our API for this package
type Storage interface {
	// TXBegin starts a transaction; cache actions are taken once TXEnd commits
	TXBegin(ctx context.Context) (TxInterface, error)

	Insert(ctx context.Context, obj interface{}) error // Insert fills out obj with the inserted row
	Update(ctx context.Context, obj interface{}) error // Update fills out obj with the updated row
	Delete(ctx context.Context, obj interface{}) error // Delete is a no-op if the row doesn't exist

	// Select is for fetching one row where obj holds the query's parameters and will be the result
	Select(ctx context.Context, obj interface{}, queryName string) error

	/*
		SelectAll fills out dest (a pointer to a slice) with every row of the query.
		obj holds the query's parameters and can be a struct or a map[string]interface{}
	*/
	SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string) error

	Ping(ctx context.Context) error
}

// storage is the private implements the API
type storage struct {
	db    *db
	cache *cache
	log   *logger

	serviceName string
	defaultTTL  int

	// queries maps query.Name -> query
	queries map[string]*Query

	// queryToTable maps query.Name -> the table it belongs to
	queryToTable map[string]*Table

	// structToTable maps the struct name -> table
	structToTable map[string]*Table
}

type Config struct {
	ReadOnlyDbConn  *sqlx.DB
	WriteOnlyDbConn *sqlx.DB
	Redis           *redis.Client
	Tables          []*Table
	ServiceName     string

	DefaultTTL    int  // seconds; used for queries with no CacheTTL
	DoNotUseCache bool // make sure defaults to bool

	Debugger bool          // log every cache & db action at debug level
	Logger   *logrus.Entry // defaults to the standard logrus logger
}

// New returns storage which implements the interface
func New(conf *Config) (Storage, error) {
	if conf.ReadOnlyDbConn == nil || conf.WriteOnlyDbConn == nil {
		return nil, errors.New("storage: read and write db connections must be set")
	}

	// use the json tag instead of the DB tag so the cache and the db agree on field names
	conf.ReadOnlyDbConn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)
	conf.WriteOnlyDbConn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)

	entry := conf.Logger
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}

	redisClient := conf.Redis
	if conf.DoNotUseCache {
		redisClient = nil
	}

	s := &storage{
		db:            newDB(conf),
		cache:         newCache(redisClient),
		log:           newLogger(entry.WithField("service", conf.ServiceName), conf.Debugger),
		serviceName:   conf.ServiceName,
		defaultTTL:    conf.DefaultTTL,
		queries:       make(map[string]*Query),
		queryToTable:  make(map[string]*Table),
		structToTable: make(map[string]*Table),
	}

	for _, t := range conf.Tables {
		err := t.validate()
		if err != nil {
			return nil, err
		}

		s.structToTable[t.tableName] = t

		for _, q := range t.Queries {
			if _, ok := s.queries[q.Name]; ok {
				return nil, fmt.Errorf("storage: query %s is defined more than once", q.Name)
			}

			err = q.validate()
			if err != nil {
				return nil, fmt.Errorf("storage: table %s query %s: %w", t.tableName, q.Name, err)
			}

			q.parseTableName(t.tableName)
			q.parseFullCacheKey(conf.ServiceName, t.tableName)
			q.parseTTL(conf.DefaultTTL)

			s.queries[q.Name] = q
			s.queryToTable[q.Name] = t
		}
	}

	err := s.validate()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *storage) Insert(ctx context.Context, obj interface{}) error {
	err := s.insert(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	return s.actionNonSelect(ctx, obj, actionInsert)
}

func (s *storage) Update(ctx context.Context, obj interface{}) error {
	err := s.update(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	return s.actionNonSelect(ctx, obj, actionUpdate)
}

func (s *storage) Delete(ctx context.Context, obj interface{}) error {
	err := s.delete(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	return s.actionNonSelect(ctx, obj, actionDelete)
}

func (s *storage) Select(ctx context.Context, obj interface{}, queryName string) error {
	return s.selectOne(ctx, obj, queryName, s.db.readConn(), true)
}

func (s *storage) SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string) error {
	return s.selectAll(ctx, obj, dest, queryName, s.db.readConn(), true)
}

func (s *storage) Ping(ctx context.Context) error {
	err := s.db.writeConn().PingContext(ctx)
	if err != nil {
		return err
	}
	return s.cache.ping(ctx)
}
