package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-redis/redis/v8"
)

func (s *storage) getQuery(queryName string) (*Query, error) {
	q, ok := s.queries[queryName]
	if !ok {
		return nil, fmt.Errorf("storage: query %s not found; have you configured storage properly?", queryName)
	}
	return q, nil
}

func (s *storage) getTable(obj interface{}) (*Table, error) {
	structName := getStructName(obj)
	if structName == "" {
		return nil, errors.New("struct name cannot be blank")
	}

	table, ok := s.structToTable[structName]
	if !ok {
		return nil, errors.New("no table config found for " + structName)
	}
	return table, nil
}

func (s *storage) selectOne(ctx context.Context, obj interface{}, queryName string, conn Conn, useCache bool) error {
	err := checkPointer(obj, reflect.Struct)
	if err != nil {
		return err
	}

	q, err := s.getQuery(queryName)
	if err != nil {
		return err
	}

	useCache = useCache && q.SelectAction == CacheSet

	var keyName string
	if useCache {
		objMap, err := structToMap(obj)
		if err != nil {
			return err
		}

		// get the cache key name
		keyName = q.getKeyName(objMap)

		// the obj should be of the value that the cache is expecting so we can then just unmarshal into that
		err = s.cache.get(ctx, keyName, obj)
		if err == nil {
			s.log.d("selectOne() %s found in cache", keyName)
			return nil
		}

		// check to see if there's a real error
		if err != redis.Nil {
			return err
		}
	}

	// the value wasn't found in the cache; let's get from the database and then set the cache
	query, args, err := s.db.bind(conn, q.Query, obj)
	if err != nil {
		return err
	}

	err = conn.GetContext(ctx, obj, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		s.log.d("selectOne() %s error: %+v", q.Name, err)
		return err
	}

	if useCache {
		s.cacheActionSelect(ctx, keyName, obj, q)
	}
	return nil
}

func (s *storage) selectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, conn Conn, useCache bool) error {
	err := checkPointer(dest, reflect.Slice)
	if err != nil {
		return err
	}

	q, err := s.getQuery(queryName)
	if err != nil {
		return err
	}

	useCache = useCache && q.SelectAction == CacheSet

	var keyName string
	if useCache {
		objMap, err := structToMap(obj)
		if err != nil {
			return err
		}

		keyName = q.getKeyName(objMap)

		err = s.cache.get(ctx, keyName, dest)
		if err == nil {
			s.log.d("selectAll() %s found in cache", keyName)
			return nil
		}

		if err != redis.Nil {
			return err
		}
	}

	query, args, err := s.db.bind(conn, q.Query, obj)
	if err != nil {
		return err
	}

	err = conn.SelectContext(ctx, dest, query, args...)
	if err != nil {
		s.log.d("selectAll() %s error: %+v", q.Name, err)
		return err
	}

	// an empty result is still a result; make sure it's cached as [] rather than null
	v := reflect.ValueOf(dest).Elem()
	if v.IsNil() {
		v.Set(reflect.MakeSlice(v.Type(), 0, 0))
	}

	if useCache {
		s.cacheActionSelect(ctx, keyName, dest, q)
	}
	return nil
}

// insert runs the table's insert query and fills out obj with the returned row
func (s *storage) insert(ctx context.Context, obj interface{}, conn Conn) error {
	table, err := s.getTable(obj)
	if err != nil {
		return err
	}

	if table.InsertQuery == "" {
		return errors.New("no insert query for " + table.tableName)
	}

	return s.execReturning(ctx, obj, table.InsertQuery, conn)
}

// update runs the table's update query and fills out obj with the returned row
func (s *storage) update(ctx context.Context, obj interface{}, conn Conn) error {
	table, err := s.getTable(obj)
	if err != nil {
		return err
	}

	if table.UpdateQuery == "" {
		return errors.New("no update query for " + table.tableName)
	}

	return s.execReturning(ctx, obj, table.UpdateQuery, conn)
}

func (s *storage) delete(ctx context.Context, obj interface{}, conn Conn) error {
	table, err := s.getTable(obj)
	if err != nil {
		return err
	}

	if table.DeleteQuery == "" {
		return errors.New("no delete query for " + table.tableName)
	}

	query, args, err := s.db.bind(conn, table.DeleteQuery, obj)
	if err != nil {
		return err
	}

	_, err = conn.ExecContext(ctx, query, args...)
	return err
}

func (s *storage) execReturning(ctx context.Context, obj interface{}, query string, conn Conn) error {
	err := checkPointer(obj, reflect.Struct)
	if err != nil {
		return err
	}

	query, args, err := s.db.bind(conn, query, obj)
	if err != nil {
		return err
	}

	// RETURNING * lets us overwrite obj with what the db actually stored (ids, defaults, timestamps)
	err = conn.GetContext(ctx, obj, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
