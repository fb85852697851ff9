package storage

import (
	"context"
	"errors"
	"fmt"
)

/*
	actionNonSelect takes an action on a specific row (not rows) that has been inserted, updated, or deleted.
	Every query of the row's table is looked at and its InsertAction / UpdateAction / DeleteAction is applied
	to the cache key the row maps to, e.g. an insert into leads deletes `service:x|Lead|all`.

	This is the only place mutations touch the cache; both the single-statement writes and TXEnd go through it
*/
func (s *storage) actionNonSelect(ctx context.Context, obj interface{}, action actionTypes) error {
	if action == actionSelect {
		return errors.New("cannot do actionSelect in actionNonSelect...")
	}

	table, err := s.getTable(obj)
	if err != nil {
		return err
	}

	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}

	keys := []string{}
	for _, q := range table.Queries {
		var actionToTake CacheAction
		switch action {
		case actionInsert:
			actionToTake = q.InsertAction
		case actionUpdate:
			actionToTake = q.UpdateAction
		case actionDelete:
			actionToTake = q.DeleteAction
		}

		switch actionToTake {
		case CacheNoAction:
			// don't do anything
		case CacheDefault, CacheDel:
			keys = append(keys, q.getKeyName(objMap))
		default:
			return fmt.Errorf("unknown cache action %d for query %s", actionToTake, q.Name)
		}
	}

	s.log.d("actionNonSelect() deleting: %+v", keys)
	err = s.cache.del(ctx, keys...)
	if err != nil {
		return fmt.Errorf("storage: write succeeded but cache invalidation failed: %w", err)
	}
	return nil
}

// cacheActionSelect stores the result of a select. A failed set is only logged: the caller already has the data
func (s *storage) cacheActionSelect(ctx context.Context, keyName string, value interface{}, q *Query) {
	if q.SelectAction != CacheSet {
		return
	}

	err := s.cache.set(ctx, keyName, value, q.CacheTTL)
	if err != nil {
		s.log.warn(err, "unable to set cache key %s", keyName)
	}
}
