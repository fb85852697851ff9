package storage

import (
	"errors"
	"fmt"
	"strings"
)

func (q *Query) validate() error {
	err := q.validateName()
	if err != nil {
		return err
	}

	if strings.TrimSpace(q.Query) == "" {
		return errors.New("query is required")
	}

	err = q.validateAndParseCacheFields()
	if err != nil {
		return err
	}

	return q.validateActions()
}

func (q *Query) parseTableName(tableName string) {
	q.tableName = tableName
}

func (q *Query) parseFullCacheKey(service string, tableName string) {
	// this is an optimization so we don't need to sprintf extra keys and do the lookup
	// small but this is used so many times that it's worth it
	q.fullCacheKey = fmt.Sprintf("service:%s|%s", service, tableName)
}

// validateActions makes sure mutations only ever delete keys and selects only ever set them
func (q *Query) validateActions() error {
	for name, a := range map[string]CacheAction{"InsertAction": q.InsertAction, "UpdateAction": q.UpdateAction, "DeleteAction": q.DeleteAction} {
		switch a {
		case CacheDefault, CacheNoAction, CacheDel:
		default:
			return fmt.Errorf("%s must be CacheNoAction or CacheDel", name)
		}
	}

	switch q.SelectAction {
	case CacheDefault:
		q.SelectAction = CacheNoAction
	case CacheNoAction, CacheSet:
	default:
		return errors.New("SelectAction must be CacheNoAction or CacheSet")
	}

	if q.SelectAction == CacheSet && q.CacheKey == "" {
		return errors.New("CacheKey is required when SelectAction is CacheSet")
	}
	return nil
}

// validateAndParseCacheFields takes in a generic key e.g. `lead_id=%v` and places the lead_id into the cacheKeyFields
func (q *Query) validateAndParseCacheFields() error {
	fields := []string{}

	for _, key := range strings.Split(q.CacheKey, "|") {
		if strings.Contains(key, "!=") {
			return fmt.Errorf("CacheKey %s: `!=` is not supported", q.CacheKey)
		}

		if !strings.Contains(key, `=%v`) {
			// field doesn't have a placeholder value; continue
			continue
		}

		parts := strings.Split(key, "=")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "%v" {
			return fmt.Errorf("invalid CacheKey %s; a pipe must be in the format `column=%%v`", q.CacheKey)
		}

		fields = append(fields, parts[0])
	}

	q.cacheKeyFields = fields
	return nil
}

func (q *Query) validateName() error {
	if q.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (q *Query) parseTTL(defaultTTL int) {
	if q.CacheTTL == 0 {
		q.CacheTTL = defaultTTL
	}
}

// getKeyName takes a query's abstract key, e.g. `lead_id=%v` and returns the full key name e.g. `service:leads|LeadHistory|lead_id=1273`
func (q *Query) getKeyName(objMap map[string]interface{}) string {
	args := make([]interface{}, 0, len(q.cacheKeyFields))
	for _, field := range q.cacheKeyFields {
		args = append(args, objMap[field])
	}

	return q.fullCacheKey + "|" + fmt.Sprintf(q.CacheKey, args...)
}
