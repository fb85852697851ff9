package storage

import (
	"errors"
	"strings"
)

func (s *storage) validate() error {
	if s.serviceName == "" {
		return errors.New("serviceName must be set")
	}

	if strings.Contains(s.serviceName, "|") {
		return errors.New("serviceName must not contain `|`")
	}

	return s.validateTTLs()
}

// validateTTLs makes sure nothing cached lives forever; a missed invalidation should heal itself
func (s *storage) validateTTLs() error {
	for _, q := range s.queries {
		if q.SelectAction == CacheSet && q.CacheTTL <= 0 {
			return errors.New("CacheTTL (or Config.DefaultTTL) must be set for cached query " + q.Name)
		}
	}
	return nil
}
