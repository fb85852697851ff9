package storage

import (
	"github.com/sirupsen/logrus"
)

type logger struct {
	entry           *logrus.Entry
	debuggerEnabled bool
}

func newLogger(entry *logrus.Entry, enabled bool) *logger {
	return &logger{
		entry:           entry,
		debuggerEnabled: enabled,
	}
}

func (l *logger) d(s string, args ...interface{}) {
	if l.debuggerEnabled && l.entry != nil {
		l.entry.Debugf(s, args...)
	}
}

// warn is always logged; it's for things that went wrong but shouldn't fail the call
func (l *logger) warn(err error, s string, args ...interface{}) {
	if l.entry != nil {
		l.entry.WithError(err).Warnf(s, args...)
	}
}
