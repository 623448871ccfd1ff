package store

import "go.uber.org/zap"

// badgerLogger routes badger's internal logging through zap
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
