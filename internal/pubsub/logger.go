package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ispbilling/ispbilling/internal/logger"
)

// zapAdapter routes watermill logs through the application logger
type zapAdapter struct {
	logger *logger.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter wraps the application logger as a watermill.LoggerAdapter
func NewLoggerAdapter(log *logger.Logger) watermill.LoggerAdapter {
	return &zapAdapter{logger: log}
}

func (a *zapAdapter) keyvals(fields watermill.LogFields) []interface{} {
	merged := a.fields.Add(fields)
	kv := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		kv = append(kv, k, v)
	}
	return kv
}

func (a *zapAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Errorw(msg, append(a.keyvals(fields), "error", err)...)
}

func (a *zapAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Infow(msg, a.keyvals(fields)...)
}

func (a *zapAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keyvals(fields)...)
}

// Trace is folded into debug; zap has no lower level.
func (a *zapAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keyvals(fields)...)
}

func (a *zapAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}
