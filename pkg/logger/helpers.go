package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest records one completed HTTP exchange. Successful requests are
// only interesting at trace level.
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode < 400:
		l.TraceWithFields("HTTP request completed", fields)
	case statusCode < 500:
		l.DebugWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request server error", fields)
	}
}

// LogPage records the outcome of one page download.
func LogPage(l Logger, galleryID uint32, page int, skipped bool, err error) {
	fields := map[string]interface{}{
		"gallery_id": galleryID,
		"page":       page,
	}

	switch {
	case err != nil:
		l.WithError(err).WarnWithFields("Failed to download page", fields)
	case skipped:
		l.TraceWithFields("Page already on disk", fields)
	default:
		l.DebugWithFields("Page downloaded", fields)
	}
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Trace(msg string)                                          {}
func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) TraceWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
