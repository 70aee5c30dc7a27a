package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNavigation logs a page navigation performed by the session
func LogNavigation(log Logger, course, surface, url string) {
	log.DebugWithFields("navigating", map[string]interface{}{
		"course":  course,
		"surface": surface,
		"url":     url,
	})
}

// LogDownload logs the outcome of a single file download
func LogDownload(log Logger, course, path string, written bool, err error) {
	fields := map[string]interface{}{
		"course": course,
		"path":   path,
	}
	l := log.WithFields(fields)
	switch {
	case err != nil:
		l.WithError(err).Error("download failed")
	case written:
		l.Info("download completed")
	default:
		l.Info("already present, skipped")
	}
}

// LogCourseProgress logs discovery progress within a course
func LogCourseProgress(log Logger, course string, discovered, stored int) {
	log.InfoWithFields("course progress", map[string]interface{}{
		"course":     course,
		"discovered": discovered,
		"stored":     stored,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
