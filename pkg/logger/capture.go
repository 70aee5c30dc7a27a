package logger

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is a log line captured by a CaptureLogger
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// recorder collects entries; shared by all derived capture loggers
type recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *recorder) add(level, msg string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
}

// CaptureLogger records every log call for assertions in tests
type CaptureLogger struct {
	rec    *recorder
	fields map[string]interface{}
}

// NewCaptureLogger creates a logger that records entries instead of printing
func NewCaptureLogger() *CaptureLogger {
	return &CaptureLogger{rec: &recorder{}, fields: map[string]interface{}{}}
}

// Entries returns a copy of all captured entries
func (c *CaptureLogger) Entries() []Entry {
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	out := make([]Entry, len(c.rec.entries))
	copy(out, c.rec.entries)
	return out
}

// EntriesAt returns captured entries for one level
func (c *CaptureLogger) EntriesAt(level string) []Entry {
	var out []Entry
	for _, e := range c.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasMessageContaining reports whether any entry's message contains text
func (c *CaptureLogger) HasMessageContaining(text string) bool {
	for _, e := range c.Entries() {
		if strings.Contains(e.Message, text) {
			return true
		}
	}
	return false
}

func (c *CaptureLogger) log(level, msg string, extra map[string]interface{}) {
	fields := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	c.rec.add(level, msg, fields)
}

func (c *CaptureLogger) derive(extra map[string]interface{}) *CaptureLogger {
	fields := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &CaptureLogger{rec: c.rec, fields: fields}
}

func (c *CaptureLogger) Debug(msg string) { c.log("DEBUG", msg, nil) }
func (c *CaptureLogger) Info(msg string)  { c.log("INFO", msg, nil) }
func (c *CaptureLogger) Warn(msg string)  { c.log("WARN", msg, nil) }
func (c *CaptureLogger) Error(msg string) { c.log("ERROR", msg, nil) }
func (c *CaptureLogger) Fatal(msg string) { c.log("FATAL", msg, nil) }

func (c *CaptureLogger) WithField(key string, value interface{}) Logger {
	return c.derive(map[string]interface{}{key: value})
}

func (c *CaptureLogger) WithFields(fields map[string]interface{}) Logger {
	return c.derive(fields)
}

func (c *CaptureLogger) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.derive(map[string]interface{}{"error": err.Error()})
}

func (c *CaptureLogger) WithContext(ctx context.Context) Logger { return c }

func (c *CaptureLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	c.log("DEBUG", msg, fields)
}

func (c *CaptureLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	c.log("INFO", msg, fields)
}

func (c *CaptureLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	c.log("WARN", msg, fields)
}

func (c *CaptureLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.log("ERROR", msg, fields)
}

func (c *CaptureLogger) GetZerolog() *zerolog.Logger { return nil }
