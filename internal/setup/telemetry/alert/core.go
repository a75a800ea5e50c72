// Package alert forwards high-severity log entries to a staff channel.
//
// The Core only enqueues; a Notifier drains the queue on its own goroutine,
// so logging never waits on the Discord session.
package alert

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CriticalKey marks an entry as critical when set to true.
const CriticalKey = "critical"

// Critical returns the field that marks an entry as critical.
func Critical() zap.Field {
	return zap.Bool(CriticalKey, true)
}

// Entry is a log entry waiting to be posted.
type Entry struct {
	Level    zapcore.Level
	Time     time.Time
	Logger   string
	Message  string
	Caller   string
	Stack    string
	Fields   map[string]any
	Critical bool
}

// Queue is a bounded buffer of entries. Entries pushed while it is full are dropped.
type Queue struct {
	entries chan Entry
	dropped atomic.Int64
}

// NewQueue creates a queue holding up to size entries.
func NewQueue(size int) *Queue {
	return &Queue{entries: make(chan Entry, max(size, 1))}
}

// Push adds an entry without blocking and reports whether it was kept.
func (q *Queue) Push(entry Entry) bool {
	select {
	case q.entries <- entry:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dropped returns how many entries were discarded so far.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Core implements zapcore.Core by pushing entries onto a Queue.
type Core struct {
	zapcore.LevelEnabler

	queue  *Queue
	fields []zapcore.Field
}

// NewCore creates a Core forwarding entries enabled by enabler.
func NewCore(enabler zapcore.LevelEnabler, queue *Queue) *Core {
	return &Core{
		LevelEnabler: enabler,
		queue:        queue,
	}
}

// MinLevel parses a configured level. Anything below error is raised to error
// so the notifier's own warnings can never feed back into the queue.
func MinLevel(text string) zapcore.Level {
	level, err := zapcore.ParseLevel(text)
	if err != nil || level < zapcore.ErrorLevel {
		return zapcore.ErrorLevel
	}
	return level
}

// With returns a Core that adds fields to every entry.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	combined := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	combined = append(combined, c.fields...)
	combined = append(combined, fields...)

	return &Core{
		LevelEnabler: c.LevelEnabler,
		queue:        c.queue,
		fields:       combined,
	}
}

// Check determines whether the supplied Entry should be logged.
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write enqueues the entry.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for i := range c.fields {
		c.fields[i].AddTo(enc)
	}
	for i := range fields {
		fields[i].AddTo(enc)
	}

	critical, _ := enc.Fields[CriticalKey].(bool)
	delete(enc.Fields, CriticalKey)

	entry := Entry{
		Level:    ent.Level,
		Time:     ent.Time,
		Logger:   ent.LoggerName,
		Message:  ent.Message,
		Stack:    ent.Stack,
		Fields:   enc.Fields,
		Critical: critical,
	}
	if ent.Caller.Defined {
		entry.Caller = ent.Caller.TrimmedPath()
	}

	c.queue.Push(entry)

	return nil
}

// Sync is a no-op; the Notifier owns delivery.
func (c *Core) Sync() error {
	return nil
}
