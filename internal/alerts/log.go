package alerts

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/edgegrow/envmon/internal/models"
)

// DefaultLogCapacity bounds the alert history.
const DefaultLogCapacity = 50

// Notifier dispatches an alert batch out of process. The boolean result is
// informational; the log does not retry.
type Notifier interface {
	SendAlert(alerts []models.AlertRecord, reading models.Reading) bool
}

// Entry is one logged evaluation that produced at least one alert.
type Entry struct {
	Timestamp int64
	TimeStr   string
	Reading   models.Reading
	Alerts    []models.AlertRecord
}

// Log is a bounded FIFO of alert entries. Recording is unconditional for
// non-empty batches; notification additionally requires the alarm config to
// be enabled.
type Log struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
	rev      uint64

	cfg      *Config
	notifier Notifier
	logger   *logrus.Logger
}

// NewLog creates an empty alert log. notifier may be nil.
func NewLog(capacity int, cfg *Config, notifier Notifier, logger *logrus.Logger) *Log {
	if capacity < 1 {
		capacity = DefaultLogCapacity
	}
	return &Log{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
	}
}

// Record appends an entry for a non-empty alert batch and, when alerting is
// enabled, forwards the batch to the notifier. An empty batch is a no-op.
func (l *Log) Record(reading models.Reading, alerts []models.AlertRecord) {
	if len(alerts) == 0 {
		return
	}

	l.mu.Lock()
	l.entries = append(l.entries, Entry{
		Timestamp: reading.Timestamp,
		TimeStr:   reading.TimeStr,
		Reading:   reading,
		Alerts:    alerts,
	})
	if n := len(l.entries) - l.capacity; n > 0 {
		copy(l.entries, l.entries[n:])
		l.entries = l.entries[:l.capacity]
	}
	l.rev++
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"alerts":  len(alerts),
		"channel": alerts[0].Channel,
	}).Warn("thresholds violated")

	// Notification happens outside the lock: an SMTP session can block for
	// seconds and must not stall readers of the log.
	if l.cfg.Enabled() && l.notifier != nil {
		l.notifier.SendAlert(alerts, reading)
	}
}

// Clear empties the log immediately.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.rev++
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tail returns up to n of the most recent entries, oldest first.
func (l *Log) Tail(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Revision increments on every mutation.
func (l *Log) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rev
}
