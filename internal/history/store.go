// Package history keeps a bounded, in-memory window of sensor readings with
// derived statistics. The window is FIFO: once the capacity is reached the
// oldest reading is evicted on every insert.
//
// Two kinds of extrema are tracked per channel:
//   - session min/max, recomputed over the currently retained window only
//   - all-time min/max, monotonic for the process lifetime and unaffected
//     by eviction
package history

import (
	"math"
	"sync"
	"time"

	"github.com/edgegrow/envmon/internal/models"
)

// DefaultCapacity bounds the retained window. Sized for a device with a few
// hundred KB of working memory.
const DefaultCapacity = 50

// Stats holds the extrema for one channel.
type Stats struct {
	Min float64
	Max float64
}

// ChannelStats groups per-channel extrema.
type ChannelStats struct {
	Temperature Stats
	Humidity    Stats
	VPD         Stats
}

// Averages holds the running arithmetic means over the retained window.
type Averages struct {
	Temperature float64
	Humidity    float64
	VPD         float64
}

// Store owns the reading window and its derived statistics. Safe for
// concurrent use; the monitor loop and the background sampler both write.
type Store struct {
	mu       sync.RWMutex
	capacity int
	readings []models.Reading
	session  ChannelStats
	allTime  ChannelStats
	avg      Averages
	rev      uint64
	start    time.Time
	now      func() time.Time
}

// NewStore creates an empty store with the given window capacity.
// A capacity below one falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		readings: make([]models.Reading, 0, capacity),
		session:  sentinelStats(),
		allTime:  sentinelStats(),
		start:    time.Now(),
		now:      time.Now,
	}
}

func sentinelStats() ChannelStats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	return ChannelStats{Temperature: s, Humidity: s, VPD: s}
}

// Add appends a reading, evicting the oldest entries past capacity, and
// recomputes the derived statistics. Returns the stored reading.
func (s *Store) Add(temp, humidity, vpd float64) models.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.now().Sub(s.start).Milliseconds()
	r := models.Reading{
		Timestamp:   elapsed,
		TimeStr:     models.FormatUptime(elapsed),
		Temperature: temp,
		Humidity:    humidity,
		VPD:         vpd,
	}

	s.readings = append(s.readings, r)
	if n := len(s.readings) - s.capacity; n > 0 {
		copy(s.readings, s.readings[n:])
		s.readings = s.readings[:s.capacity]
	}

	// All-time extrema compare against the new value only; they survive
	// eviction of the reading that set them.
	updateAllTime(&s.allTime.Temperature, temp)
	updateAllTime(&s.allTime.Humidity, humidity)
	updateAllTime(&s.allTime.VPD, vpd)

	s.recomputeWindow()
	s.rev++
	return r
}

func updateAllTime(st *Stats, v float64) {
	st.Min = math.Min(st.Min, v)
	st.Max = math.Max(st.Max, v)
}

// recomputeWindow rebuilds session extrema and running averages from the
// retained readings. Caller holds the lock.
func (s *Store) recomputeWindow() {
	if len(s.readings) == 0 {
		return
	}
	sess := sentinelStats()
	var sumT, sumH, sumV float64
	for _, r := range s.readings {
		sess.Temperature.Min = math.Min(sess.Temperature.Min, r.Temperature)
		sess.Temperature.Max = math.Max(sess.Temperature.Max, r.Temperature)
		sess.Humidity.Min = math.Min(sess.Humidity.Min, r.Humidity)
		sess.Humidity.Max = math.Max(sess.Humidity.Max, r.Humidity)
		sess.VPD.Min = math.Min(sess.VPD.Min, r.VPD)
		sess.VPD.Max = math.Max(sess.VPD.Max, r.VPD)
		sumT += r.Temperature
		sumH += r.Humidity
		sumV += r.VPD
	}
	n := float64(len(s.readings))
	s.session = sess
	s.avg = Averages{Temperature: sumT / n, Humidity: sumH / n, VPD: sumV / n}
}

// ResetSession restores the session extrema sentinels. The retained window
// and the all-time extrema are deliberately untouched: "reset" here means
// the displayed session range starts over, not that history is discarded.
// The next insert repopulates the extrema from the full retained window.
func (s *Store) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sentinelStats()
	s.rev++
}

// Len returns the number of retained readings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// Readings returns a copy of the retained window in insertion order.
func (s *Store) Readings() []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// Last returns the most recent reading, if any.
func (s *Store) Last() (models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return models.Reading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// SessionStats returns the extrema of the current window. Until a reading
// exists the values are the +Inf/-Inf sentinels.
func (s *Store) SessionStats() ChannelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// AllTimeStats returns the process-lifetime extrema.
func (s *Store) AllTimeStats() ChannelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allTime
}

// RunningAverages returns the arithmetic means over the retained window.
func (s *Store) RunningAverages() Averages {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avg
}

// Uptime reports how long the store has existed.
func (s *Store) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().Sub(s.start)
}

// UptimeMillis reports Uptime in milliseconds, matching Reading.Timestamp.
func (s *Store) UptimeMillis() int64 {
	return s.Uptime().Milliseconds()
}

// Revision increments on every mutation; renderers use it to detect when a
// cached page is still current.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}
