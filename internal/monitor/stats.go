package monitor

import (
	"fmt"
	"sync"
	"time"
)

// NetStats tracks request-level traffic counters for the status page.
type NetStats struct {
	mu            sync.Mutex
	start         time.Time
	bytesSent     uint64
	bytesReceived uint64
	requests      uint64
	lastRequest   time.Time
}

// NewNetStats starts the counters at zero.
func NewNetStats() *NetStats {
	return &NetStats{start: time.Now()}
}

// LogRequest records one completed request/response pair.
func (s *NetStats) LogRequest(sent, received int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytesSent += uint64(sent)
	s.bytesReceived += uint64(received)
	s.requests++
	s.lastRequest = time.Now()
}

// Requests returns the total request count.
func (s *NetStats) Requests() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// BytesSent returns the total bytes written to clients.
func (s *NetStats) BytesSent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesSent
}

// BytesReceived returns the total bytes read from clients.
func (s *NetStats) BytesReceived() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesReceived
}

// FormatBytes renders a byte count for humans.
func FormatBytes(n uint64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
