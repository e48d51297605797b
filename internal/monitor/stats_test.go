package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetStatsAccumulates(t *testing.T) {
	s := NewNetStats()

	s.LogRequest(1500, 200)
	s.LogRequest(2500, 300)

	assert.Equal(t, uint64(2), s.Requests())
	assert.Equal(t, uint64(4000), s.BytesSent())
	assert.Equal(t, uint64(500), s.BytesReceived())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}
