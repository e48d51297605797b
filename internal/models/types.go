package models

import "fmt"

// Channel identifies one measured quantity.
type Channel string

const (
	ChannelTemperature Channel = "temperature"
	ChannelHumidity    Channel = "humidity"
	ChannelVPD         Channel = "vpd"
)

// Severity classifies a threshold violation.
type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityHigh Severity = "high"
)

// Reading is a single sensor observation. Timestamp is monotonic milliseconds
// since the store was created; TimeStr is the same instant formatted as an
// uptime clock for display.
type Reading struct {
	Timestamp   int64
	TimeStr     string
	Temperature float64
	Humidity    float64
	VPD         float64
}

// TempF returns the temperature in Fahrenheit.
func (r Reading) TempF() float64 {
	return r.Temperature*9/5 + 32
}

// AlertRecord describes one threshold violation on one channel.
type AlertRecord struct {
	Channel   Channel
	Severity  Severity
	Value     float64
	Threshold float64
	Message   string
}

// FormatUptime renders elapsed milliseconds as HH:MM:SS.
func FormatUptime(elapsedMs int64) string {
	elapsed := elapsedMs / 1000
	return fmt.Sprintf("%02d:%02d:%02d", elapsed/3600, (elapsed%3600)/60, elapsed%60)
}
