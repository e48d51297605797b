// Package web renders the status/configuration page and parses the
// configuration form. Rendering is a pure function from a state snapshot to
// bytes; the monitor owns all the state.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/edgegrow/envmon/internal/alerts"
	"github.com/edgegrow/envmon/internal/history"
	"github.com/edgegrow/envmon/internal/models"
)

// Snapshot carries everything the page needs, copied out of the live stores
// so rendering never touches shared state.
type Snapshot struct {
	DeviceID      string
	Reading       models.Reading
	Alerts        []models.AlertRecord
	Session       history.ChannelStats
	AllTime       history.ChannelStats
	Averages      history.Averages
	ReadingCount  int
	SensorErrors  uint64
	RequestCount  uint64
	BytesSent     string
	Uptime        time.Duration
	Thresholds    alerts.Thresholds
	AlarmsEnabled bool
	EmailEnabled  bool
	EmailUsername string
	EmailTo       string
	EmailCooldown time.Duration
	LogTotal      int
	LogTail       []alerts.Entry
}

// VPDStatus is the display band for a VPD value.
type VPDStatus struct {
	Status string
	Color  string
	Advice string
}

// StatusForVPD maps a VPD value onto the plant-health bands shown on the
// dashboard.
func StatusForVPD(vpd float64) VPDStatus {
	switch {
	case vpd < 0.4:
		return VPDStatus{"Too Low", "#ff6b6b", "Increase temperature or decrease humidity"}
	case vpd <= 0.8:
		return VPDStatus{"Ideal", "#51cf66", "Perfect conditions for most plants"}
	case vpd <= 1.2:
		return VPDStatus{"Good", "#69db7c", "Good for vegetative growth"}
	case vpd <= 1.6:
		return VPDStatus{"Acceptable", "#ffd43b", "OK for flowering stage"}
	default:
		return VPDStatus{"Too High", "#ff6b6b", "Decrease temperature or increase humidity"}
	}
}

// Renderer turns snapshots into HTML pages.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the page template once.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"f1":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"f2":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"g":     func(v float64) string { return fmt.Sprintf("%g", v) },
		"stat1": formatStat(1),
		"stat2": formatStat(2),
		"vpdStatus": func(v float64) VPDStatus {
			return StatusForVPD(v)
		},
		"uptimeHours": func(d time.Duration) string {
			return fmt.Sprintf("%.1fh", d.Hours())
		},
		"cooldownMinutes": func(d time.Duration) int {
			return int(d.Minutes())
		},
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// formatStat renders an extremum, mapping the pre-first-reading sentinels to
// a dash instead of printing infinities.
func formatStat(decimals int) func(float64) string {
	return func(v float64) string {
		if math.IsInf(v, 0) {
			return "—"
		}
		return fmt.Sprintf("%.*f", decimals, v)
	}
}

// Render produces the full page for one snapshot.
func (r *Renderer) Render(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Fallback is the minimal page served when full rendering fails. It must not
// be able to fail itself.
func Fallback(reading models.Reading) []byte {
	return []byte(fmt.Sprintf(`<html><head><title>envmon</title><meta http-equiv="refresh" content="30"></head>
<body style="font-family:Arial;padding:20px;">
<h1>Environmental Monitor</h1>
<p><strong>Temperature:</strong> %.1f&deg;C (%.1f&deg;F)</p>
<p><strong>Humidity:</strong> %.1f%%</p>
<p><strong>VPD:</strong> %.2f kPa</p>
<p>Using fallback interface due to a rendering problem</p>
</body></html>`, reading.Temperature, reading.TempF(), reading.Humidity, reading.VPD))
}
