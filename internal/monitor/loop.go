// Package monitor orchestrates the sample-evaluate-render cycle and serves
// it over a deliberately minimal HTTP responder.
//
// The server is a single blocking accept-serve-close loop: one connection at
// a time, every request answered with a 200 HTML page regardless of method or
// path, connection closed after each response. This mirrors how the device
// class it targets actually behaves; there is no routing to get wrong and no
// concurrent handler state to protect.
package monitor

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/edgegrow/envmon/internal/alerts"
	"github.com/edgegrow/envmon/internal/history"
	"github.com/edgegrow/envmon/internal/mail"
	"github.com/edgegrow/envmon/internal/models"
	"github.com/edgegrow/envmon/internal/sensor"
	"github.com/edgegrow/envmon/internal/vpd"
	"github.com/edgegrow/envmon/internal/web"
)

const (
	requestBufSize = 4096
	logTailSize    = 10

	// Plausibility window for the sensor class in use. Readings outside it
	// are treated as failed reads.
	minPlausibleTemp = -40.0
	maxPlausibleTemp = 80.0
)

const responseHeader = "HTTP/1.1 200 OK\r\nContent-Type: text/html; charset=utf-8\r\nConnection: close\r\n\r\n"

// Options holds tunables for the monitor loop.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RateLimit       float64 // requests per second
	RateLimitBurst  int
	CacheSize       int
	SampleOnRequest bool // poll the sensor inside each request cycle
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Addr:            "0.0.0.0:8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		RateLimit:       5.0,
		RateLimitBurst:  10,
		CacheSize:       8,
		SampleOnRequest: true,
	}
}

// Deps are the collaborators the loop drives.
type Deps struct {
	Sensor   sensor.Sensor
	History  *history.Store
	Alarms   *alerts.Config
	AlertLog *alerts.Log
	Notifier *mail.Notifier
	Email    *mail.Settings
	Renderer *web.Renderer
	Logger   *logrus.Logger
	Metrics  *Metrics
	DeviceID string
	Restart  func()
}

// Monitor owns the request cycle and all mutable monitoring state.
type Monitor struct {
	opts    Options
	deps    Deps
	cache   *web.PageCache
	limiter *rate.Limiter
	stats   *NetStats

	mu           sync.Mutex
	lastGood     models.Reading
	sensorErrors uint64
}

// New builds a Monitor. The last-known-good reading starts at a benign
// default so a sensor that is dead on arrival still yields a page.
func New(opts Options, deps Deps) (*Monitor, error) {
	cache, err := web.NewPageCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	if deps.Restart == nil {
		deps.Restart = func() {
			deps.Logger.Warn("restart requested but no restart hook is wired")
		}
	}
	return &Monitor{
		opts:    opts,
		deps:    deps,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimitBurst),
		stats:   NewNetStats(),
		lastGood: models.Reading{
			Temperature: 20.0,
			Humidity:    50.0,
			VPD:         1.0,
		},
	}, nil
}

// Status reports the device identity block for outgoing email.
func (m *Monitor) Status() mail.DeviceStatus {
	m.mu.Lock()
	errs := m.sensorErrors
	m.mu.Unlock()
	return mail.DeviceStatus{
		DeviceID:     m.deps.DeviceID,
		Uptime:       m.deps.History.Uptime(),
		ReadingCount: m.deps.History.Len(),
		SensorErrors: errs,
	}
}

// SensorErrors returns the failed-read count.
func (m *Monitor) SensorErrors() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sensorErrors
}

// Sample polls the sensor once and runs the evaluation pipeline: substitute
// stale values on failure, compute VPD, append to history, evaluate
// thresholds, record (and possibly notify) any violations.
func (m *Monitor) Sample(ctx context.Context) (models.Reading, []models.AlertRecord) {
	temp, hum, err := m.deps.Sensor.Read(ctx)
	if err != nil || !plausible(temp, hum) {
		m.mu.Lock()
		m.sensorErrors++
		last := m.lastGood
		m.mu.Unlock()
		m.deps.Metrics.SensorErrors.Inc()
		m.deps.Logger.WithError(err).Warn("sensor read failed, substituting last known values")
		temp, hum = last.Temperature, last.Humidity
	}

	r := m.deps.History.Add(temp, hum, vpd.Compute(temp, hum))

	m.mu.Lock()
	m.lastGood = r
	m.mu.Unlock()

	batch := alerts.Evaluate(r, m.deps.Alarms.Thresholds())
	for _, a := range batch {
		m.deps.Metrics.AlertsRaised.WithLabelValues(string(a.Channel)).Inc()
	}
	m.deps.AlertLog.Record(r, batch)
	return r, batch
}

func plausible(temp, hum float64) bool {
	return temp >= minPlausibleTemp && temp <= maxPlausibleTemp && hum >= 0 && hum <= 100
}

// Run accepts and serves connections until ctx is canceled. One connection
// at a time; a second client waits for the current cycle.
func (m *Monitor) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", m.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.opts.Addr, err)
	}
	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	m.deps.Logger.WithField("addr", m.opts.Addr).Info("monitor listening")

	for {
		// Wait-based throttle: excess clients are delayed, never refused,
		// so the always-200 contract holds.
		if err := m.limiter.Wait(ctx); err != nil {
			return nil
		}
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.deps.Logger.WithError(err).Warn("accept failed")
			continue
		}
		m.serve(ctx, conn)
	}
}

// serve runs one full request cycle. Nothing that happens inside a cycle may
// take the loop down: errors are logged and the connection is closed.
func (m *Monitor) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			m.deps.Logger.WithField("panic", r).Error("request cycle panicked")
		}
	}()

	start := time.Now()
	reqLog := m.deps.Logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"remote":     conn.RemoteAddr().String(),
	})

	_ = conn.SetReadDeadline(time.Now().Add(m.opts.ReadTimeout))
	buf := make([]byte, requestBufSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		reqLog.WithError(err).Warn("request read failed")
		return
	}
	request := buf[:n]

	var action web.Action
	if bytes.HasPrefix(request, []byte("POST")) {
		action = m.applyUpdate(request, reqLog)
	}

	reading, current := m.observe(ctx)
	page := m.renderPage(reading, current)

	_ = conn.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout))
	sent := 0
	if w, err := conn.Write([]byte(responseHeader)); err == nil {
		sent += w
		if w, err = conn.Write(page); err == nil {
			sent += w
		} else {
			reqLog.WithError(err).Warn("response write failed")
		}
	} else {
		reqLog.WithError(err).Warn("response write failed")
	}

	m.stats.LogRequest(sent, n)
	m.deps.Metrics.Requests.Inc()
	m.deps.Metrics.RequestDuration.Observe(time.Since(start).Seconds())

	reqLog.WithFields(logrus.Fields{
		"temp":     fmt.Sprintf("%.1f", reading.Temperature),
		"humidity": fmt.Sprintf("%.1f", reading.Humidity),
		"vpd":      fmt.Sprintf("%.2f", reading.VPD),
		"alerts":   len(current),
		"bytes":    sent,
	}).Info("request served")

	// Restart only after the response has been flushed.
	if action == web.ActionRestart {
		reqLog.Warn("restart requested via web interface")
		m.deps.Restart()
	}
}

// observe produces the reading and alert set for this cycle. In
// sample-on-request mode it polls the sensor; otherwise the background
// sampler owns polling and the cycle re-evaluates the latest reading for
// display without logging it again.
func (m *Monitor) observe(ctx context.Context) (models.Reading, []models.AlertRecord) {
	if m.opts.SampleOnRequest {
		return m.Sample(ctx)
	}
	r, ok := m.deps.History.Last()
	if !ok {
		return m.Sample(ctx)
	}
	return r, alerts.Evaluate(r, m.deps.Alarms.Thresholds())
}

// applyUpdate parses the POST body and applies configuration changes and
// one-shot actions. Returns ActionRestart for the caller to run after the
// response is sent; other actions execute here.
func (m *Monitor) applyUpdate(request []byte, reqLog *logrus.Entry) web.Action {
	body := request
	if i := bytes.Index(request, []byte("\r\n\r\n")); i >= 0 {
		body = request[i+4:]
	}

	u := web.ParseUpdate(body)

	t := m.deps.Alarms.Thresholds()
	overlay(&t.TempMin, u.TempMin)
	overlay(&t.TempMax, u.TempMax)
	overlay(&t.HumidityMin, u.HumidityMin)
	overlay(&t.HumidityMax, u.HumidityMax)
	overlay(&t.VPDMin, u.VPDMin)
	overlay(&t.VPDMax, u.VPDMax)
	m.deps.Alarms.SetThresholds(t)

	if u.EmailUsername != nil {
		m.deps.Email.SetUsername(*u.EmailUsername)
	}
	if u.EmailPassword != nil && *u.EmailPassword != "" {
		m.deps.Email.SetPassword(*u.EmailPassword)
	}
	if u.EmailTo != nil {
		m.deps.Email.SetRecipient(*u.EmailTo)
	}
	if u.EmailEnabled != nil {
		m.deps.Email.SetEnabled(*u.EmailEnabled)
	}
	if u.EmailCooldown != nil {
		m.deps.Email.SetCooldown(time.Duration(*u.EmailCooldown) * time.Minute)
	}

	switch u.Action {
	case web.ActionClearLogs:
		m.deps.AlertLog.Clear()
		reqLog.Info("alert logs cleared")
	case web.ActionResetStats:
		m.deps.History.ResetSession()
		reqLog.Info("session statistics reset")
	case web.ActionTestEmail:
		if m.deps.Notifier.SendTest() {
			reqLog.Info("test email sent")
		} else {
			reqLog.Warn("test email failed")
		}
	}

	// Config changes alter page content without bumping store revisions.
	m.cache.Purge()

	return u.Action
}

func overlay(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// renderPage returns the response body for the current state, consulting the
// revision-keyed cache first and degrading to the fallback page if the
// template fails.
func (m *Monitor) renderPage(reading models.Reading, current []models.AlertRecord) []byte {
	key := web.CacheKey{
		HistoryRev: m.deps.History.Revision(),
		LogRev:     m.deps.AlertLog.Revision(),
	}
	if page, ok := m.cache.Get(key); ok {
		return page
	}

	email := m.deps.Email.Snapshot()
	snap := web.Snapshot{
		DeviceID:      m.deps.DeviceID,
		Reading:       reading,
		Alerts:        current,
		Session:       m.deps.History.SessionStats(),
		AllTime:       m.deps.History.AllTimeStats(),
		Averages:      m.deps.History.RunningAverages(),
		ReadingCount:  m.deps.History.Len(),
		SensorErrors:  m.SensorErrors(),
		RequestCount:  m.stats.Requests(),
		BytesSent:     FormatBytes(m.stats.BytesSent()),
		Uptime:        m.deps.History.Uptime(),
		Thresholds:    m.deps.Alarms.Thresholds(),
		AlarmsEnabled: m.deps.Alarms.Enabled(),
		EmailEnabled:  email.Enabled,
		EmailUsername: email.Username,
		EmailTo:       email.Recipient,
		EmailCooldown: email.Cooldown,
		LogTotal:      m.deps.AlertLog.Len(),
		LogTail:       m.deps.AlertLog.Tail(logTailSize),
	}

	page, err := m.deps.Renderer.Render(snap)
	if err != nil {
		m.deps.Logger.WithError(err).Error("page render failed, serving fallback")
		return web.Fallback(reading)
	}
	m.cache.Add(key, page)
	return page
}
