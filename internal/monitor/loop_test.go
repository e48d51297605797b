package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgegrow/envmon/internal/alerts"
	"github.com/edgegrow/envmon/internal/history"
	"github.com/edgegrow/envmon/internal/mail"
	"github.com/edgegrow/envmon/internal/web"
)

// scriptedSensor plays back a fixed sequence of readings and errors.
type scriptedSensor struct {
	steps []sensorStep
	calls int
}

type sensorStep struct {
	temp, hum float64
	err       error
}

func (s *scriptedSensor) Read(_ context.Context) (float64, float64, error) {
	step := s.steps[len(s.steps)-1]
	if s.calls < len(s.steps) {
		step = s.steps[s.calls]
	}
	s.calls++
	return step.temp, step.hum, step.err
}

// stubSender records attempts without touching the network.
type stubSender struct {
	calls int
	ok    bool
}

func (s *stubSender) Send(_ mail.Credentials, _, _, _ string) error {
	s.calls++
	if !s.ok {
		return errors.New("dial tcp: connection refused")
	}
	return nil
}

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type harness struct {
	mon      *Monitor
	sensor   *scriptedSensor
	sender   *stubSender
	store    *history.Store
	alarms   *alerts.Config
	alertLog *alerts.Log
	email    *mail.Settings
	restarts int
}

func newHarness(t *testing.T, steps ...sensorStep) *harness {
	t.Helper()
	if len(steps) == 0 {
		steps = []sensorStep{{temp: 22.0, hum: 55.0}}
	}

	h := &harness{
		sensor: &scriptedSensor{steps: steps},
		sender: &stubSender{ok: true},
		store:  history.NewStore(history.DefaultCapacity),
		alarms: alerts.NewConfig(alerts.DefaultThresholds(), true),
		email:  mail.NewSettings(false, "", "", "", mail.DefaultCooldown),
	}

	logger := quietLog()
	notifier := mail.NewNotifier(h.email, h.sender, func() mail.DeviceStatus {
		return mail.DeviceStatus{DeviceID: "feedfacecafebeef"}
	}, logger)
	h.alertLog = alerts.NewLog(alerts.DefaultLogCapacity, h.alarms, notifier, logger)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	mon, err := New(opts, Deps{
		Sensor:   h.sensor,
		History:  h.store,
		Alarms:   h.alarms,
		AlertLog: h.alertLog,
		Notifier: notifier,
		Email:    h.email,
		Renderer: renderer,
		Logger:   logger,
		Metrics:  NewMetrics(prometheus.NewRegistry()),
		DeviceID: "feedfacecafebeef",
		Restart:  func() { h.restarts++ },
	})
	require.NoError(t, err)
	h.mon = mon
	return h
}

// request drives one full connection cycle through serve and returns the raw
// response.
func (h *harness) request(t *testing.T, raw string) string {
	t.Helper()
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.mon.serve(context.Background(), server)
	}()

	_, err := client.Write([]byte(raw))
	require.NoError(t, err)
	resp, err := io.ReadAll(client)
	require.NoError(t, err)
	client.Close()
	<-done
	return string(resp)
}

func postForm(body string) string {
	return fmt.Sprintf("POST / HTTP/1.1\r\nHost: envmon\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
}

func TestSampleAppendsToHistory(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 24.0, hum: 60.0})

	r, batch := h.mon.Sample(context.Background())

	assert.InDelta(t, 24.0, r.Temperature, 0.001)
	assert.InDelta(t, 60.0, r.Humidity, 0.001)
	assert.Greater(t, r.VPD, 0.0)
	assert.Empty(t, batch)
	assert.Equal(t, 1, h.store.Len())
}

func TestSampleFailureSubstitutesLastKnownValues(t *testing.T) {
	h := newHarness(t,
		sensorStep{temp: 24.0, hum: 60.0},
		sensorStep{err: errors.New("i2c timeout")},
	)

	h.mon.Sample(context.Background())
	r, _ := h.mon.Sample(context.Background())

	assert.InDelta(t, 24.0, r.Temperature, 0.001)
	assert.InDelta(t, 60.0, r.Humidity, 0.001)
	assert.Equal(t, uint64(1), h.mon.SensorErrors())
	assert.Equal(t, 2, h.store.Len())
}

func TestSampleImplausibleReadingCountsAsFailure(t *testing.T) {
	h := newHarness(t,
		sensorStep{temp: 21.0, hum: 50.0},
		sensorStep{temp: -196.0, hum: 50.0},
	)

	h.mon.Sample(context.Background())
	r, _ := h.mon.Sample(context.Background())

	assert.InDelta(t, 21.0, r.Temperature, 0.001)
	assert.Equal(t, uint64(1), h.mon.SensorErrors())
}

func TestSampleRecordsAlerts(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 35.0, hum: 20.0})

	_, batch := h.mon.Sample(context.Background())

	require.Len(t, batch, 3)
	assert.Equal(t, 1, h.alertLog.Len())
}

func TestServeAnswersGarbageWithOKPage(t *testing.T) {
	h := newHarness(t)

	resp := h.request(t, "NONSENSE \x00\x01 bytes\r\n\r\n")

	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, resp, "Content-Type: text/html")
	assert.Contains(t, resp, "Environmental Monitor")
}

func TestServeGetRendersCurrentReading(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 24.5, hum: 60.0})

	resp := h.request(t, "GET / HTTP/1.1\r\nHost: envmon\r\n\r\n")

	assert.Contains(t, resp, "24.5&deg;C")
	assert.Contains(t, resp, "feedfacecafebeef")
}

func TestServePostUpdatesThresholds(t *testing.T) {
	h := newHarness(t)

	h.request(t, postForm("temp_min=18&temp_max=30&humidity_min=35&humidity_max=75&vpd_min=0.4&vpd_max=1.5"))

	th := h.alarms.Thresholds()
	assert.Equal(t, 18.0, th.TempMin)
	assert.Equal(t, 30.0, th.TempMax)
	assert.Equal(t, 35.0, th.HumidityMin)
	assert.Equal(t, 75.0, th.HumidityMax)
	assert.Equal(t, 0.4, th.VPDMin)
	assert.Equal(t, 1.5, th.VPDMax)
}

func TestServePostPartialFormKeepsOtherThresholds(t *testing.T) {
	h := newHarness(t)

	h.request(t, postForm("temp_max=28"))

	th := h.alarms.Thresholds()
	assert.Equal(t, 28.0, th.TempMax)
	assert.Equal(t, alerts.DefaultThresholds().TempMin, th.TempMin)
}

func TestServePostEmptyPasswordKeepsStored(t *testing.T) {
	h := newHarness(t)
	h.email.SetPassword("app-specific")

	h.request(t, postForm("email_username=grower%40example.com&email_password="))

	snap := h.email.Snapshot()
	assert.Equal(t, "grower@example.com", snap.Username)
	assert.Equal(t, "app-specific", snap.Password)
}

func TestServePostClearLogs(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 35.0, hum: 20.0}, sensorStep{temp: 22.0, hum: 55.0})
	h.mon.Sample(context.Background())
	require.Equal(t, 1, h.alertLog.Len())

	h.request(t, postForm("action=clear_logs"))

	assert.Equal(t, 0, h.alertLog.Len())
}

func TestServePostResetStats(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 24.0, hum: 60.0})
	h.mon.Sample(context.Background())

	h.request(t, postForm("action=reset_stats"))

	// The request cycle samples again after the reset, so the session window
	// re-covers the retained readings.
	stats := h.store.SessionStats()
	assert.InDelta(t, 24.0, stats.Temperature.Min, 0.001)
}

func TestServePostTestEmailBypassesCooldown(t *testing.T) {
	h := newHarness(t)
	h.email.SetEnabled(true)
	h.email.SetUsername("grower@example.com")
	h.email.SetPassword("secret")
	h.email.SetRecipient("alerts@example.com")

	h.request(t, postForm("action=test_email"))
	h.request(t, postForm("action=test_email"))

	assert.Equal(t, 2, h.sender.calls)
}

func TestServePostRestartRunsAfterResponse(t *testing.T) {
	h := newHarness(t)

	resp := h.request(t, postForm("action=restart"))

	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"))
	assert.Equal(t, 1, h.restarts)
}

func TestObserveBackgroundSamplingReusesLastReading(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 24.0, hum: 60.0})
	h.mon.opts.SampleOnRequest = false
	h.mon.Sample(context.Background())
	require.Equal(t, 1, h.store.Len())

	h.request(t, "GET / HTTP/1.1\r\n\r\n")

	// The cycle must not have appended another reading.
	assert.Equal(t, 1, h.store.Len())
	assert.Equal(t, 1, h.sensor.calls)
}

func TestRunServesOverTCPAndStopsOnCancel(t *testing.T) {
	h := newHarness(t)

	// Run does not expose the bound port, so pre-bind one and hand the loop a
	// known address.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	probe.Close()
	h.mon.opts.Addr = addr

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.mon.Run(ctx) }()

	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 20*time.Millisecond)

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: envmon\r\n\r\n"))
	require.NoError(t, err)
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	conn.Close()
	assert.True(t, strings.HasPrefix(string(resp), "HTTP/1.1 200 OK\r\n"))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestStatusReportsDeviceBlock(t *testing.T) {
	h := newHarness(t, sensorStep{temp: 24.0, hum: 60.0})
	h.mon.Sample(context.Background())

	st := h.mon.Status()

	assert.Equal(t, "feedfacecafebeef", st.DeviceID)
	assert.Equal(t, 1, st.ReadingCount)
	assert.Equal(t, uint64(0), st.SensorErrors)
}
