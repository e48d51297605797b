package mail

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgegrow/envmon/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeSender struct {
	calls    int
	lastTo   string
	lastSubj string
	lastBody string
	err      error
}

func (f *fakeSender) Send(creds Credentials, to, subject, body string) error {
	f.calls++
	f.lastTo = to
	f.lastSubj = subject
	f.lastBody = body
	return f.err
}

func fixedStatus() DeviceStatus {
	return DeviceStatus{
		DeviceID:     "a1b2c3d4e5f60708",
		Uptime:       90 * time.Minute,
		ReadingCount: 42,
		SensorErrors: 3,
	}
}

func newTestNotifier(sender Sender, cooldown time.Duration) (*Notifier, *Settings, *time.Time) {
	settings := NewSettings(true, "grower@gmail.com", "secret", "alerts@example.com", cooldown)
	n := NewNotifier(settings, sender, fixedStatus, quietLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }
	return n, settings, &now
}

func alertBatch() []models.AlertRecord {
	return []models.AlertRecord{
		{
			Channel:  models.ChannelTemperature,
			Severity: models.SeverityHigh,
			Value:    28.4,
			Message:  "Temperature HIGH: 28.4°C (83.1°F) - Max: 26°C",
		},
		{
			Channel:  models.ChannelVPD,
			Severity: models.SeverityHigh,
			Value:    1.9,
			Message:  "VPD HIGH: 1.90kPa - Max: 1.2kPa (Too dry, may stress plants)",
		},
	}
}

func TestSendAlertCooldownGate(t *testing.T) {
	sender := &fakeSender{}
	n, _, now := newTestNotifier(sender, 5*time.Minute)
	r := models.Reading{Temperature: 28.4, Humidity: 50, VPD: 1.9}

	assert.True(t, n.SendAlert(alertBatch(), r), "first send succeeds")

	*now = now.Add(2 * time.Minute)
	assert.False(t, n.SendAlert(alertBatch(), r), "second send inside cooldown is refused")
	assert.Equal(t, 1, sender.calls, "cooldown must gate before the transport")

	*now = now.Add(4 * time.Minute) // 6 minutes after the first send
	assert.True(t, n.SendAlert(alertBatch(), r), "send after cooldown elapses")
	assert.Equal(t, 2, sender.calls)
}

func TestSendAlertFailureDoesNotStartCooldown(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	n, settings, now := newTestNotifier(sender, 5*time.Minute)
	r := models.Reading{}

	assert.False(t, n.SendAlert(alertBatch(), r))
	assert.True(t, settings.Snapshot().LastSend.IsZero(), "failed send must not update last-send")

	// Retry on the very next batch, no cooldown wait.
	sender.err = nil
	*now = now.Add(time.Second)
	assert.True(t, n.SendAlert(alertBatch(), r))
	assert.Equal(t, *now, settings.Snapshot().LastSend)
}

func TestSendAlertDisabledOrUnconfigured(t *testing.T) {
	sender := &fakeSender{}
	n, settings, _ := newTestNotifier(sender, time.Minute)

	settings.SetEnabled(false)
	assert.False(t, n.SendAlert(alertBatch(), models.Reading{}))

	settings.SetEnabled(true)
	settings.SetUsername("")
	assert.False(t, n.SendAlert(alertBatch(), models.Reading{}))

	assert.Equal(t, 0, sender.calls)
}

func TestSendAlertBody(t *testing.T) {
	sender := &fakeSender{}
	n, _, _ := newTestNotifier(sender, 5*time.Minute)
	r := models.Reading{Temperature: 28.4, Humidity: 50.0, VPD: 1.9}

	require.True(t, n.SendAlert(alertBatch(), r))

	assert.Equal(t, "alerts@example.com", sender.lastTo)
	body := sender.lastBody
	assert.Contains(t, body, "2 condition(s)")
	assert.Contains(t, body, "Temperature: 28.4°C")
	assert.Contains(t, body, "1. [HIGH] Temperature HIGH")
	assert.Contains(t, body, "2. [HIGH] VPD HIGH")
	assert.Contains(t, body, "Device ID: a1b2c3d4e5f60708")
	assert.Contains(t, body, "Uptime: 1h 30m")
	assert.Contains(t, body, "5 minute cooldown")
}

func TestSendTestBypassesCooldown(t *testing.T) {
	sender := &fakeSender{}
	n, settings, _ := newTestNotifier(sender, 5*time.Minute)

	require.True(t, n.SendAlert(alertBatch(), models.Reading{}), "prime the cooldown")
	lastSend := settings.Snapshot().LastSend

	assert.True(t, n.SendTest(), "test send ignores an active cooldown")
	assert.Equal(t, 2, sender.calls)
	assert.Equal(t, lastSend, settings.Snapshot().LastSend, "test send must not touch last-send")
	assert.Contains(t, sender.lastBody, "test email")
}

func TestSendTestRequiresUsername(t *testing.T) {
	sender := &fakeSender{}
	n, settings, _ := newTestNotifier(sender, time.Minute)
	settings.SetUsername("")

	assert.False(t, n.SendTest())
	assert.Equal(t, 0, sender.calls)
}

func TestOnResultOutcomes(t *testing.T) {
	sender := &fakeSender{}
	n, settings, now := newTestNotifier(sender, 5*time.Minute)

	var outcomes []string
	n.OnResult = func(o string) { outcomes = append(outcomes, o) }

	n.SendAlert(alertBatch(), models.Reading{}) // sent
	n.SendAlert(alertBatch(), models.Reading{}) // cooldown
	*now = now.Add(10 * time.Minute)
	sender.err = errors.New("boom")
	n.SendAlert(alertBatch(), models.Reading{}) // failed
	settings.SetEnabled(false)
	n.SendAlert(alertBatch(), models.Reading{}) // disabled

	assert.Equal(t, []string{"sent", "cooldown", "failed", "disabled"}, outcomes)
}
