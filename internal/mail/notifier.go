package mail

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/edgegrow/envmon/internal/models"
)

// Sender drives one SMTP exchange. Satisfied by *Session; tests substitute a
// scripted implementation.
type Sender interface {
	Send(creds Credentials, to, subject, body string) error
}

// DeviceStatus is the identity block embedded in outgoing mail.
type DeviceStatus struct {
	DeviceID     string
	Uptime       time.Duration
	ReadingCount int
	SensorErrors uint64
}

// Notifier is the rate-limited email dispatcher. Failures never propagate:
// every path collapses to a boolean so a broken mail server cannot take the
// monitor down with it.
type Notifier struct {
	settings *Settings
	sender   Sender
	logger   *logrus.Logger
	status   func() DeviceStatus
	now      func() time.Time

	// OnResult, when set, observes the outcome of each dispatch attempt:
	// sent, failed, cooldown, disabled.
	OnResult func(outcome string)
}

// NewNotifier wires a dispatcher to its settings and transport. status
// supplies the device identity block for message bodies.
func NewNotifier(settings *Settings, sender Sender, status func() DeviceStatus, logger *logrus.Logger) *Notifier {
	return &Notifier{
		settings: settings,
		sender:   sender,
		logger:   logger,
		status:   status,
		now:      time.Now,
	}
}

func (n *Notifier) observe(outcome string) {
	if n.OnResult != nil {
		n.OnResult(outcome)
	}
}

// SendAlert serializes an alert batch into a message and drives one SMTP
// session. The cooldown is a hard gate: a batch arriving inside the window is
// dropped, not queued. The cooldown timestamp only advances on success, so a
// failed attempt may be retried by the next triggering batch immediately.
func (n *Notifier) SendAlert(alerts []models.AlertRecord, reading models.Reading) bool {
	snap := n.settings.Snapshot()
	if !snap.Enabled || snap.Username == "" {
		n.observe("disabled")
		return false
	}

	now := n.now()
	if !snap.LastSend.IsZero() && now.Sub(snap.LastSend) < snap.Cooldown {
		n.logger.WithField("cooldown", snap.Cooldown).Info("email suppressed by cooldown")
		n.observe("cooldown")
		return false
	}

	subject := "Environmental Alert - envmon"
	body := n.alertBody(alerts, reading, snap)

	if err := n.sender.Send(Credentials{Username: snap.Username, Password: snap.Password}, snap.Recipient, subject, body); err != nil {
		n.logger.WithError(err).Error("alert email failed")
		n.observe("failed")
		return false
	}

	n.settings.markSent(now)
	n.logger.WithFields(logrus.Fields{
		"to":     snap.Recipient,
		"alerts": len(alerts),
	}).Info("alert email sent")
	n.observe("sent")
	return true
}

// SendTest sends a fixed configuration-check message. Test sends bypass the
// cooldown and never advance the last-send timestamp.
func (n *Notifier) SendTest() bool {
	snap := n.settings.Snapshot()
	if snap.Username == "" {
		n.observe("disabled")
		return false
	}

	subject := "Test Email - envmon"
	body := n.testBody(snap)

	if err := n.sender.Send(Credentials{Username: snap.Username, Password: snap.Password}, snap.Recipient, subject, body); err != nil {
		n.logger.WithError(err).Error("test email failed")
		n.observe("failed")
		return false
	}

	n.logger.WithField("to", snap.Recipient).Info("test email sent")
	n.observe("sent")
	return true
}

func (n *Notifier) alertBody(alerts []models.AlertRecord, r models.Reading, snap SettingsSnapshot) string {
	st := n.status()

	var b strings.Builder
	fmt.Fprintf(&b, "ENVIRONMENTAL ALERT\n\n")
	fmt.Fprintf(&b, "Your environmental monitor has detected %d condition(s) that exceed your configured thresholds.\n\n", len(alerts))

	fmt.Fprintf(&b, "CURRENT READINGS:\n")
	fmt.Fprintf(&b, "Temperature: %.1f°C (%.1f°F)\n", r.Temperature, r.TempF())
	fmt.Fprintf(&b, "Humidity: %.1f%%\n", r.Humidity)
	fmt.Fprintf(&b, "VPD: %.2f kPa\n\n", r.VPD)

	fmt.Fprintf(&b, "ACTIVE ALERTS:\n")
	for i, a := range alerts {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(string(a.Severity)), a.Message)
	}

	uptime := st.Uptime
	fmt.Fprintf(&b, "\nDEVICE INFORMATION:\n")
	fmt.Fprintf(&b, "Device ID: %s\n", st.DeviceID)
	fmt.Fprintf(&b, "Uptime: %dh %dm\n", int(uptime.Hours()), int(uptime.Minutes())%60)
	fmt.Fprintf(&b, "Total Readings: %d\n", st.ReadingCount)
	fmt.Fprintf(&b, "Sensor Errors: %d\n\n", st.SensorErrors)

	fmt.Fprintf(&b, "This alert was sent automatically by your environmental monitor.\n")
	fmt.Fprintf(&b, "Next alert will be sent after the %d minute cooldown period.\n", int(snap.Cooldown.Minutes()))

	return b.String()
}

func (n *Notifier) testBody(snap SettingsSnapshot) string {
	st := n.status()

	var b strings.Builder
	fmt.Fprintf(&b, "Environmental Monitor Test Email\n\n")
	fmt.Fprintf(&b, "This is a test email to verify your alert configuration is working correctly.\n\n")
	fmt.Fprintf(&b, "Device ID: %s\n", st.DeviceID)
	fmt.Fprintf(&b, "Uptime: %s\n", models.FormatUptime(st.Uptime.Milliseconds()))
	fmt.Fprintf(&b, "Readings Held: %d\n", st.ReadingCount)
	fmt.Fprintf(&b, "Alert Recipient: %s\n\n", snap.Recipient)
	fmt.Fprintf(&b, "If you received this email, your alert system is configured correctly.\n")

	return b.String()
}
