package mail

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two successful alert emails.
const DefaultCooldown = 5 * time.Minute

// SettingsSnapshot is a point-in-time copy of the email configuration.
type SettingsSnapshot struct {
	Enabled   bool
	Username  string
	Password  string
	Recipient string
	Cooldown  time.Duration
	LastSend  time.Time
}

// Settings is the mutable email configuration. The web form mutates it; the
// notifier reads it and owns the last-send timestamp.
type Settings struct {
	mu   sync.RWMutex
	snap SettingsSnapshot
}

// NewSettings builds email settings with the given initial values.
func NewSettings(enabled bool, username, password, recipient string, cooldown time.Duration) *Settings {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Settings{snap: SettingsSnapshot{
		Enabled:   enabled,
		Username:  username,
		Password:  password,
		Recipient: recipient,
		Cooldown:  cooldown,
	}}
}

// Snapshot returns a copy of the current settings.
func (s *Settings) Snapshot() SettingsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetEnabled toggles email alerting.
func (s *Settings) SetEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Enabled = on
}

// SetUsername updates the account and envelope sender.
func (s *Settings) SetUsername(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Username = u
}

// SetPassword updates the account secret.
func (s *Settings) SetPassword(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Password = p
}

// SetRecipient updates the alert destination.
func (s *Settings) SetRecipient(r string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Recipient = r
}

// SetCooldown updates the minimum gap between alert emails.
func (s *Settings) SetCooldown(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Cooldown = d
}

// markSent records a successful dispatch. Only the notifier calls this.
func (s *Settings) markSent(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastSend = at
}
