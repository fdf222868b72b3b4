package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	failedLoginWindow    = 10 * time.Minute
	failedLoginThreshold = 5
	alertCooldown        = time.Hour
	maxAlertHistory      = 100
)

// SecurityAlert is raised when an address keeps failing to log in
type SecurityAlert struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
}

// SecurityMonitor counts failed logins per IP in a sliding window
type SecurityMonitor struct {
	mu           sync.Mutex
	now          func() time.Time
	failedLogins map[string][]time.Time
	alertedIPs   map[string]time.Time
	alerts       []SecurityAlert
}

// Monitor is the process-wide monitor fed by the login endpoint
var Monitor = NewSecurityMonitor()

// NewSecurityMonitor creates an empty monitor
func NewSecurityMonitor() *SecurityMonitor {
	return &SecurityMonitor{
		now:          time.Now,
		failedLogins: make(map[string][]time.Time),
		alertedIPs:   make(map[string]time.Time),
	}
}

// TrackFailedLogin records a failure and raises an alert once the IP crosses the threshold.
// It returns the alert when one was raised.
func (m *SecurityMonitor) TrackFailedLogin(ip, email string) *SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	windowStart := now.Add(-failedLoginWindow)
	attempts := append(m.failedLogins[ip], now)
	valid := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	m.failedLogins[ip] = valid

	if len(valid) < failedLoginThreshold {
		return nil
	}
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < alertCooldown {
		return nil
	}
	m.alertedIPs[ip] = now

	alert := SecurityAlert{
		Timestamp: now,
		IP:        ip,
		Email:     email,
		Reason:    "Múltiples intentos de inicio de sesión fallidos",
		Attempts:  len(valid),
	}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxAlertHistory {
		m.alerts = m.alerts[:maxAlertHistory]
	}

	log.Warn().
		Str("component", "security").
		Str("ip", ip).
		Str("email", email).
		Int("attempts", len(valid)).
		Msg("repeated failed logins")
	return &alert
}

// ResetFailedLogins clears the counter after a successful login from ip
func (m *SecurityMonitor) ResetFailedLogins(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failedLogins, ip)
}

// RecentAlerts returns a copy of the alert history, newest first
func (m *SecurityMonitor) RecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SecurityAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Run drops stale counters every interval until ctx is cancelled
func (m *SecurityMonitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.prune()
		}
	}
}

func (m *SecurityMonitor) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for ip, attempts := range m.failedLogins {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) > failedLoginWindow {
			delete(m.failedLogins, ip)
		}
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) > alertCooldown {
			delete(m.alertedIPs, ip)
		}
	}
}
