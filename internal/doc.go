// Package envmon implements an embedded environmental monitor for grow
// spaces.
//
// # Architecture
//
// The monitor is structured into several key packages:
//   - sensor: Temperature/humidity drivers (simulated and sysfs-style file)
//   - vpd: Vapor pressure deficit calculation
//   - history: Bounded in-memory reading window with session and all-time stats
//   - alerts: Threshold evaluation, alert configuration, and the alert log
//   - mail: SMTP session, email settings, and the cooldown-gated notifier
//   - web: Page rendering, form parsing, and the rendered-page cache
//   - monitor: The request cycle and the accept-serve-close listener loop
//   - scheduler: Optional cron-driven background sampling
//
// Key Features
//
//   - VPD Monitoring:
//     Each reading carries a computed vapor pressure deficit, mapped to
//     plant-health bands on the dashboard.
//
//   - Bounded Memory:
//     Reading history and the alert log are fixed-size FIFO windows, so the
//     process footprint is stable over long uptimes.
//
//   - Email Alerts:
//     Threshold violations are always logged; notification is gated by an
//     enable flag and a per-send cooldown.
//
// The HTTP surface is deliberately minimal: one connection at a time, every
// request answered with a 200 HTML page, connection closed after each
// response.
package envmon
