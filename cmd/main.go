package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/edgegrow/envmon/internal/alerts"
	"github.com/edgegrow/envmon/internal/config"
	"github.com/edgegrow/envmon/internal/device"
	"github.com/edgegrow/envmon/internal/history"
	"github.com/edgegrow/envmon/internal/mail"
	"github.com/edgegrow/envmon/internal/monitor"
	"github.com/edgegrow/envmon/internal/scheduler"
	"github.com/edgegrow/envmon/internal/sensor"
	"github.com/edgegrow/envmon/internal/web"
)

// Command envmon serves an environmental monitoring dashboard for grow
// spaces.
//
// The monitor supports:
//   - Temperature, humidity and VPD tracking with session/all-time stats
//   - Configurable alert thresholds with a bounded alert log
//   - Cooldown-gated email notification over SMTP
//   - Optional cron-driven background sampling
//   - Optional Prometheus metrics on a separate listener
//
// Usage:
//
//	envmon [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-port int
//	      monitor listener port, overrides the config file when non-zero
func main() {
	flags := parseFlags()

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if flags.Port != 0 {
		cfg.Server.Port = flags.Port
	}

	logger := newLogger(cfg.Logging)
	deviceID := device.ID()

	logger.WithFields(logrus.Fields{
		"device_id": deviceID,
		"addr":      cfg.Server.Addr(),
	}).Info("Starting monitor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := history.NewStore(cfg.History.Capacity)
	alarms := alerts.NewConfig(alerts.Thresholds{
		TempMin:     cfg.Alarms.TempMin,
		TempMax:     cfg.Alarms.TempMax,
		HumidityMin: cfg.Alarms.HumidityMin,
		HumidityMax: cfg.Alarms.HumidityMax,
		VPDMin:      cfg.Alarms.VPDMin,
		VPDMax:      cfg.Alarms.VPDMax,
	}, cfg.Alarms.Enabled)

	email := mail.NewSettings(cfg.Email.Enabled, cfg.Email.Username,
		cfg.Email.Password, cfg.Email.To, cfg.Email.Cooldown())
	session := mail.NewSession(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.ClientName, logger)

	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(registry)

	// The notifier needs device status from the monitor, which in turn needs
	// the notifier via the alert log. Bind the status lookup late.
	var mon *monitor.Monitor
	notifier := mail.NewNotifier(email, session, func() mail.DeviceStatus {
		if mon == nil {
			return mail.DeviceStatus{DeviceID: deviceID}
		}
		return mon.Status()
	}, logger)
	notifier.OnResult = func(outcome string) {
		metrics.EmailOutcomes.WithLabelValues(outcome).Inc()
	}

	alertLog := alerts.NewLog(cfg.History.AlertLogCapacity, alarms, notifier, logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatalf("Failed to build renderer: %v", err)
	}

	errChan := make(chan error, 1)
	opts := monitor.DefaultOptions()
	opts.Addr = cfg.Server.Addr()
	opts.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	opts.RateLimit = cfg.Server.RateLimit
	opts.RateLimitBurst = cfg.Server.RateLimitBurst
	opts.SampleOnRequest = !cfg.Sampling.Enabled

	mon, err = monitor.New(opts, monitor.Deps{
		Sensor:   buildSensor(cfg.Sensor, logger),
		History:  store,
		Alarms:   alarms,
		AlertLog: alertLog,
		Notifier: notifier,
		Email:    email,
		Renderer: renderer,
		Logger:   logger,
		Metrics:  metrics,
		DeviceID: deviceID,
		Restart:  func() { errChan <- errRestartRequested },
	})
	if err != nil {
		logger.Fatalf("Failed to build monitor: %v", err)
	}

	if cfg.Sampling.Enabled {
		sched := scheduler.NewScheduler(mon, cfg.Sampling.Schedule, logger)
		if err := sched.Start(); err != nil {
			logger.Fatalf("Failed to start background sampling: %v", err)
		}
		defer sched.Stop()
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr(), registry, logger, errChan)
	}

	go handleShutdown(ctx, cancel, logger)

	go func() {
		if err := mon.Run(ctx); err != nil {
			errChan <- fmt.Errorf("monitor error: %w", err)
		} else {
			errChan <- nil
		}
	}()

	err = <-errChan
	switch {
	case errors.Is(err, errRestartRequested):
		logger.Warn("Restarting on web request")
		cancel()
		os.Exit(restartExitCode)
	case err != nil:
		logger.Fatalf("Service error: %v", err)
	}
	logger.Info("Monitor stopped")
}

// restartExitCode tells the process supervisor to start us again.
const restartExitCode = 3

var errRestartRequested = errors.New("restart requested")

type cliFlags struct {
	ConfigPath string
	Port       int
}

func parseFlags() *cliFlags {
	flags := &cliFlags{}

	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to config file")
	flag.IntVar(&flags.Port, "port", 0, "monitor listener port (overrides config)")

	flag.Parse()

	return flags
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format != "text" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func buildSensor(cfg config.SensorConfig, logger *logrus.Logger) sensor.Sensor {
	switch cfg.Driver {
	case "file":
		return sensor.NewFile(cfg.TempPath, cfg.HumidityPath, cfg.Scale)
	default:
		logger.WithField("driver", cfg.Driver).Info("Using simulated sensor")
		return sensor.NewSim(22.0, 55.0, time.Now().UnixNano())
	}
}

// serveMetrics exposes Prometheus metrics on a separate listener so the
// monitor endpoint keeps its single-page contract.
func serveMetrics(addr string, registry *prometheus.Registry, logger *logrus.Logger, errChan chan<- error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.WithField("addr", addr).Info("Metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		errChan <- fmt.Errorf("metrics server error: %w", err)
	}
}

func handleShutdown(ctx context.Context, cancel context.CancelFunc, logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Received signal, shutting down")
		cancel()
	}
}
