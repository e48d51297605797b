// Package scheduler runs background sensor sampling on a cron schedule, for
// deployments where readings should accumulate even when nobody loads the
// page.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/edgegrow/envmon/internal/models"
)

// Sampler is the sampling side of the monitor.
type Sampler interface {
	Sample(ctx context.Context) (models.Reading, []models.AlertRecord)
}

type Scheduler struct {
	sampler Sampler
	spec    string
	logger  *logrus.Logger
	cron    *cron.Cron
}

func NewScheduler(sampler Sampler, spec string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		sampler: sampler,
		spec:    spec,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start begins sampling on the configured schedule.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.collect)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.spec).Info("background sampling started")
	return nil
}

func (s *Scheduler) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, batch := s.sampler.Sample(ctx)
	s.logger.WithFields(logrus.Fields{
		"temp":     r.Temperature,
		"humidity": r.Humidity,
		"vpd":      r.VPD,
		"alerts":   len(batch),
	}).Debug("scheduled sample collected")
}

// Stop halts the schedule; a run already in flight finishes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
