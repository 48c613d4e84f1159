package sessions

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sixchat/sixchat-backend/internal/logger"
)

// Sweeper periodically closes idle clients of a Hub.
type Sweeper struct {
	hub  *Hub
	idle time.Duration
	cron *cron.Cron
}

// NewSweeper schedules the sweep with a six-field cron spec (seconds first).
func NewSweeper(hub *Hub, idle time.Duration, schedule string) (*Sweeper, error) {
	s := &Sweeper{
		hub:  hub,
		idle: idle,
		cron: cron.New(cron.WithSeconds()),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	logger.Get().Info().Dur("idle_timeout", s.idle).Msg("session sweeper started")
}

// Stop stops scheduling and returns a context done when a running sweep ends.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Sweeper) run() {
	if n := s.hub.SweepIdle(s.idle); n > 0 {
		logger.Get().Info().Int("closed", n).Int("live", s.hub.Len()).Msg("idle sessions swept")
	}
}
