package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agnosto/dm-archiver/logger"
	"github.com/robfig/cron/v3"
)

// Runner performs one pass.
type Runner interface {
	RunPass(ctx context.Context) (PassReport, error)
}

// Scheduler runs a pass once a day at a fixed time of day.
type Scheduler struct {
	runner     Runner
	cron       *cron.Cron
	expr       string
	runOnStart bool
	startup    sync.WaitGroup
}

func NewScheduler(runner Runner, hour, minute int, loc *time.Location, runOnStart bool) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cronLogger := logger.CronLogger{}
	return &Scheduler{
		runner: runner,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		expr:       fmt.Sprintf("%d %d * * *", minute, hour),
		runOnStart: runOnStart,
	}
}

// Expression returns the cron expression of the daily run.
func (s *Scheduler) Expression() string {
	return s.expr
}

// Run blocks until ctx is cancelled. A pass in progress at that point is
// allowed to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	// passes are not cancelled with the scheduler
	passCtx := context.WithoutCancel(ctx)

	id, err := s.cron.AddFunc(s.expr, func() {
		s.runPass(passCtx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.expr, err)
	}

	s.cron.Start()
	entry := s.cron.Entry(id)
	logger.Logger.Info().Str("cron", s.expr).Time("next_run", entry.Next).Msg("scheduler started")

	if s.runOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			entry.WrappedJob.Run()
		}()
	}

	<-ctx.Done()
	logger.Logger.Info().Msg("scheduler stopping, waiting for running pass")
	<-s.cron.Stop().Done()
	s.startup.Wait()
	return nil
}

func (s *Scheduler) runPass(ctx context.Context) {
	if _, err := s.runner.RunPass(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("scheduled pass failed, retrying at next run")
	}
}
