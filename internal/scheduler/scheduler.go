// Package scheduler runs the bot's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one named periodic task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are
// skipped and panics are recovered.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log logger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job. Jobs with an empty spec are skipped.
func (s *Scheduler) Add(j Job) error {
	if j.Spec == "" {
		s.logger.Debug("job disabled", logger.String("job", j.Name))
		return nil
	}
	if _, err := s.cron.AddFunc(j.Spec, func() { j.Run(s.ctx) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", j.Name, j.Spec, err)
	}
	s.logger.Info("job scheduled", logger.String("job", j.Name), logger.String("spec", j.Spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.cancel()
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, fields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, append(fields(kv), logger.Error(err))...)
}

func fields(kv []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
