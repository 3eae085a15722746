package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/animelist/internal/logger"
)

// Reaper stops chat workers that have been idle too long.
type Reaper interface {
	Reap() int
	Workers() int
}

// WorkerReaper is the cron job wrapping a Reaper.
func WorkerReaper(r Reaper, spec string, log logger.Logger) Job {
	return Job{
		Name: "worker_reaper",
		Spec: spec,
		Run: func(context.Context) {
			if n := r.Reap(); n > 0 {
				log.Info("stopped idle chat workers",
					logger.Int("stopped", n),
					logger.Int("running", r.Workers()))
			}
		},
	}
}
