package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/texts"
)

// TextsReloader re-reads the reply texts file into a holder, on a schedule
// or when something sends on the manual trigger.
type TextsReloader struct {
	loader        *texts.Loader
	holder        *texts.Holder
	logger        logger.Logger
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

func NewTextsReloader(textsFile string, holder *texts.Holder, log logger.Logger, manualTrigger chan struct{}) *TextsReloader {
	return &TextsReloader{
		loader:        texts.NewLoader(textsFile),
		holder:        holder,
		logger:        log,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads once and then serves manual triggers until Stop or ctx ends.
func (tr *TextsReloader) Start(ctx context.Context) error {
	if err := tr.Reload(ctx); err != nil {
		return fmt.Errorf("initial texts load failed: %w", err)
	}

	go func() {
		for {
			select {
			case <-tr.manualTrigger:
				tr.logger.Info("manual texts reload triggered")
				if err := tr.Reload(ctx); err != nil {
					tr.logger.Error("failed to reload texts", logger.Error(err))
				}
			case <-tr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (tr *TextsReloader) Stop() {
	close(tr.stopCh)
}

// Reload swaps in the file contents. On error the current texts stay.
func (tr *TextsReloader) Reload(context.Context) error {
	t, err := tr.loader.Load()
	if err != nil {
		return err
	}
	tr.holder.Set(t)
	tr.logger.Debug("texts loaded")
	return nil
}

// Job runs Reload on spec.
func (tr *TextsReloader) Job(spec string) Job {
	return Job{
		Name: "texts_reload",
		Spec: spec,
		Run: func(ctx context.Context) {
			if err := tr.Reload(ctx); err != nil {
				tr.logger.Error("failed to reload texts", logger.Error(err))
			}
		},
	}
}
