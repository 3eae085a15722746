// Package livesync pushes a fresh watchlist rendering to every live
// message of a chat.
package livesync

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultFanout bounds concurrent edits when none is configured.
const DefaultFanout = 4

// Editor is the part of chat.Transport the reconciler needs.
type Editor interface {
	Edit(ctx context.Context, chatID int64, msgID int, text string, kb chat.Keyboard) (chat.Outcome, error)
}

// Report summarizes one pass.
type Report struct {
	// Retained are the ids that were not reported gone, in input order.
	Retained  []int
	Gone      []int
	Updated   int
	Unchanged int
}

type Reconciler struct {
	editor  Editor
	fanout  int
	log     logger.Logger
	metrics *metrics.Metrics
}

func New(editor Editor, fanout int, log logger.Logger, m *metrics.Metrics) *Reconciler {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Reconciler{editor: editor, fanout: fanout, log: log, metrics: m}
}

// Reconcile edits every message in ids to text. Gone messages are left
// out of Report.Retained. Any failed edit aborts the pass and is returned.
func (r *Reconciler) Reconcile(ctx context.Context, chatID int64, ids []int, text string) (Report, error) {
	outcomes := make([]chat.Outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanout)
	for i, id := range ids {
		g.Go(func() error {
			outcome, err := r.editor.Edit(gctx, chatID, id, text, nil)
			if outcome == chat.OutcomeFailed && err == nil {
				err = fmt.Errorf("edit reported failure without error")
			}
			outcomes[i] = outcome
			r.metrics.LiveSync(outcome.String())
			if outcome == chat.OutcomeFailed {
				return fmt.Errorf("live message %d: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	gone := make(map[int]bool)
	report := Report{Retained: make([]int, 0, len(ids))}
	for i, id := range ids {
		switch outcomes[i] {
		case chat.OutcomeGone:
			gone[id] = true
			report.Gone = append(report.Gone, id)
		case chat.OutcomeUnchanged:
			report.Unchanged++
		default:
			report.Updated++
		}
	}
	for _, id := range ids {
		if !gone[id] {
			report.Retained = append(report.Retained, id)
		}
	}

	if len(report.Gone) > 0 {
		r.log.Info("pruned live messages",
			logger.ChatID(chatID),
			logger.Int("gone", len(report.Gone)),
			logger.Int("retained", len(report.Retained)))
	}
	return report, nil
}
