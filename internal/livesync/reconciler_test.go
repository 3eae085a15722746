package livesync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	mu       sync.Mutex
	outcomes map[int]chat.Outcome
	edited   map[int]string
	delay    time.Duration

	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeEditor) Edit(ctx context.Context, _ int64, msgID int, text string, _ chat.Keyboard) (chat.Outcome, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.edited == nil {
		f.edited = map[int]string{}
	}
	f.edited[msgID] = text

	o := f.outcomes[msgID]
	if o == chat.OutcomeFailed {
		return o, errors.New("Bad Request: chat not found")
	}
	return o, nil
}

func TestReconcilePrunesGone(t *testing.T) {
	ids := []int{10, 11, 12, 13, 14, 15}
	ed := &fakeEditor{outcomes: map[int]chat.Outcome{
		11: chat.OutcomeGone,
		12: chat.OutcomeUnchanged,
		14: chat.OutcomeGone,
	}}

	report, err := New(ed, 3, logger.Nop(), nil).Reconcile(context.Background(), 1, ids, "list")
	require.NoError(t, err)

	assert.Equal(t, []int{10, 12, 13, 15}, report.Retained)
	assert.ElementsMatch(t, []int{11, 14}, report.Gone)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 3, report.Updated)
	assert.Len(t, report.Retained, len(ids)-2)
	for _, id := range report.Gone {
		assert.NotContains(t, report.Retained, id)
	}
	assert.Len(t, ed.edited, len(ids), "every live message is attempted")
}

func TestReconcileUnchangedIsSuccess(t *testing.T) {
	ed := &fakeEditor{outcomes: map[int]chat.Outcome{1: chat.OutcomeUnchanged, 2: chat.OutcomeUnchanged}}

	report, err := New(ed, 0, logger.Nop(), nil).Reconcile(context.Background(), 1, []int{1, 2}, "x")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, report.Retained)
	assert.Empty(t, report.Gone)
}

func TestReconcileFailureAborts(t *testing.T) {
	ed := &fakeEditor{outcomes: map[int]chat.Outcome{2: chat.OutcomeFailed, 3: chat.OutcomeGone}}

	report, err := New(ed, 1, logger.Nop(), nil).Reconcile(context.Background(), 1, []int{1, 2, 3}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "live message 2")
	assert.Nil(t, report.Retained)
}

func TestReconcileBoundedFanout(t *testing.T) {
	ids := make([]int, 20)
	for i := range ids {
		ids[i] = i + 1
	}
	ed := &fakeEditor{delay: 5 * time.Millisecond}

	_, err := New(ed, 3, logger.Nop(), nil).Reconcile(context.Background(), 1, ids, "x")
	require.NoError(t, err)
	assert.LessOrEqual(t, ed.peak.Load(), int32(3))
}

func TestReconcileEmpty(t *testing.T) {
	report, err := New(&fakeEditor{}, 2, logger.Nop(), nil).Reconcile(context.Background(), 1, nil, "x")
	require.NoError(t, err)
	assert.Empty(t, report.Retained)
}
