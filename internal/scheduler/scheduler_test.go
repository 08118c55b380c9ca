package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"IndexVault/internal/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	rec     *stubRecorder
}

func (r *stubRunner) Run(ctx context.Context) (*recorder.RunRecord, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}
	run := &recorder.RunRecord{ID: recorder.NewRunID(), StartedAt: time.Now(), WatermarkAfter: "2024-01-05"}
	if r.rec != nil {
		r.rec.last = run
	}
	return run, nil
}

type stubRecorder struct {
	last *recorder.RunRecord
	err  error
}

func (s *stubRecorder) RecordRun(run *recorder.RunRecord) error { s.last = run; return nil }
func (s *stubRecorder) LastRun() (*recorder.RunRecord, error)   { return s.last, s.err }
func (s *stubRecorder) Close() error                            { return nil }

func TestRegisterRejectsBadExpression(t *testing.T) {
	s := NewScheduler(context.Background(), &stubRunner{}, &stubRecorder{})
	assert.Error(t, s.Register("every day"))
	assert.NoError(t, s.Register("0 30 23 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestRunNowSkipsOverlap(t *testing.T) {
	r := &stubRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(context.Background(), r, &stubRecorder{})

	done := make(chan bool)
	go func() { done <- s.RunNow() }()
	<-r.started

	assert.False(t, s.RunNow())
	assert.Equal(t, "A sync is already running.", s.HandleCommand(context.Background(), "/sync"))

	close(r.release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestHandleCommand(t *testing.T) {
	rec := &stubRecorder{}
	r := &stubRunner{rec: rec}
	s := NewScheduler(context.Background(), r, rec)
	ctx := context.Background()

	assert.Equal(t, "No sync recorded yet.", s.HandleCommand(ctx, "/status"))
	assert.Empty(t, s.HandleCommand(ctx, "/sync"))
	assert.Equal(t, int32(1), r.calls.Load())

	status := s.HandleCommand(ctx, "/status")
	assert.Contains(t, status, "Watermark: 2024-01-05")

	rec.err = errors.New("database is locked")
	assert.Contains(t, s.HandleCommand(ctx, "/status"), "database is locked")

	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/sync")
}

func TestCronTriggersSync(t *testing.T) {
	r := &stubRunner{}
	s := NewScheduler(context.Background(), r, &stubRecorder{})
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
