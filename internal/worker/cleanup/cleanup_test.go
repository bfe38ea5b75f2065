package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hitoshi/planner/internal/metrics"
)

type mockPurger struct {
	calls   atomic.Int32
	deleted int64
	err     error
}

func (m *mockPurger) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.deleted, m.err
}

type mockRecorder struct {
	counts []int64
}

func (m *mockRecorder) RecordSessionsPurged(count int64) {
	m.counts = append(m.counts, count)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestSessionCleanupJob_Run_DeletesAndRecords(t *testing.T) {
	var buf bytes.Buffer
	purger := &mockPurger{deleted: 7}
	recorder := &mockRecorder{}
	job := NewSessionCleanupJob(purger, recorder, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if purger.calls.Load() != 1 {
		t.Errorf("DeleteExpired 呼び出し回数 = %d, want 1", purger.calls.Load())
	}
	if len(recorder.counts) != 1 || recorder.counts[0] != 7 {
		t.Errorf("記録された件数 = %v, want [7]", recorder.counts)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログがJSONではない: %v\n%s", err, buf.String())
	}
	if entry["deleted_count"] != float64(7) {
		t.Errorf("deleted_count = %v, want 7", entry["deleted_count"])
	}
}

func TestSessionCleanupJob_Run_NothingToDeleteIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	job := NewSessionCleanupJob(&mockPurger{}, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
}

func TestSessionCleanupJob_Run_PurgeErrorIsReturnedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	recorder := &mockRecorder{}
	purgeErr := errors.New("connection reset")
	job := NewSessionCleanupJob(&mockPurger{err: purgeErr}, recorder, newTestLogger(&buf))

	err := job.Run(context.Background())
	if !errors.Is(err, purgeErr) {
		t.Fatalf("Run() error = %v, want wrapping %v", err, purgeErr)
	}
	if len(recorder.counts) != 0 {
		t.Error("失敗時にメトリクスを記録してはならない")
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("エラーログが出力されていない: %s", buf.String())
	}
}

func TestSessionCleanupJob_Run_RecordsToPrometheus(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	job := NewSessionCleanupJob(&mockPurger{deleted: 3}, collector, newTestLogger(&buf))

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	expected := `
# HELP planner_sessions_purged_total クリーンアップジョブで削除された期限切れセッションの合計数
# TYPE planner_sessions_purged_total counter
planner_sessions_purged_total 6
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "planner_sessions_purged_total"); err != nil {
		t.Error(err)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	var buf bytes.Buffer
	job := NewSessionCleanupJob(&mockPurger{}, nil, newTestLogger(&buf))

	if _, err := NewScheduler("every now and then", job, newTestLogger(&buf)); err == nil {
		t.Fatal("不正なcron式でエラーにならなかった")
	}
}

func TestNewScheduler_AcceptsDescriptors(t *testing.T) {
	var buf bytes.Buffer
	job := NewSessionCleanupJob(&mockPurger{}, nil, newTestLogger(&buf))

	for _, spec := range []string{"@hourly", "@every 30m", "*/15 * * * *"} {
		if _, err := NewScheduler(spec, job, newTestLogger(&buf)); err != nil {
			t.Errorf("NewScheduler(%q) error: %v", spec, err)
		}
	}
}

func TestScheduler_Start_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	purger := &mockPurger{}
	job := NewSessionCleanupJob(purger, nil, newTestLogger(&buf))
	s, err := NewScheduler("@hourly", job, newTestLogger(&buf))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for purger.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if purger.calls.Load() != 1 {
		t.Fatalf("起動直後の実行回数 = %d, want 1", purger.calls.Load())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("キャンセル後にStartが戻らなかった")
	}
}
