package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job はスケジューラから定期実行される処理。
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler はcron式に従ってJobを実行する。
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	logger *slog.Logger
}

// NewScheduler はcron式specでjobを実行するSchedulerを生成する。
// specは標準の5フィールド形式と@hourly等の記述子を受け付ける。
func NewScheduler(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		// 前回の実行が終わっていない場合は次の実行をスキップする
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		job:    job,
		logger: logger,
	}
	return s, s.schedule(spec)
}

func (s *Scheduler) schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		// 個々の実行はStopで打ち切らず、完了まで待つ
		if err := s.job.Run(context.Background()); err != nil {
			s.logger.Error("スケジュール実行に失敗しました", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// Start は起動直後に1回ジョブを実行し、その後cronスケジュールに従って実行を続ける。
// ctxがキャンセルされると新規実行を止め、実行中のジョブの完了を待ってから戻る。
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("クリーンアップスケジューラを開始しました")

	if err := s.job.Run(ctx); err != nil {
		s.logger.Error("初回のクリーンアップに失敗しました", slog.String("error", err.Error()))
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()

	s.logger.Info("クリーンアップスケジューラを停止しました")
}
