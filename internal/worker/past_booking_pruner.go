package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/logger"
)

// BookingPruner は保持期間を過ぎた予約を削除するインターフェース
type BookingPruner interface {
	PrunePastBookings(ctx context.Context, retention time.Duration) (int, error)
}

// PastBookingPruner は終了済み予約を定期的に削除するワーカー
type PastBookingPruner struct {
	roomService BookingPruner
	interval    time.Duration
	retention   time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewPastBookingPruner は新しいプルーナーを作成
func NewPastBookingPruner(
	rs BookingPruner,
	interval time.Duration,
	retention time.Duration,
) *PastBookingPruner {
	return &PastBookingPruner{
		roomService: rs,
		interval:    interval,
		retention:   retention,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はプルーナーを開始
func (p *PastBookingPruner) Start(ctx context.Context) {
	logger.Info("過去予約プルーナー開始",
		zap.Duration("interval", p.interval),
		zap.Duration("retention", p.retention),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer close(p.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("過去予約プルーナー停止（コンテキストキャンセル）")
			return
		case <-p.stopCh:
			logger.Info("過去予約プルーナー停止（シグナル受信）")
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

// Stop はプルーナーを停止
func (p *PastBookingPruner) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

// prune は保持期間を過ぎた予約を削除
func (p *PastBookingPruner) prune(ctx context.Context) {
	log := logger.Get()
	log.Debug("過去予約の削除開始")

	count, err := p.roomService.PrunePastBookings(ctx, p.retention)
	if err != nil {
		log.Error("過去予約の削除失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("過去予約を削除", zap.Int("count", count))
	} else {
		log.Debug("削除対象の予約なし")
	}
}
