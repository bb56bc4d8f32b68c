package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/internal/repository"
	"github.com/d60-Lab/feedmix/pkg/logger"
)

// FanoutWorker 从 outbox 拉取事件并写入粉丝 inbox（写扩散）
type FanoutWorker struct {
	db           *gorm.DB
	fanRepo      repository.FanRepository
	batchSize    int
	claimLimit   int
	pollInterval time.Duration
	workers      int
	limiter      *rate.Limiter      // inbox 批量写入限速
	metricsCh    chan time.Duration // outbox->processed latency
}

func NewFanoutWorker(db *gorm.DB, fanRepo repository.FanRepository, cfg config.FanoutConfig) *FanoutWorker {
	w := &FanoutWorker{
		db:           db,
		fanRepo:      fanRepo,
		workers:      cfg.Workers,
		batchSize:    cfg.BatchSize,
		claimLimit:   cfg.ClaimLimit,
		pollInterval: cfg.PollInterval,
		limiter:      rate.NewLimiter(rate.Inf, 1),
		metricsCh:    make(chan time.Duration, 65536),
	}
	if w.workers <= 0 {
		w.workers = 4
	}
	if w.batchSize <= 0 {
		w.batchSize = 500
	}
	if w.claimLimit <= 0 {
		w.claimLimit = 128
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 50 * time.Millisecond
	}
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return w
}

func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理 outbox；返回的停止函数等待所有 worker 退出。
func (w *FanoutWorker) Start(ctx context.Context) func(context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(w.workers)
	for i := 0; i < w.workers; i++ {
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	return func(stopCtx context.Context) error {
		cancel()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
}

func (w *FanoutWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("fanout round failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce claim 一批 pending outbox 并扇出，返回处理的事件数
func (w *FanoutWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil || len(batch) == 0 {
		return 0, err
	}
	for i, b := range batch {
		written, err := w.fanout(ctx, b)
		if err != nil {
			logger.Warn("fanout event failed", zap.Int64("post", b.PostID), zap.Int64("author", b.AuthorID), zap.Error(err))
			w.release(ctx, batch[i:])
			return i, err
		}
		now := time.Now()
		if err := w.db.WithContext(ctx).Model(&model.Outbox{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{"status": model.OutboxDone, "processed_at": now, "fanout_count": written}).Error; err != nil {
			w.release(ctx, batch[i:])
			return i, err
		}
		if !b.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- now.Sub(b.CreatedAt):
			default:
			}
		}
	}
	return len(batch), nil
}

// release 将本轮未完成的事件退回 pending，下一轮重试
func (w *FanoutWorker) release(ctx context.Context, rest []model.Outbox) {
	ids := make([]string, len(rest))
	for i, b := range rest {
		ids[i] = b.ID
	}
	if err := w.db.WithContext(context.WithoutCancel(ctx)).Model(&model.Outbox{}).
		Where("id IN ?", ids).Update("status", model.OutboxPending).Error; err != nil {
		logger.Error("fanout release failed", zap.Strings("outbox", ids), zap.Error(err))
	}
}

// claim 事务内选取并标记 processing；postgres 下使用 FOR UPDATE SKIP LOCKED，sqlite 单连接天然串行
func (w *FanoutWorker) claim(ctx context.Context) ([]model.Outbox, error) {
	var batch []model.Outbox
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", model.OutboxPending).Order("created_at").Limit(w.claimLimit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.Outbox{}).Where("id IN ?", ids).Update("status", model.OutboxProcessing).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// fanout 分页读取作者粉丝，批量写入 inbox（重复 (user, post) 忽略）
func (w *FanoutWorker) fanout(ctx context.Context, b model.Outbox) (int64, error) {
	var total int64
	score := b.CreatedAt.UnixNano()
	for offset := 0; ; offset += w.batchSize {
		fans, err := w.fanRepo.ListFans(ctx, b.AuthorID, offset, w.batchSize)
		if err != nil {
			return total, err
		}
		if len(fans) == 0 {
			return total, nil
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return total, err
		}
		now := time.Now()
		records := make([]model.Inbox, 0, len(fans))
		for _, f := range fans {
			records = append(records, model.Inbox{ID: uuid.New().String(), UserID: f.FanID, PostID: b.PostID, Score: score, CreatedAt: now})
		}
		res := w.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
		if len(fans) < w.batchSize {
			return total, nil
		}
	}
}
