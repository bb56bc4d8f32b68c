package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/feed"
	"github.com/d60-Lab/feedmix/internal/repository"
	"github.com/d60-Lab/feedmix/internal/seed"
	"github.com/d60-Lab/feedmix/internal/service"
	"github.com/d60-Lab/feedmix/internal/store"
	"github.com/d60-Lab/feedmix/pkg/database"
	"github.com/d60-Lab/feedmix/pkg/logger"
	"github.com/d60-Lab/feedmix/pkg/telemetry"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// parseIDs "1,2,3" -> []int64，非法项记录告警后跳过
func parseIDs(key, s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			logger.Warn("skip malformed id", zap.String("env", key), zap.String("value", part), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out
}

func envIDs(key, def string) []int64 {
	if s := os.Getenv(key); s != "" {
		return parseIDs(key, s)
	}
	return parseIDs(key, def)
}

type report struct {
	Viewer   int64                `json:"viewer"`
	Posts    []*feed.EnrichedItem `json:"posts"`
	Mixed    []*feed.EnrichedItem `json:"mixed"`
	Merged   []*feed.EnrichedItem `json:"merged"`
	Timeline []*feed.EnrichedItem `json:"timeline"`
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	shutdown := must(telemetry.InitTracer(ctx, cfg.Tracing))
	defer func() { _ = shutdown(ctx) }()
	flush := must(telemetry.InitSentry(cfg.Sentry))
	defer flush()

	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()
	if err := seed.Reset(db); err != nil {
		logger.L().Fatal("reset schema", zap.Error(err))
	}
	if err := seed.Load(ctx, db); err != nil {
		logger.L().Fatal("load reference data", zap.Error(err))
	}

	var s store.Store = store.NewGormStore(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, lookups go straight to the database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		s = store.NewCached(s, rdb, cfg.Feed.CacheTTL)
	}

	svc := feed.NewService(
		feed.NewResolver(s, feed.WithWorkers(cfg.Feed.ResolveWorkers)),
		repository.NewInboxRepository(db),
		cfg.Feed.TimelineLimit,
	)

	// 发布一条新内容并同步扇出，填充 timeline
	viewer := int64(1)
	if v := os.Getenv("VIEWER"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			viewer = n
		}
	}
	if _, err := service.NewPublisher(db).Publish(ctx, 3, "Fresh from the fanout worker", nil); err != nil {
		logger.L().Fatal("publish", zap.Error(err))
	}
	worker := service.NewFanoutWorker(db, repository.NewFanRepository(db), cfg.Fanout)
	for {
		n, err := worker.ProcessOnce(ctx)
		if err != nil {
			logger.L().Fatal("fanout", zap.Error(err))
		}
		if n == 0 {
			break
		}
	}

	r := report{Viewer: viewer}
	var err error
	if r.Posts, err = svc.Posts(ctx, viewer, envIDs("POSTS", "1,2,3,4,5,6,7")); err != nil {
		logger.L().Fatal("posts", zap.Error(err))
	}
	if r.Mixed, err = svc.Mixed(ctx, viewer, envIDs("MIXED", "1,2,3,5,7,4")); err != nil {
		logger.L().Fatal("mixed", zap.Error(err))
	}
	batches := [][]int64{envIDs("BATCH_A", "1,2,3"), envIDs("BATCH_B", "4,5"), envIDs("BATCH_C", "6,7")}
	if r.Merged, err = svc.Merged(ctx, viewer, batches); err != nil {
		logger.L().Fatal("merged", zap.Error(err))
	}
	if r.Timeline, err = svc.Timeline(ctx, viewer); err != nil {
		logger.L().Fatal("timeline", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		logger.L().Fatal("encode", zap.Error(err))
	}
}
