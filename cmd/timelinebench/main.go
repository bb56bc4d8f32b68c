package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/feed"
	"github.com/d60-Lab/feedmix/internal/model"
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

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

// 写扩散全链路：发布 -> outbox -> fanout -> inbox -> Timeline（解析 + 按作者交错）
func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	shutdown := must(telemetry.InitTracer(ctx, cfg.Tracing))
	defer func() { _ = shutdown(ctx) }()

	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()
	if err := seed.Reset(db); err != nil {
		panic(err)
	}

	N := envInt("N", 20000)       // 每个作者的粉丝数
	AUTHORS := envInt("AUTHORS", 4)
	POSTS := envInt("POSTS", 100) // 每个作者发布数
	cfg.Fanout.Workers = envInt("WORKERS", cfg.Fanout.Workers)
	cfg.Fanout.BatchSize = envInt("BATCH", cfg.Fanout.BatchSize)
	cfg.Fanout.ClaimLimit = envInt("CLAIM", cfg.Fanout.ClaimLimit)

	// AUTHORS 个作者，N 个粉丝关注全部作者
	authors := make([]model.User, AUTHORS)
	for i := range authors {
		authors[i] = model.User{Username: fmt.Sprintf("author%d", i), Email: fmt.Sprintf("author%d@example.com", i)}
	}
	if err := db.Create(&authors).Error; err != nil {
		panic(err)
	}
	fans := make([]model.User, N)
	for i := range fans {
		fans[i] = model.User{Username: fmt.Sprintf("fan%d", i), Email: fmt.Sprintf("fan%d@example.com", i)}
	}
	if err := db.CreateInBatches(&fans, 1000).Error; err != nil {
		panic(err)
	}
	follows := make([]model.Follow, 0, N*AUTHORS)
	fanRows := make([]model.Fan, 0, N*AUTHORS)
	for _, a := range authors {
		for _, f := range fans {
			follows = append(follows, model.Follow{ID: uuid.NewString(), FollowerID: f.ID, FolloweeID: a.ID})
			fanRows = append(fanRows, model.Fan{ID: uuid.NewString(), UserID: a.ID, FanID: f.ID})
		}
	}
	if err := db.CreateInBatches(&follows, 1000).Error; err != nil {
		panic(err)
	}
	if err := db.CreateInBatches(&fanRows, 1000).Error; err != nil {
		panic(err)
	}

	fanRepo := repository.NewFanRepository(db)
	worker := service.NewFanoutWorker(db, fanRepo, cfg.Fanout)
	stop := worker.Start(ctx)

	publisher := service.NewPublisher(db)
	total := AUTHORS * POSTS
	pubDurations := make([]time.Duration, 0, total)
	for i := 0; i < POSTS; i++ {
		for _, a := range authors {
			st := time.Now()
			if _, err := publisher.Publish(ctx, a.ID, fmt.Sprintf("hello %d from %s", i, a.Username), nil); err != nil {
				panic(err)
			}
			pubDurations = append(pubDurations, time.Since(st))
		}
	}

	land := make([]time.Duration, 0, total)
	timeout := time.After(2 * time.Minute)
collect:
	for len(land) < total {
		select {
		case d := <-worker.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for fanout metrics: got=%d want=%d\n", len(land), total)
			break collect
		}
	}
	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_ = stop(stopCtx)
	cancel()

	svc := feed.NewService(
		feed.NewResolver(store.NewGormStore(db), feed.WithWorkers(cfg.Feed.ResolveWorkers)),
		repository.NewInboxRepository(db),
		cfg.Feed.TimelineLimit,
	)
	reads := make([]time.Duration, 0, 100)
	var sample []*feed.EnrichedItem
	for i := 0; i < 100 && i < len(fans); i++ {
		st := time.Now()
		items, err := svc.Timeline(ctx, fans[i].ID)
		if err != nil {
			panic(err)
		}
		reads = append(reads, time.Since(st))
		if i == 0 {
			sample = items
		}
	}

	fmt.Printf("N=%d AUTHORS=%d POSTS=%d WORKERS=%d BATCH=%d CLAIM=%d\n",
		N, AUTHORS, POSTS, cfg.Fanout.Workers, cfg.Fanout.BatchSize, cfg.Fanout.ClaimLimit)
	fmt.Printf("Publish tx latency: avg=%v p95=%v p99=%v\n", avg(pubDurations), pct(pubDurations, 0.95), pct(pubDurations, 0.99))
	fmt.Printf("Fanout landing (outbox->done): samples=%d avg=%v p95=%v p99=%v\n", len(land), avg(land), pct(land, 0.95), pct(land, 0.99))
	fmt.Printf("Timeline read (limit=%d): avg=%v p95=%v p99=%v\n", cfg.Feed.TimelineLimit, avg(reads), pct(reads, 0.95), pct(reads, 0.99))
	if len(sample) > 0 {
		owners := make([]string, 0, 8)
		for i := 0; i < len(sample) && i < 8; i++ {
			owners = append(owners, sample[i].Owner.Username)
		}
		fmt.Printf("fan0 timeline head owners: %v\n", owners)
	}
}
