package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/internal/repository"
	"github.com/d60-Lab/feedmix/internal/seed"
	"github.com/d60-Lab/feedmix/internal/service"
	"github.com/d60-Lab/feedmix/pkg/database"
	"github.com/d60-Lab/feedmix/pkg/logger"
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

// 关注写路径基准：异步冗余粉丝表 vs 同步双写，外加点赞写入
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()
	if err := seed.Reset(db); err != nil {
		panic(err)
	}

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)
	PAGE := envInt("PAGE", 50)

	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	replicator := service.NewFanReplicator(fanRepo, 100000)
	stop := replicator.Start(8)
	asyncSvc := service.NewRelationshipService(followRepo, fanRepo, likeRepo, replicator)
	syncSvc := service.NewRelationshipService(followRepo, fanRepo, likeRepo, nil)
	ctx := context.Background()

	// u0 是大 V，其余用户关注 u0
	celeb := model.User{Username: "celeb", Email: "celeb@example.com", FullName: "Celebrity"}
	if err := db.Create(&celeb).Error; err != nil {
		panic(err)
	}
	users := make([]model.User, N)
	for i := range users {
		users[i] = model.User{Username: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}
	post := model.Post{Description: "celebrity post", AuthorID: celeb.ID}
	if err := db.Create(&post).Error; err != nil {
		panic(err)
	}

	var repRecs []time.Duration
	doneRep := make(chan struct{})
	repDone := make(chan struct{})
	go func() {
		defer close(repDone)
		for {
			select {
			case d := <-replicator.Metrics():
				repRecs = append(repRecs, d)
			case <-doneRep:
				return
			}
		}
	}()

	// run 以 CONC 并发执行 N 次 op 并收集单次耗时
	run := func(op func(i int) error) (time.Duration, []time.Duration) {
		var mu sync.Mutex
		recs := make([]time.Duration, 0, N)
		p := pool.New().WithMaxGoroutines(CONC)
		t0 := time.Now()
		for i := 0; i < N; i++ {
			p.Go(func() {
				st := time.Now()
				if err := op(i); err != nil {
					logger.Warn("relbench op failed", zap.Int("i", i), zap.Error(err))
				}
				d := time.Since(st)
				mu.Lock()
				recs = append(recs, d)
				mu.Unlock()
			})
		}
		p.Wait()
		return time.Since(t0), recs
	}

	asyncDur, asyncRecs := run(func(i int) error { return asyncSvc.Follow(ctx, users[i].ID, celeb.ID) })
	maxQ := replicator.QueueLen()

	drainStart := time.Now()
	if err := stop(ctx); err != nil {
		logger.Warn("replicator stop", zap.Error(err))
	}
	drainDur := time.Since(drainStart)
	close(doneRep)
	<-repDone

	// 反向关注走同步双写
	syncDur, syncRecs := run(func(i int) error { return syncSvc.Follow(ctx, celeb.ID, users[i].ID) })
	likeDur, _ := run(func(i int) error { return syncSvc.Like(ctx, users[i].ID, post.ID) })

	q0 := time.Now()
	fans, _ := syncSvc.ListFans(ctx, celeb.ID, 1, PAGE)
	fansDur := time.Since(q0)
	q1 := time.Now()
	foll, _ := syncSvc.ListFollowing(ctx, celeb.ID, 1, PAGE)
	follDur := time.Since(q1)

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Async follow total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		asyncDur, asyncDur/time.Duration(N), pct(asyncRecs, 0.50), pct(asyncRecs, 0.95), pct(asyncRecs, 0.99))
	fmt.Printf("Sync follow (2 writes) total: %v, per op: %v, p99: %v\n", syncDur, syncDur/time.Duration(N), pct(syncRecs, 0.99))
	fmt.Printf("Like total: %v, per op: %v\n", likeDur, likeDur/time.Duration(N))
	fmt.Printf("Query fans(%d): %v rows=%d\n", PAGE, fansDur, len(fans))
	fmt.Printf("Query following(%d): %v rows=%d\n", PAGE, follDur, len(foll))
	if len(repRecs) > 0 {
		fmt.Printf("Replication landing: samples=%d, p50=%v, p95=%v, p99=%v, queueAfterWrites=%d, drain=%v\n",
			len(repRecs), pct(repRecs, 0.50), pct(repRecs, 0.95), pct(repRecs, 0.99), maxQ, drainDur)
	}
}
