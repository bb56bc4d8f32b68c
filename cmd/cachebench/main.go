package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/feed"
	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/internal/seed"
	"github.com/d60-Lab/feedmix/internal/store"
	"github.com/d60-Lab/feedmix/pkg/database"
	"github.com/d60-Lab/feedmix/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
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

type request struct {
	viewer int64
	ids    []int64
}

// makeRequests 热点分布（zipf）的内容 ID 列表，模拟首页反复拉取热门内容
func makeRequests(r *rand.Rand, n, perReq int, users, posts []int64) []request {
	zipf := rand.NewZipf(r, 1.2, 1, uint64(len(posts)-1))
	out := make([]request, n)
	for i := range out {
		ids := make([]int64, perReq)
		for j := range ids {
			ids[j] = posts[zipf.Uint64()]
		}
		out[i] = request{viewer: users[r.Intn(len(users))], ids: ids}
	}
	return out
}

func run(ctx context.Context, res *feed.Resolver, reqs []request, warm bool) []time.Duration {
	if warm {
		for _, rq := range reqs {
			_ = must(res.Resolve(ctx, rq.viewer, rq.ids))
		}
	}
	out := make([]time.Duration, 0, len(reqs))
	for _, rq := range reqs {
		st := time.Now()
		_ = must(res.Resolve(ctx, rq.viewer, rq.ids))
		out = append(out, time.Since(st))
	}
	return out
}

// 对比直接查库与 Redis 实体缓存下的 Resolve 延迟
func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	mustDo(logger.Init(cfg.Log))
	defer func() { _ = logger.Sync() }()

	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()
	mustDo(seed.Reset(db))

	userCount := envInt("USERS", 2000)
	postCount := envInt("POSTS", 10000)
	reqCount := envInt("REQS", 3000)
	perReq := envInt("PER_REQ", 20)

	fmt.Println("Setting up test data...")
	users := make([]model.User, userCount)
	for i := range users {
		users[i] = model.User{Username: fmt.Sprintf("user_%d", i), Email: fmt.Sprintf("user_%d@example.com", i)}
	}
	mustDo(db.CreateInBatches(&users, 1000).Error)
	r := rand.New(rand.NewSource(42))
	base := time.Now()
	posts := make([]model.Post, postCount)
	for i := range posts {
		posts[i] = model.Post{Description: fmt.Sprintf("post %d", i), AuthorID: users[r.Intn(userCount)].ID, CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}
	}
	mustDo(db.CreateInBatches(&posts, 1000).Error)
	follows := make([]model.Follow, 0, userCount*5)
	seen := make(map[[2]int64]bool)
	for _, u := range users {
		for k := 0; k < 5; k++ {
			to := users[r.Intn(userCount)].ID
			if to == u.ID || seen[[2]int64{u.ID, to}] {
				continue
			}
			seen[[2]int64{u.ID, to}] = true
			follows = append(follows, model.Follow{ID: uuid.NewString(), FollowerID: u.ID, FolloweeID: to})
		}
	}
	mustDo(db.CreateInBatches(&follows, 1000).Error)

	userIDs := make([]int64, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	postIDs := make([]int64, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	reqs := makeRequests(r, reqCount, perReq, userIDs, postIDs)

	addr := cfg.Redis.Addr
	if addr == "" {
		// 未配置 Redis 时使用进程内 miniredis
		mr := must(miniredis.Run())
		defer mr.Close()
		addr = mr.Addr()
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer func() { _ = client.Close() }()
	mustDo(client.Ping(ctx).Err())
	mustDo(client.FlushDB(ctx).Err())

	gs := store.NewGormStore(db)
	cached := store.NewCached(gs, client, cfg.Feed.CacheTTL)
	workers := cfg.Feed.ResolveWorkers

	noCache := run(ctx, feed.NewResolver(gs, feed.WithWorkers(workers)), reqs, false)
	cold := run(ctx, feed.NewResolver(cached, feed.WithWorkers(workers)), reqs, false)
	coldCounters := cached.Counters()
	cached.ResetCounters()
	warm := run(ctx, feed.NewResolver(cached, feed.WithWorkers(workers)), reqs, true)
	warmCounters := cached.Counters()
	keys := client.DBSize(ctx).Val()

	fmt.Printf("\nResolve latency (%d req x %d ids, %d users, %d posts, workers=%d, redis=%s)\n",
		reqCount, perReq, userCount, postCount, workers, addr)
	fmt.Printf("%-12s avg=%v p95=%v p99=%v\n", "No cache", avg(noCache), pct(noCache, 0.95), pct(noCache, 0.99))
	fmt.Printf("%-12s avg=%v p95=%v p99=%v hits=%d misses=%d\n", "Cold cache", avg(cold), pct(cold, 0.95), pct(cold, 0.99), coldCounters.Hits, coldCounters.Misses)
	fmt.Printf("%-12s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d\n", "Warm cache", avg(warm), pct(warm, 0.95), pct(warm, 0.99), warmCounters.Hits, warmCounters.Misses, keys)
}
