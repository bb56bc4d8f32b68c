package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/internal/repository"
	"github.com/d60-Lab/feedmix/internal/seed"
	"github.com/d60-Lab/feedmix/pkg/database"
)

func setupSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite", DSN: ":memory:", LogLevel: "silent", AutoMigrate: true,
	}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, seed.Load(context.Background(), db))
	return db
}

func newRelationshipService(db *gorm.DB, r *FanReplicator) RelationshipService {
	return NewRelationshipService(repository.NewFollowRepository(db), repository.NewFanRepository(db), repository.NewLikeRepository(db), r)
}

func TestRelationshipService_FollowSync(t *testing.T) {
	db := setupSeededDB(t)
	svc := newRelationshipService(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Follow(ctx, 4, 4), ErrFollowSelf)

	require.NoError(t, svc.Follow(ctx, 4, 3))
	// 重复关注幂等
	require.NoError(t, svc.Follow(ctx, 4, 3))

	following, err := svc.ListFollowing(ctx, 4, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, following)

	fans, err := svc.ListFans(ctx, 3, 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 4}, fans)

	require.NoError(t, svc.Unfollow(ctx, 4, 3))
	fans, err = svc.ListFans(ctx, 3, 0, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, fans)
}

func TestRelationshipService_Paging(t *testing.T) {
	db := setupSeededDB(t)
	svc := newRelationshipService(db, nil)
	ctx := context.Background()

	page1, err := svc.ListFollowing(ctx, 1, 1, 1)
	require.NoError(t, err)
	page2, err := svc.ListFollowing(ctx, 1, 2, 1)
	require.NoError(t, err)
	page3, err := svc.ListFollowing(ctx, 1, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, page1)
	assert.Equal(t, []int64{3}, page2)
	assert.Empty(t, page3)
}

func TestRelationshipService_Likes(t *testing.T) {
	db := setupSeededDB(t)
	svc := newRelationshipService(db, nil)
	likes := repository.NewLikeRepository(db)
	ctx := context.Background()

	ok, err := likes.Exists(ctx, 4, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Like(ctx, 4, 1))
	ok, err = likes.Exists(ctx, 4, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Unlike(ctx, 4, 1))
	ok, err = likes.Exists(ctx, 4, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFanReplicator_DrainOnStop(t *testing.T) {
	db := setupSeededDB(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := NewFanReplicator(repository.NewFanRepository(db), 16)
	stop := r.Start(2)
	svc := newRelationshipService(db, r)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, 4, 1))
	require.NoError(t, svc.Follow(ctx, 3, 1))
	require.NoError(t, stop(ctx))

	fans, err := svc.ListFans(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{3, 4}, fans)
	assert.Equal(t, 0, r.QueueLen())
}

func TestFanReplicator_QueueFullDrops(t *testing.T) {
	db := setupSeededDB(t)
	r := NewFanReplicator(repository.NewFanRepository(db), 1)

	// 未启动消费者，第二条被丢弃
	r.EnqueueAdd(1, 4)
	r.EnqueueAdd(1, 3)
	assert.Equal(t, 1, r.QueueLen())
}

func TestPublisher_Publish(t *testing.T) {
	db := setupSeededDB(t)
	p := NewPublisher(db)
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	ctx := context.Background()

	id, err := p.Publish(ctx, 3, "hello fans", nil)
	require.NoError(t, err)
	assert.Greater(t, id, int64(7))

	var post model.Post
	require.NoError(t, db.First(&post, id).Error)
	assert.Equal(t, int64(3), post.AuthorID)
	assert.True(t, fixed.Equal(post.CreatedAt))

	var out model.Outbox
	require.NoError(t, db.Where("post_id = ?", id).First(&out).Error)
	assert.Equal(t, model.OutboxPending, out.Status)
	assert.Equal(t, int64(3), out.AuthorID)
	assert.Len(t, out.ID, 36)
}

func TestPublisher_UnknownAuthorRollsBack(t *testing.T) {
	db := setupSeededDB(t)
	_, err := NewPublisher(db).Publish(context.Background(), 99, "ghost", nil)
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&model.Outbox{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFanoutWorker_ProcessOnce(t *testing.T) {
	db := setupSeededDB(t)
	ctx := context.Background()
	id, err := NewPublisher(db).Publish(ctx, 3, "to my fans", nil)
	require.NoError(t, err)

	w := NewFanoutWorker(db, repository.NewFanRepository(db), config.FanoutConfig{BatchSize: 1})
	n, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var out model.Outbox
	require.NoError(t, db.Where("post_id = ?", id).First(&out).Error)
	assert.Equal(t, model.OutboxDone, out.Status)
	assert.Equal(t, int64(2), out.FanoutCount)
	require.NotNil(t, out.ProcessedAt)

	inbox := repository.NewInboxRepository(db)
	for _, uid := range []int64{1, 2} {
		ids, err := inbox.ListPostIDs(ctx, uid, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{id}, ids, "user %d", uid)
	}
	ids, err := inbox.ListPostIDs(ctx, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err = w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	select {
	case d := <-w.Metrics():
		assert.GreaterOrEqual(t, d, time.Duration(0))
	default:
		t.Fatal("expected a latency sample")
	}
}

func TestFanoutWorker_RateLimitReleasesClaim(t *testing.T) {
	db := setupSeededDB(t)
	id, err := NewPublisher(db).Publish(context.Background(), 3, "slow", nil)
	require.NoError(t, err)

	// 每 2 秒一个批次，第二个批次等不到
	w := NewFanoutWorker(db, repository.NewFanRepository(db), config.FanoutConfig{BatchSize: 1, RatePerSecond: 0.5})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = w.ProcessOnce(ctx)
	require.Error(t, err)

	var out model.Outbox
	require.NoError(t, db.Where("post_id = ?", id).First(&out).Error)
	assert.Equal(t, model.OutboxPending, out.Status)
}

func TestFanoutWorker_StartStop(t *testing.T) {
	db := setupSeededDB(t)
	ctx := context.Background()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := NewFanoutWorker(db, repository.NewFanRepository(db), config.FanoutConfig{Workers: 2, PollInterval: 5 * time.Millisecond})
	stop := w.Start(ctx)

	id, err := NewPublisher(db).Publish(ctx, 2, "async", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var out model.Outbox
		if err := db.Where("post_id = ?", id).First(&out).Error; err != nil {
			return false
		}
		return out.Status == model.OutboxDone
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, stop(stopCtx))
}

func TestFanoutWorker_FailureReleasesRestOfBatch(t *testing.T) {
	db := setupSeededDB(t)
	pub := NewPublisher(db)
	first, err := pub.Publish(context.Background(), 3, "first", nil)
	require.NoError(t, err)
	second, err := pub.Publish(context.Background(), 3, "second", nil)
	require.NoError(t, err)

	status := func(postID int64) string {
		var out model.Outbox
		require.NoError(t, db.Where("post_id = ?", postID).First(&out).Error)
		return out.Status
	}

	// 第一个事件的第二批等不到令牌，整批都应退回 pending
	slow := NewFanoutWorker(db, repository.NewFanRepository(db), config.FanoutConfig{BatchSize: 1, RatePerSecond: 0.5})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	n, err := slow.ProcessOnce(ctx)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.OutboxPending, status(first))
	assert.Equal(t, model.OutboxPending, status(second))

	w := NewFanoutWorker(db, repository.NewFanRepository(db), config.FanoutConfig{})
	n, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, model.OutboxDone, status(first))
	assert.Equal(t, model.OutboxDone, status(second))

	ids, err := repository.NewInboxRepository(db).ListPostIDs(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{first, second}, ids)
}
