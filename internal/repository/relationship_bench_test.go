package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/feedmix/internal/model"
)

func BenchmarkFollowWrite_And_FanRedundancy(b *testing.B) {
	db := setupTestDB(b)
	followRepo := NewFollowRepository(db)
	fanRepo := NewFanRepository(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{Username: fmt.Sprintf("u%04d", i), Email: fmt.Sprintf("u%04d@example.com", i)}
	}
	if err := db.Create(&users).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rnd := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rnd.Intn(len(users))].ID
		to := users[rnd.Intn(len(users))].ID
		if from == to {
			continue
		}
		_ = followRepo.Create(ctx, from, to)
		_ = fanRepo.Create(ctx, to, from)
	}
}

func BenchmarkEdgeExists(b *testing.B) {
	db := setupTestDB(b)
	followRepo := NewFollowRepository(db)
	likeRepo := NewLikeRepository(db)
	ctx := context.Background()

	// 构造：u0 关注 N 个用户并点赞 N 条内容
	const N = 5000
	for i := int64(1); i <= N; i++ {
		_ = followRepo.Create(ctx, 0, i)
		_ = likeRepo.Create(ctx, 0, i)
	}

	b.ResetTimer()
	b.Run("FollowExists", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = followRepo.Exists(ctx, 0, int64(i%N)+1)
		}
	})

	b.Run("LikeExists", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = likeRepo.Exists(ctx, 0, int64(i%N)+1)
		}
	})
}
