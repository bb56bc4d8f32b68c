package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/feedmix/internal/repository"
)

var (
	ErrFollowSelf = errors.New("cannot follow self")
)

// RelationshipService 关系链服务：关注与点赞的写入侧
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID int64) error
	Unfollow(ctx context.Context, fromUserID, toUserID int64) error
	ListFollowing(ctx context.Context, userID int64, page, pageSize int) ([]int64, error)
	ListFans(ctx context.Context, userID int64, page, pageSize int) ([]int64, error)
	Like(ctx context.Context, userID, postID int64) error
	Unlike(ctx context.Context, userID, postID int64) error
}

type relationshipService struct {
	followRepo repository.FollowRepository
	fanRepo    repository.FanRepository
	likeRepo   repository.LikeRepository
	replicator *FanReplicator
}

// NewRelationshipService replicator 为 nil 时粉丝表同步写入
func NewRelationshipService(followRepo repository.FollowRepository, fanRepo repository.FanRepository, likeRepo repository.LikeRepository, replicator *FanReplicator) RelationshipService {
	return &relationshipService{followRepo: followRepo, fanRepo: fanRepo, likeRepo: likeRepo, replicator: replicator}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID int64) error {
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	if err := s.followRepo.Create(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if s.replicator != nil {
		s.replicator.EnqueueAdd(toUserID, fromUserID)
		return nil
	}
	return s.fanRepo.Create(ctx, toUserID, fromUserID)
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID int64) error {
	if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if s.replicator != nil {
		s.replicator.EnqueueRemove(toUserID, fromUserID)
		return nil
	}
	return s.fanRepo.Delete(ctx, toUserID, fromUserID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID int64, page, pageSize int) ([]int64, error) {
	offset, limit := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]int64, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID int64, page, pageSize int) ([]int64, error) {
	offset, limit := pageBounds(page, pageSize)
	items, err := s.fanRepo.ListFans(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]int64, len(items))
	for i, it := range items {
		res[i] = it.FanID
	}
	return res, nil
}

func (s *relationshipService) Like(ctx context.Context, userID, postID int64) error {
	return s.likeRepo.Create(ctx, userID, postID)
}

func (s *relationshipService) Unlike(ctx context.Context, userID, postID int64) error {
	return s.likeRepo.Delete(ctx, userID, postID)
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
