package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/internal/repository"
)

// GormStore implements Store on top of the gorm repositories.
type GormStore struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	follows repository.FollowRepository
	likes   repository.LikeRepository
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		users:   repository.NewUserRepository(db),
		posts:   repository.NewPostRepository(db),
		follows: repository.NewFollowRepository(db),
		likes:   repository.NewLikeRepository(db),
	}
}

func (s *GormStore) GetAccount(ctx context.Context, id int64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, mapNotFound(err)
	}
	return *u, nil
}

func (s *GormStore) GetItem(ctx context.Context, id int64) (model.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return model.Post{}, mapNotFound(err)
	}
	return *p, nil
}

func (s *GormStore) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.follows.Exists(ctx, followerID, followeeID)
}

func (s *GormStore) HasReacted(ctx context.Context, viewerID, itemID int64) (bool, error) {
	return s.likes.Exists(ctx, viewerID, itemID)
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
