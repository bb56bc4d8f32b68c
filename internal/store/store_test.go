package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/config"
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

func TestGormStore_Lookups(t *testing.T) {
	s := NewGormStore(setupSeededDB(t))
	ctx := context.Background()

	u, err := s.GetAccount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "Bob Johnson", u.FullName)

	_, err = s.GetAccount(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := s.GetItem(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Hi Everyone!", p.Description)
	assert.Equal(t, int64(4), p.AuthorID)
	require.NotNil(t, p.Image)
	assert.Equal(t, "image1.jpg", *p.Image)

	_, err = s.GetItem(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_Edges(t *testing.T) {
	s := NewGormStore(setupSeededDB(t))
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() (bool, error)
		want bool
	}{
		{"1 follows 2", func() (bool, error) { return s.IsFollowing(ctx, 1, 2) }, true},
		{"2 follows 3", func() (bool, error) { return s.IsFollowing(ctx, 2, 3) }, true},
		{"2 does not follow 1", func() (bool, error) { return s.IsFollowing(ctx, 2, 1) }, false},
		{"4 follows nobody", func() (bool, error) { return s.IsFollowing(ctx, 4, 2) }, false},
		{"2 liked post 1", func() (bool, error) { return s.HasReacted(ctx, 2, 1) }, true},
		{"1 liked post 2", func() (bool, error) { return s.HasReacted(ctx, 1, 2) }, true},
		{"1 did not like post 1", func() (bool, error) { return s.HasReacted(ctx, 1, 1) }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGormStore_SurfacesDriverErrors(t *testing.T) {
	db := setupSeededDB(t)
	s := NewGormStore(db)
	require.NoError(t, database.Close(db))

	_, err := s.GetAccount(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
