package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedmix/config"
	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/pkg/database"
)

func TestResetAndLoad(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, Reset(db))
	require.NoError(t, Load(context.Background(), db))

	counts := map[any]int64{
		&model.User{}:   4,
		&model.Post{}:   7,
		&model.Follow{}: 3,
		&model.Fan{}:    3,
		&model.Like{}:   3,
	}
	for m, want := range counts {
		var got int64
		require.NoError(t, db.Model(m).Count(&got).Error)
		assert.Equal(t, want, got, "%T", m)
	}

	var posts []model.Post
	require.NoError(t, db.Order("id").Find(&posts).Error)
	for i := 1; i < len(posts); i++ {
		assert.True(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
	}

	// Reset on a populated schema starts over
	require.NoError(t, Reset(db))
	require.NoError(t, Load(context.Background(), db))
}
