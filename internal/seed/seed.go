// Package seed loads the reference dataset: four users, seven posts, three
// follow edges and three likes. Timestamps are spaced one second apart in
// insertion order so created_at is strictly increasing.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/pkg/database"
)

// Base is the created_at of the first seeded row.
var Base = time.Date(2025, 2, 2, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// Users returns the seeded accounts with ids 1..4.
func Users() []model.User {
	return []model.User{
		{ID: 1, Username: "alice", Email: "alice@example.com", FullName: "Alice Smith"},
		{ID: 2, Username: "bob", Email: "bob@example.com", FullName: "Bob Johnson"},
		{ID: 3, Username: "charlie", Email: "charlie@example.com", FullName: "Charlie Brown"},
		{ID: 4, Username: "david", Email: "david@example.com", FullName: "David Howard"},
	}
}

// Posts returns the seeded items with ids 1..7.
func Posts() []model.Post {
	return []model.Post{
		{ID: 1, Description: "My first post!", AuthorID: 2, Image: strPtr("image1.jpg")},
		{ID: 2, Description: "Hello!", AuthorID: 2, Image: strPtr("image2.jpg")},
		{ID: 3, Description: "Loving this platform!", AuthorID: 2, Image: strPtr("image3.jpg")},
		{ID: 4, Description: "Hi Everyone!", AuthorID: 4, Image: strPtr("image1.jpg")},
		{ID: 5, Description: "Awesome!", AuthorID: 3, Image: strPtr("image2.jpg")},
		{ID: 6, Description: "Hola!", AuthorID: 1, Image: strPtr("image3.jpg")},
		{ID: 7, Description: "Love.", AuthorID: 3, Image: strPtr("image3.jpg")},
	}
}

// Follows returns (follower, followee) pairs.
func Follows() [][2]int64 { return [][2]int64{{1, 2}, {1, 3}, {2, 3}} }

// Likes returns (post, user) pairs.
func Likes() [][2]int64 { return [][2]int64{{1, 2}, {2, 1}, {3, 3}} }

// Reset drops every table and recreates the schema.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(model.All()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return database.Migrate(db)
}

// Load inserts the dataset in one transaction.
func Load(ctx context.Context, db *gorm.DB) error {
	tick := 0
	next := func() time.Time {
		t := Base.Add(time.Duration(tick) * time.Second)
		tick++
		return t
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range Users() {
			u.CreatedAt = next()
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("seed user %d: %w", u.ID, err)
			}
		}
		for _, p := range Posts() {
			p.CreatedAt = next()
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("seed post %d: %w", p.ID, err)
			}
		}
		for _, f := range Follows() {
			row := model.Follow{ID: uuid.NewString(), FollowerID: f[0], FolloweeID: f[1], CreatedAt: next()}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed follow %v: %w", f, err)
			}
			fan := model.Fan{ID: uuid.NewString(), UserID: f[1], FanID: f[0], CreatedAt: row.CreatedAt}
			if err := tx.Create(&fan).Error; err != nil {
				return fmt.Errorf("seed fan %v: %w", f, err)
			}
		}
		for _, l := range Likes() {
			row := model.Like{PostID: l[0], UserID: l[1], CreatedAt: next()}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed like %v: %w", l, err)
			}
		}
		return nil
	})
}
