package feed

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/internal/store"
)

// memStore is a read-only in-memory store; safe for concurrent reads.
type memStore struct {
	users     map[int64]model.User
	posts     map[int64]model.Post
	follows   map[[2]int64]bool
	likes     map[[2]int64]bool
	failItems map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]model.User{},
		posts:     map[int64]model.Post{},
		follows:   map[[2]int64]bool{},
		likes:     map[[2]int64]bool{},
		failItems: map[int64]error{},
	}
}

func (m *memStore) addUser(id int64, name string) *memStore {
	m.users[id] = model.User{ID: id, Username: name, FullName: name}
	return m
}

func (m *memStore) addPost(id, author int64) *memStore {
	img := "image.jpg"
	m.posts[id] = model.Post{ID: id, AuthorID: author, Description: "post", Image: &img}
	return m
}

func (m *memStore) GetAccount(_ context.Context, id int64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetItem(_ context.Context, id int64) (model.Post, error) {
	if err, ok := m.failItems[id]; ok {
		return model.Post{}, err
	}
	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) IsFollowing(_ context.Context, a, b int64) (bool, error) {
	return m.follows[[2]int64{a, b}], nil
}

func (m *memStore) HasReacted(_ context.Context, v, i int64) (bool, error) {
	return m.likes[[2]int64{v, i}], nil
}

type mockStore struct{ mock.Mock }

func (m *mockStore) GetAccount(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockStore) GetItem(ctx context.Context, id int64) (model.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *mockStore) IsFollowing(ctx context.Context, a, b int64) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) HasReacted(ctx context.Context, v, i int64) (bool, error) {
	args := m.Called(ctx, v, i)
	return args.Bool(0), args.Error(1)
}
