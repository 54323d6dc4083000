package memory

import (
	"context"
	"sync"

	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	mu     sync.RWMutex
	users  *table[domain.User]
	byName map[string]int64
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:  newTable[domain.User](),
		byName: make(map[string]int64),
	}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[user.Name]; taken {
		return repository.ErrConflict
	}

	user.ID = r.users.nextID()
	r.users.insert(user.ID, *user)
	r.byName[user.Name] = user.ID
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users.get(id)
	if !ok {
		return nil, nil
	}
	found := *u
	return &found, nil
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, r.users.len())
	r.users.each(func(u *domain.User) bool {
		users = append(users, *u)
		return true
	})
	return users, nil
}
