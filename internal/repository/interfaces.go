package repository

import (
	"context"
	"errors"

	"github.com/vedran77/feedline/internal/domain"
)

// ErrConflict is returned by Create when a unique key is already taken.
var ErrConflict = errors.New("record already exists")

// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	// Create assigns user.ID.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type PostRepository interface {
	// Create assigns post.ID.
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	// List returns posts newest first.
	List(ctx context.Context) ([]domain.Post, error)
	ListByUserName(ctx context.Context, userName string) ([]domain.Post, error)
	// ToggleLike flips userID's membership in the post's likedBy set and moves
	// the like count with it. Returns (nil, nil) if the post does not exist.
	ToggleLike(ctx context.Context, postID, userID int64) (*domain.LikeResult, error)
	Count(ctx context.Context) (int, error)
}
