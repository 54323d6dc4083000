package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository"
)

var _ repository.PostRepository = (*PostRepo)(nil)

type PostRepo struct {
	mu    sync.RWMutex
	posts *table[domain.Post]
}

func NewPostRepo() *PostRepo {
	return &PostRepo{posts: newTable[domain.Post]()}
}

func (r *PostRepo) Create(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post.ID = r.posts.nextID()
	r.posts.insert(post.ID, post.Clone())
	return nil
}

func (r *PostRepo) GetByID(_ context.Context, id int64) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts.get(id)
	if !ok {
		return nil, nil
	}
	found := p.Clone()
	return &found, nil
}

func (r *PostRepo) List(_ context.Context) ([]domain.Post, error) {
	return r.collect(func(*domain.Post) bool { return true }), nil
}

func (r *PostRepo) ListByUserName(_ context.Context, userName string) ([]domain.Post, error) {
	return r.collect(func(p *domain.Post) bool { return p.UserName == userName }), nil
}

func (r *PostRepo) ToggleLike(_ context.Context, postID, userID int64) (*domain.LikeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts.get(postID)
	if !ok {
		return nil, nil
	}

	liked := true
	if i := slices.Index(p.LikedBy, userID); i >= 0 {
		p.LikedBy = slices.Delete(p.LikedBy, i, i+1)
		p.Likes--
		liked = false
	} else {
		p.LikedBy = append(p.LikedBy, userID)
		p.Likes++
	}

	return &domain.LikeResult{
		PostID:  p.ID,
		Liked:   liked,
		Likes:   p.Likes,
		LikedBy: slices.Clone(p.LikedBy),
	}, nil
}

func (r *PostRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.posts.len(), nil
}

func (r *PostRepo) collect(keep func(*domain.Post) bool) []domain.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := []domain.Post{}
	r.posts.eachReverse(func(p *domain.Post) bool {
		if keep(p) {
			posts = append(posts, p.Clone())
		}
		return true
	})
	return posts
}
