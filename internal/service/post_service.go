package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNoUserPosts  = errors.New("no posts found for user")
	ErrEmptyPost    = errors.New("a post needs text or an image")
)

// Notifier broadcasts feed events to connected clients.
type Notifier interface {
	NotifyPostCreated(post *domain.Post)
	NotifyPostLiked(result *domain.LikeResult)
}

// ImageStore persists the image attached to a new post.
type ImageStore interface {
	Save(header *multipart.FileHeader) (string, error)
	Remove(name string) error
}

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	images   ImageStore
	notifier Notifier
	now      func() time.Time
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, images ImageStore) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		images:   images,
		now:      time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *PostService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetClock overrides the time source used for post dates.
func (s *PostService) SetClock(now func() time.Time) {
	s.now = now
}

type CreatePostInput struct {
	TextContent string
	Image       *multipart.FileHeader
}

func (s *PostService) List(ctx context.Context, callerID *int64) ([]domain.PostView, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return views(posts, callerID), nil
}

func (s *PostService) Get(ctx context.Context, postID int64, callerID *int64) (*domain.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	v := domain.NewPostView(*post, callerID)
	return &v, nil
}

func (s *PostService) ListByUser(ctx context.Context, userName string, callerID *int64) ([]domain.PostView, error) {
	posts, err := s.postRepo.ListByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNoUserPosts
	}
	return views(posts, callerID), nil
}

// Create stores a new post with a snapshot of the author's current name and
// avatar. The image, if any, is written before the post and removed again
// if the post cannot be stored.
func (s *PostService) Create(ctx context.Context, authorID int64, input CreatePostInput) (*domain.Post, error) {
	text := strings.TrimSpace(input.TextContent)
	if text == "" && input.Image == nil {
		return nil, ErrEmptyPost
	}

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}

	var imageName string
	if input.Image != nil {
		imageName, err = s.images.Save(input.Image)
		if err != nil {
			return nil, fmt.Errorf("saving image: %w", err)
		}
	}

	post := &domain.Post{
		UserName:     author.Name,
		UserAvatar:   author.Avatar,
		TextContent:  text,
		ImageContent: imageName,
		LikedBy:      []int64{},
		Date:         s.now().Format(domain.DateLayout),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if imageName != "" {
			if rmErr := s.images.Remove(imageName); rmErr != nil {
				log.Printf("ERROR removing orphaned image %s: %v", imageName, rmErr)
			}
		}
		return nil, fmt.Errorf("creating post: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyPostCreated(post)
	}

	return post, nil
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID int64) (*domain.LikeResult, error) {
	res, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggling like: %w", err)
	}
	if res == nil {
		return nil, ErrPostNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyPostLiked(res)
	}

	return res, nil
}

// SeedPosts inserts the given posts, in order, into an empty store.
func (s *PostService) SeedPosts(ctx context.Context, posts []domain.Post) error {
	n, err := s.postRepo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for i := range posts {
		p := posts[i].Clone()
		if err := s.postRepo.Create(ctx, &p); err != nil {
			return fmt.Errorf("seeding post %d: %w", i+1, err)
		}
	}
	return nil
}

func views(posts []domain.Post, callerID *int64) []domain.PostView {
	out := make([]domain.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, domain.NewPostView(p, callerID))
	}
	return out
}
