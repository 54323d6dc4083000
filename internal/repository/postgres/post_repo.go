package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository"
)

const postSelect = `
	SELECT p.id, p.user_name, p.user_avatar, p.text_content, p.image_content, p.likes,
		to_char(p.date, 'YYYY-MM-DD'),
		COALESCE(
			(SELECT array_agg(l.user_id ORDER BY l.liked_at) FROM post_likes l WHERE l.post_id = p.id),
			'{}'
		)
	FROM posts p`

var _ repository.PostRepository = (*PostRepo)(nil)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (user_name, user_avatar, text_content, image_content, likes, date)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		RETURNING id`
	return r.pool.QueryRow(ctx, query,
		post.UserName, post.UserAvatar, post.TextContent, post.ImageContent, post.Likes, post.Date,
	).Scan(&post.ID)
}

func (r *PostRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, postSelect+" WHERE p.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	return r.query(ctx, postSelect+" ORDER BY p.id DESC")
}

func (r *PostRepo) ListByUserName(ctx context.Context, userName string) ([]domain.Post, error) {
	return r.query(ctx, postSelect+" WHERE p.user_name = $1 ORDER BY p.id DESC", userName)
}

func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID int64) (*domain.LikeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, "SELECT id FROM posts WHERE id = $1 FOR UPDATE", postID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2", postID, userID)
	if err != nil {
		return nil, err
	}

	delta := -1
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, "INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)", postID, userID); err != nil {
			return nil, err
		}
		delta = 1
	}

	res := &domain.LikeResult{PostID: postID, Liked: delta > 0}
	if err := tx.QueryRow(ctx, "UPDATE posts SET likes = likes + $2 WHERE id = $1 RETURNING likes", postID, delta).Scan(&res.Likes); err != nil {
		return nil, err
	}
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(array_agg(user_id ORDER BY liked_at), '{}') FROM post_likes WHERE post_id = $1", postID,
	).Scan(&res.LikedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing like: %w", err)
	}
	return res, nil
}

func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM posts").Scan(&n)
	return n, err
}

func (r *PostRepo) query(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.UserName, &p.UserAvatar, &p.TextContent, &p.ImageContent, &p.Likes,
		&p.Date, &p.LikedBy,
	)
	if err != nil {
		return nil, err
	}
	if p.LikedBy == nil {
		p.LikedBy = []int64{}
	}
	return &p, nil
}
