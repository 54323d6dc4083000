// Package seed holds the fixed accounts and sample posts loaded at startup.
package seed

import (
	"context"
	"fmt"

	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/service"
)

func Users(adonayPassword, wellPassword string) []service.RegisterInput {
	return []service.RegisterInput{
		{Name: "adonay", Password: adonayPassword, Avatar: "useravatar1.png"},
		{Name: "well", Password: wellPassword, Avatar: "useravatar2.png"},
	}
}

// Posts predates per-user like tracking, so the sample like counts have no
// matching likedBy entries.
func Posts() []domain.Post {
	return []domain.Post{
		{
			UserName:    "adonay",
			UserAvatar:  "useravatar1.png",
			TextContent: "Este é o primeiro post de Adonay com apenas texto.",
			Likes:       10,
			Date:        "2023-10-10",
		},
		{
			UserName:     "adonay",
			UserAvatar:   "useravatar1.png",
			TextContent:  "Este é o segundo post de Adonay com uma imagem.",
			ImageContent: "imagem1.png",
			Likes:        15,
			Date:         "2023-10-11",
		},
		{
			UserName:    "well",
			UserAvatar:  "useravatar2.png",
			TextContent: "Este é o primeiro post do Well, apenas com texto.",
			Likes:       5,
			Date:        "2023-10-12",
		},
		{
			UserName:     "well",
			UserAvatar:   "useravatar2.png",
			TextContent:  "Este é o segundo post do Well, com uma imagem.",
			ImageContent: "imagem2.png",
			Likes:        12,
			Date:         "2023-10-13",
		},
	}
}

// Apply loads the seed users and posts. It is safe to run against a store
// that was already seeded.
func Apply(ctx context.Context, auth *service.AuthService, posts *service.PostService, adonayPassword, wellPassword string) error {
	if err := auth.SeedUsers(ctx, Users(adonayPassword, wellPassword)); err != nil {
		return err
	}
	if err := posts.SeedPosts(ctx, Posts()); err != nil {
		return fmt.Errorf("seeding posts: %w", err)
	}
	return nil
}
