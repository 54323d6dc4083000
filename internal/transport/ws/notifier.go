package ws

import (
	"log"

	"github.com/vedran77/feedline/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPostCreated(post *domain.Post) {
	evt, err := NewEvent(EventTypePostCreated, PostCreatedPayload{Post: post.Clone()})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt)
}

func (n *HubNotifier) NotifyPostLiked(res *domain.LikeResult) {
	evt, err := NewEvent(EventTypePostLiked, PostLikedPayload{
		PostID:  res.PostID,
		Likes:   res.Likes,
		LikedBy: res.LikedBy,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt)
}
