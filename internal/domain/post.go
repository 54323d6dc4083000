package domain

import "slices"

// DateLayout is the day-granularity format used for Post.Date.
const DateLayout = "2006-01-02"

type Post struct {
	ID           int64   `json:"id"`
	UserName     string  `json:"userName"`
	UserAvatar   string  `json:"userAvatar"`
	TextContent  string  `json:"textContent"`
	ImageContent string  `json:"imageContent"`
	Likes        int     `json:"likes"`
	LikedBy      []int64 `json:"likedBy"`
	Date         string  `json:"date"`
}

// Clone returns a deep copy so callers never share LikedBy with a store.
func (p Post) Clone() Post {
	p.LikedBy = slices.Clone(p.LikedBy)
	if p.LikedBy == nil {
		p.LikedBy = []int64{}
	}
	return p
}

func (p Post) IsLikedBy(userID int64) bool {
	return slices.Contains(p.LikedBy, userID)
}

// PostView is a post as seen by a particular caller.
type PostView struct {
	Post
	LikedByUser bool `json:"likedByUser"`
}

func NewPostView(p Post, callerID *int64) PostView {
	v := PostView{Post: p.Clone()}
	if callerID != nil {
		v.LikedByUser = p.IsLikedBy(*callerID)
	}
	return v
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	PostID  int64   `json:"postId"`
	Liked   bool    `json:"liked"`
	Likes   int     `json:"likes"`
	LikedBy []int64 `json:"likedBy"`
}
