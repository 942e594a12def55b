package models

import "time"

// Post is an image post owned by Username. Posts are never edited.
type Post struct {
	ID        string    `json:"id"`
	Username  string    `json:"username" validate:"required"`
	Images    []string  `json:"images"`
	Caption   string    `json:"caption" validate:"max=200"`
	Timestamp time.Time `json:"timestamp"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes p together with its Extra members
func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return encodeRecord(plain(p), p.Extra)
}

// UnmarshalJSON decodes p, keeping undeclared members in Extra
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	extra, err := decodeRecord(data, (*plain)(p))
	if err != nil {
		return err
	}
	p.Extra = extra
	return nil
}

// PostStats aggregates the counters a post card renders
type PostStats struct {
	PostID       string `json:"postId"`
	LikeCount    int    `json:"likeCount"`
	CommentCount int    `json:"commentCount"`
	LikedByMe    bool   `json:"likedByMe"`
}

// CascadePolicy decides what happens to a post's dependents when it is deleted
type CascadePolicy string

const (
	// CascadePreserve keeps comments, likes and notification snapshots of deleted posts
	CascadePreserve CascadePolicy = "preserve"
	// CascadeDelete removes them together with the post
	CascadeDelete CascadePolicy = "delete"
)

// Valid reports whether p is a known policy
func (p CascadePolicy) Valid() bool {
	return p == CascadePreserve || p == CascadeDelete
}
