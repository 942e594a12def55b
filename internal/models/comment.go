package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId" validate:"required"`
	Username  string    `json:"username" validate:"required"` // author
	Text      string    `json:"text" validate:"required,max=500"`
	Timestamp time.Time `json:"timestamp"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes c together with its Extra members
func (c Comment) MarshalJSON() ([]byte, error) {
	type plain Comment
	return encodeRecord(plain(c), c.Extra)
}

// UnmarshalJSON decodes c, keeping undeclared members in Extra
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	extra, err := decodeRecord(data, (*plain)(c))
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}
