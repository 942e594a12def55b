package models

import "time"

// Like represents a like on a post. At most one exists per (PostID, Username).
type Like struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId" validate:"required"`
	Username  string    `json:"username" validate:"required"`
	Timestamp time.Time `json:"timestamp"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes l together with its Extra members
func (l Like) MarshalJSON() ([]byte, error) {
	type plain Like
	return encodeRecord(plain(l), l.Extra)
}

// UnmarshalJSON decodes l, keeping undeclared members in Extra
func (l *Like) UnmarshalJSON(data []byte) error {
	type plain Like
	extra, err := decodeRecord(data, (*plain)(l))
	if err != nil {
		return err
	}
	l.Extra = extra
	return nil
}
