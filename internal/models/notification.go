package models

import (
	"fmt"
	"time"

	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// NotificationType discriminates the notification variants
type NotificationType string

const (
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationMessage       NotificationType = "message"
)

// Default display texts per variant
const (
	likeText          = "liked your post"
	commentText       = "commented on your post"
	friendRequestText = "sent you a friend request"
	messageText       = "sent you a message"
)

// Notification is the stored form of every variant. PostID and PostData are
// only set for like and comment notifications; PostData is a snapshot of the
// post when the notification was created, not a live reference.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type" validate:"oneof=like comment friend_request message"`
	From      string           `json:"from" validate:"required"`
	To        string           `json:"to" validate:"required"`
	Message   string           `json:"message"`
	PostID    string           `json:"postId,omitempty"`
	PostData  *Post            `json:"postData,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes n together with its Extra members
func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	return encodeRecord(plain(n), n.Extra)
}

// UnmarshalJSON decodes n, keeping undeclared members in Extra
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	extra, err := decodeRecord(data, (*plain)(n))
	if err != nil {
		return err
	}
	n.Extra = extra
	return nil
}

// NotificationPayload is implemented only by the variant types in this package,
// so every notification is built from one of them
type NotificationPayload interface {
	Kind() NotificationType
	toNotification() Notification
}

// LikePayload: From liked Post, notifying its owner
type LikePayload struct {
	From string
	Post Post
}

// CommentPayload: From commented on Post, notifying its owner
type CommentPayload struct {
	From string
	Post Post
}

// FriendRequestPayload: From sent a friend request to To
type FriendRequestPayload struct {
	From string
	To   string
}

// MessagePayload: From sent a direct message to To
type MessagePayload struct {
	From string
	To   string
}

func (LikePayload) Kind() NotificationType          { return NotificationLike }
func (CommentPayload) Kind() NotificationType       { return NotificationComment }
func (FriendRequestPayload) Kind() NotificationType { return NotificationFriendRequest }
func (MessagePayload) Kind() NotificationType       { return NotificationMessage }

func (p LikePayload) toNotification() Notification {
	post := p.Post
	return Notification{
		Type:     NotificationLike,
		From:     p.From,
		To:       p.Post.Username,
		Message:  likeText,
		PostID:   p.Post.ID,
		PostData: &post,
	}
}

func (p CommentPayload) toNotification() Notification {
	post := p.Post
	return Notification{
		Type:     NotificationComment,
		From:     p.From,
		To:       p.Post.Username,
		Message:  commentText,
		PostID:   p.Post.ID,
		PostData: &post,
	}
}

func (p FriendRequestPayload) toNotification() Notification {
	return Notification{
		Type:    NotificationFriendRequest,
		From:    p.From,
		To:      p.To,
		Message: friendRequestText,
	}
}

func (p MessagePayload) toNotification() Notification {
	return Notification{
		Type:    NotificationMessage,
		From:    p.From,
		To:      p.To,
		Message: messageText,
	}
}

// NewNotification builds the unstamped stored form of a payload
func NewNotification(p NotificationPayload) Notification {
	return p.toNotification()
}

func NewLikeNotification(from string, post Post) Notification {
	return NewNotification(LikePayload{From: from, Post: post})
}

func NewCommentNotification(from string, post Post) Notification {
	return NewNotification(CommentPayload{From: from, Post: post})
}

func NewFriendRequestNotification(from, to string) Notification {
	return NewNotification(FriendRequestPayload{From: from, To: to})
}

func NewMessageNotification(from, to string) Notification {
	return NewNotification(MessagePayload{From: from, To: to})
}

// Payload decodes the stored record back into its variant
func (n Notification) Payload() (NotificationPayload, error) {
	switch n.Type {
	case NotificationLike, NotificationComment:
		if n.PostData == nil {
			return nil, apperrors.New(apperrors.ErrCodeValidation, fmt.Sprintf("%s notification %s has no post snapshot", n.Type, n.ID))
		}
		if n.Type == NotificationLike {
			return LikePayload{From: n.From, Post: *n.PostData}, nil
		}
		return CommentPayload{From: n.From, Post: *n.PostData}, nil
	case NotificationFriendRequest:
		return FriendRequestPayload{From: n.From, To: n.To}, nil
	case NotificationMessage:
		return MessagePayload{From: n.From, To: n.To}, nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeValidation, fmt.Sprintf("unknown notification type %q", n.Type))
	}
}

// Validate checks the struct tags and the per-variant field rules
func (n Notification) Validate() error {
	if err := Validate(n); err != nil {
		return err
	}
	switch n.Type {
	case NotificationLike, NotificationComment:
		if n.PostID == "" || n.PostData == nil {
			return apperrors.New(apperrors.ErrCodeValidation, string(n.Type)+" notification requires postId and postData")
		}
		if n.PostData.ID != n.PostID {
			return apperrors.New(apperrors.ErrCodeValidation, "postData does not match postId")
		}
	case NotificationFriendRequest, NotificationMessage:
		if n.PostID != "" || n.PostData != nil {
			return apperrors.New(apperrors.ErrCodeValidation, string(n.Type)+" notification must not reference a post")
		}
	default:
		return apperrors.New(apperrors.ErrCodeValidation, fmt.Sprintf("unknown notification type %q", n.Type))
	}
	return nil
}
