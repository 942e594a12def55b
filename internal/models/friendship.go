package models

import "time"

// FriendRequestStatus is the lifecycle state of a friend request.
// Rejected requests are deleted, so there is no rejected state.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
)

// FriendRequest represents a friend request between two users
type FriendRequest struct {
	ID        string              `json:"id"`
	From      string              `json:"from" validate:"required"`
	To        string              `json:"to" validate:"required"`
	Status    FriendRequestStatus `json:"status" validate:"oneof=pending accepted"`
	Timestamp time.Time           `json:"timestamp"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes f together with its Extra members
func (f FriendRequest) MarshalJSON() ([]byte, error) {
	type plain FriendRequest
	return encodeRecord(plain(f), f.Extra)
}

// UnmarshalJSON decodes f, keeping undeclared members in Extra
func (f *FriendRequest) UnmarshalJSON(data []byte) error {
	type plain FriendRequest
	extra, err := decodeRecord(data, (*plain)(f))
	if err != nil {
		return err
	}
	f.Extra = extra
	return nil
}

// Relationship describes how the session user relates to another user
type Relationship string

const (
	RelationshipSelf            Relationship = "self"
	RelationshipFriends         Relationship = "friends"
	RelationshipRequestSent     Relationship = "request_sent"
	RelationshipRequestReceived Relationship = "request_received"
	RelationshipNone            Relationship = "none"
)
