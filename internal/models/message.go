package models

import "time"

// Message is a direct message. Read flips once the recipient opens the conversation.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from" validate:"required"`
	To        string    `json:"to" validate:"required"`
	Text      string    `json:"text" validate:"required,max=1000"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes m together with its Extra members
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	return encodeRecord(plain(m), m.Extra)
}

// UnmarshalJSON decodes m, keeping undeclared members in Extra
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	extra, err := decodeRecord(data, (*plain)(m))
	if err != nil {
		return err
	}
	m.Extra = extra
	return nil
}

// Thread summarizes one conversation for the inbox list
type Thread struct {
	Peer          UserCompact `json:"peer"`
	LastMessage   string      `json:"lastMessage"`
	Timestamp     time.Time   `json:"timestamp"`
	UnreadCount   int         `json:"unreadCount"`
	LastMessageID string      `json:"lastMessageId"`
}
