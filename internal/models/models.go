package models

import (
	"time"

	"github.com/google/uuid"
)

// OnlineWindow is how recently a user must have been seen to count as
// online. Presence is derived from LastSeen, never stored.
const OnlineWindow = 5 * time.Minute

// User is an account in the directory. PasswordHash never leaves the
// server; the json:"-" tag keeps it out of every API response.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	IsAdmin      bool       `json:"is_admin"`
	PasswordHash string     `json:"-"`
}

// Online reports whether the user was seen within OnlineWindow of now.
func (u *User) Online(now time.Time) bool {
	if u.LastSeen == nil {
		return false
	}
	return now.Sub(*u.LastSeen) < OnlineWindow
}

// Message is one direct message between two users. Rows are immutable
// after insert except for Read, which flips false to true exactly once,
// and only for the receiver.
//
// ID is a bigserial, not a UUID: messages are the highest-volume table
// and a monotonically increasing int64 doubles as an ordering cursor.
// Content and the File* fields are pointers because either side may be
// absent: a message carries text, an attachment, or both, never neither.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    *string   `json:"content"`
	FileURL    *string   `json:"file_url"`
	FileType   *string   `json:"file_type"`
	FileSize   *int64    `json:"file_size"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Involves reports whether userID is either party of the message.
func (m *Message) Involves(userID uuid.UUID) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Peer returns the other party of the message relative to selfID.
func (m *Message) Peer(selfID uuid.UUID) uuid.UUID {
	if m.SenderID == selfID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation is a derived summary of all traffic with one peer. It is
// never persisted. Conversations are discovered from messages, so one
// exists only when at least one message has been exchanged.
type Conversation struct {
	Peer        User     `json:"peer"`
	LastMessage *Message `json:"last_message"`
	Unread      int      `json:"unread_count"`
}
