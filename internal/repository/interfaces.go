package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/driftchat/drift/internal/models"
)

// NewMessage is the insert shape for a message. The store assigns ID and
// CreatedAt; Read always starts false.
type NewMessage struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Content    *string
	FileURL    *string
	FileType   *string
	FileSize   *int64
}

// MessageRepository owns the message log. Append-only except for the
// read bit.
type MessageRepository interface {
	// ListForUser returns every message the user sent or received,
	// newest first. One call per conversation-list refresh.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error)

	// ListBetween returns the full transcript between two users, oldest
	// first. Symmetric: ListBetween(a, b) and ListBetween(b, a) yield
	// the same sequence.
	ListBetween(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)

	// Insert appends a message and returns it with ID and CreatedAt
	// populated.
	Insert(ctx context.Context, msg NewMessage) (*models.Message, error)

	// MarkRead flips the read bit on every unread message from senderID
	// to receiverID and returns how many rows changed. Idempotent:
	// zero rows updated is not an error.
	MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error)
}

// UserRepository handles account rows. Lookup methods return nil, nil
// when no row matches.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByIDs resolves a batch of ids in one query. Missing ids are
	// silently absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Search matches username by case-insensitive substring, excluding
	// one user id (the searcher), capped at limit.
	Search(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]models.User, error)

	// Delete removes a user row. Returns the number of rows deleted.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error

	// TouchLastSeen stamps last_seen with the current time.
	TouchLastSeen(ctx context.Context, id uuid.UUID) error
}
