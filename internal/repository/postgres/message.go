package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driftchat/drift/internal/models"
	"github.com/driftchat/drift/internal/repository"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, content, file_url, file_type, file_size, read, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.Content,
		&m.FileURL,
		&m.FileType,
		&m.FileSize,
		&m.Read,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ListForUser is the conversation-refresh fetch: every message the user
// sent or received, newest first. The id tie-break keeps ordering
// stable when two rows share a timestamp.
func (s *MessageStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages for user: %w", err)
	}
	return collectMessages(rows)
}

// ListBetween is the transcript fetch: all traffic between a and b in
// either direction, oldest first. The pair filter is symmetric in its
// arguments and the ordering is argument-independent, so swapping a and
// b returns the identical sequence.
func (s *MessageStore) ListBetween(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, a, b)
	if err != nil {
		return nil, fmt.Errorf("list messages between users: %w", err)
	}
	return collectMessages(rows)
}

func (s *MessageStore) Insert(ctx context.Context, msg repository.NewMessage) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content, file_url, file_type, file_size, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, now())
		RETURNING ` + messageColumns

	m, err := scanMessage(s.pool.QueryRow(ctx, query,
		msg.SenderID,
		msg.ReceiverID,
		msg.Content,
		msg.FileURL,
		msg.FileType,
		msg.FileSize,
	))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// MarkRead flips the read bit on every unread message from senderID to
// receiverID. The read = FALSE predicate makes repeat calls touch zero
// rows instead of rewriting already-read ones.
func (s *MessageStore) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	query := `
		UPDATE messages
		SET read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND read = FALSE`

	tag, err := s.pool.Exec(ctx, query, senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}
