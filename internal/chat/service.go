package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/models"
	"github.com/driftchat/drift/internal/repository"
	"github.com/driftchat/drift/internal/storage"
)

// Publisher pushes a freshly inserted message onto the live channel.
type Publisher interface {
	Publish(ctx context.Context, m models.Message) error
}

// searchMinLen is the shortest username query the directory accepts;
// anything shorter returns an empty result rather than an error.
const (
	searchMinLen = 3
	searchLimit  = 10
)

// Service holds the stateless engine operations: everything that reads
// or writes the message log, the user directory, or blob storage.
// Per-client state (active conversation, transcript) lives in Session.
type Service struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	blobs    storage.Store
	events   Publisher
	logger   *zap.Logger
}

func NewService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	blobs storage.Store,
	events Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		messages: messages,
		users:    users,
		blobs:    blobs,
		events:   events,
		logger:   logger,
	}
}

// Conversations derives the ordered conversation list for one user:
// fetch their full message log, resolve the distinct peers in one batch
// lookup, then aggregate last message and unread count per peer.
func (s *Service) Conversations(ctx context.Context, selfID uuid.UUID) ([]models.Conversation, error) {
	msgs, err := s.messages.ListForUser(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	peerIDs := PeerIDs(selfID, msgs)
	if len(peerIDs) == 0 {
		return []models.Conversation{}, nil
	}

	peers, err := s.users.GetByIDs(ctx, peerIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve peers: %w", err)
	}

	return BuildConversations(selfID, msgs, peers), nil
}

// Transcript returns the full message history with one peer, oldest
// first. Read state is not filtered: the transcript looks the same
// before and after a mark-read.
func (s *Service) Transcript(ctx context.Context, selfID, peerID uuid.UUID) ([]models.Message, error) {
	return s.messages.ListBetween(ctx, selfID, peerID)
}

// MarkRead flips every unread message from peerID to selfID. Calling it
// with nothing unread updates zero rows and succeeds.
func (s *Service) MarkRead(ctx context.Context, peerID, selfID uuid.UUID) (int64, error) {
	return s.messages.MarkRead(ctx, peerID, selfID)
}

// Send validates, uploads, inserts, and publishes one outgoing message.
//
// The pipeline is deliberately not transactional: if the insert fails
// after the upload succeeded the blob is orphaned. The URL is logged so
// an operator can sweep it; nothing rolls it back.
func (s *Service) Send(ctx context.Context, selfID, peerID uuid.UUID, content string, att *Attachment, data io.Reader) (*models.Message, error) {
	if selfID == peerID {
		return nil, &ValidationError{Field: "receiver_id", Reason: "cannot message yourself"}
	}
	if err := ValidateMessage(content, att); err != nil {
		return nil, err
	}

	msg := repository.NewMessage{
		SenderID:   selfID,
		ReceiverID: peerID,
	}
	if trimmed := strings.TrimSpace(content); trimmed != "" {
		msg.Content = &trimmed
	}

	if att != nil {
		path := fmt.Sprintf("%s/%d-%s", selfID, time.Now().UnixMilli(), att.Name)
		url, err := s.blobs.Put(ctx, path, data)
		if err != nil {
			return nil, &StorageError{Err: err}
		}
		msg.FileURL = &url
		msg.FileType = &att.Type
		size := att.Size
		msg.FileSize = &size
	}

	inserted, err := s.messages.Insert(ctx, msg)
	if err != nil {
		if msg.FileURL != nil {
			s.logger.Warn("message insert failed after upload, blob orphaned",
				zap.String("file_url", *msg.FileURL),
				zap.Error(err),
			)
		}
		return nil, &PersistError{Err: err}
	}

	// Best-effort push. A publish failure only delays the receiver
	// until their next refresh, so it never fails the send.
	if err := s.events.Publish(ctx, *inserted); err != nil {
		s.logger.Warn("failed to publish message event",
			zap.Int64("message_id", inserted.ID),
			zap.Error(err),
		)
	}

	return inserted, nil
}

// GetUser resolves a single user id, mapping a missing row to
// NotFoundError.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, &NotFoundError{Resource: "user", ID: id.String()}
	}
	return u, nil
}

// SearchUsers matches usernames by case-insensitive substring, excluding
// the searcher. Queries under three characters yield an empty result.
func (s *Service) SearchUsers(ctx context.Context, selfID uuid.UUID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < searchMinLen {
		return []models.User{}, nil
	}
	return s.users.Search(ctx, query, selfID, searchLimit)
}

// DeleteUser removes an account. Admin only.
func (s *Service) DeleteUser(ctx context.Context, actor models.User, targetID uuid.UUID) error {
	if !actor.IsAdmin {
		return &AuthorizationError{Action: "delete user"}
	}
	n, err := s.users.Delete(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return &NotFoundError{Resource: "user", ID: targetID.String()}
	}
	s.logger.Info("user deleted",
		zap.String("target_id", targetID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// ToggleAdmin flips the admin flag on another account. Admin only, and
// never on yourself; demotion must come from a second admin.
func (s *Service) ToggleAdmin(ctx context.Context, actor models.User, targetID uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin {
		return nil, &AuthorizationError{Action: "change admin status"}
	}
	if actor.ID == targetID {
		return nil, &ValidationError{Field: "user_id", Reason: "cannot change your own admin status"}
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if target == nil {
		return nil, &NotFoundError{Resource: "user", ID: targetID.String()}
	}

	if err := s.users.SetAdmin(ctx, targetID, !target.IsAdmin); err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}
	target.IsAdmin = !target.IsAdmin
	s.logger.Info("admin flag toggled",
		zap.String("target_id", targetID.String()),
		zap.Bool("is_admin", target.IsAdmin),
		zap.String("actor_id", actor.ID.String()),
	)
	return target, nil
}
