package chat

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/models"
)

// State is one immutable snapshot of a client session: the conversation
// list, the active peer, and that peer's transcript. Every mutation
// builds a fresh State and swaps it in whole. Sub-fields are never
// written in place, so a concurrent reader can never observe a torn
// update.
type State struct {
	Conversations []models.Conversation `json:"conversations"`
	Active        *models.User          `json:"active"`
	Transcript    []models.Message      `json:"transcript"`
}

// Session is the per-client engine: it binds one authenticated user to
// the stateless Service and owns their in-memory view. Both UI commands
// and live inbox events mutate the same session; the mutex makes each
// snapshot swap atomic. Concurrent refreshes are not serialized beyond
// that: the last one to complete wins, which is acceptable at
// single-user conversation counts.
type Session struct {
	self   models.User
	svc    *Service
	logger *zap.Logger

	mu    sync.RWMutex
	state State
}

func NewSession(svc *Service, self models.User, logger *zap.Logger) *Session {
	return &Session{
		self:   self,
		svc:    svc,
		logger: logger,
		state: State{
			Conversations: []models.Conversation{},
			Transcript:    []models.Message{},
		},
	}
}

// Self returns the user this session is bound to.
func (s *Session) Self() models.User {
	return s.self
}

// State returns the current snapshot. The slices it carries are never
// mutated after the swap, so the caller may read them freely.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) swap(mutate func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = mutate(s.state)
	return s.state
}

// Refresh re-derives the conversation list and swaps it into the
// snapshot. With no intervening writes, two refreshes produce identical
// ordered lists.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	convs, err := s.svc.Conversations(ctx, s.self.ID)
	if err != nil {
		return s.State(), fmt.Errorf("refresh conversations: %w", err)
	}
	return s.swap(func(st State) State {
		st.Conversations = convs
		return st
	}), nil
}

// Select makes peer the active conversation. It unconditionally marks
// the peer's messages read and then loads the full transcript, even
// when nothing is unread. The transcript itself never filters on the
// read bit, so the mark-read cannot change what is fetched. The local
// unread count for the peer is zeroed in the same swap so the very next
// render is consistent without another round trip.
func (s *Session) Select(ctx context.Context, peer models.User) (State, error) {
	if _, err := s.svc.MarkRead(ctx, peer.ID, s.self.ID); err != nil {
		return s.State(), fmt.Errorf("mark read: %w", err)
	}
	transcript, err := s.svc.Transcript(ctx, s.self.ID, peer.ID)
	if err != nil {
		return s.State(), fmt.Errorf("load transcript: %w", err)
	}

	return s.swap(func(st State) State {
		st.Active = &peer
		st.Transcript = transcript
		st.Conversations = zeroUnread(st.Conversations, peer.ID)
		return st
	}), nil
}

// Deselect clears the active conversation and its transcript.
func (s *Session) Deselect() State {
	return s.swap(func(st State) State {
		st.Active = nil
		st.Transcript = []models.Message{}
		return st
	})
}

// Send delivers a message to peerID through the service and, when that
// peer is the active conversation, appends the inserted row to the
// transcript.
func (s *Session) Send(ctx context.Context, peerID uuid.UUID, content string, att *Attachment, data io.Reader) (State, error) {
	msg, err := s.svc.Send(ctx, s.self.ID, peerID, content, att, data)
	if err != nil {
		return s.State(), err
	}
	return s.swap(func(st State) State {
		if st.Active != nil && st.Active.ID == peerID {
			st.Transcript = appendMessage(st.Transcript, *msg)
		}
		return st
	}), nil
}

// ResolvePeer loads a user record for selection by id.
func (s *Session) ResolvePeer(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.svc.GetUser(ctx, id)
}

// Search proxies the directory search for this session's user.
func (s *Session) Search(ctx context.Context, query string) ([]models.User, error) {
	return s.svc.SearchUsers(ctx, s.self.ID, query)
}

// HandleInbound merges one live-pushed message into the session. If the
// sender is the active peer, the message joins the transcript and is
// immediately marked read. The sender-is-active check runs inside the
// swap so a Select racing on another goroutine cannot retire the peer
// between the check and the append. The append de-duplicates by id,
// since the push and a just-finished transcript fetch can race. Either
// way the whole conversation list is re-derived; a full re-aggregation
// per event is cheap at these sizes and guarantees unread counts and
// ordering converge.
func (s *Session) HandleInbound(ctx context.Context, m models.Message) State {
	var fromActive bool
	s.swap(func(st State) State {
		if st.Active != nil && st.Active.ID == m.SenderID {
			fromActive = true
			m.Read = true
			st.Transcript = appendMessage(st.Transcript, m)
		}
		return st
	})
	if fromActive {
		if _, err := s.svc.MarkRead(ctx, m.SenderID, s.self.ID); err != nil {
			s.logger.Warn("failed to mark inbound message read",
				zap.Int64("message_id", m.ID),
				zap.Error(err),
			)
		}
	}

	st, err := s.Refresh(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh after inbound message", zap.Error(err))
	}
	return st
}

// appendMessage adds m unless a message with the same id is already
// present. Returns a fresh slice so older snapshots stay untouched.
func appendMessage(transcript []models.Message, m models.Message) []models.Message {
	for i := range transcript {
		if transcript[i].ID == m.ID {
			return transcript
		}
	}
	out := make([]models.Message, len(transcript), len(transcript)+1)
	copy(out, transcript)
	return append(out, m)
}

func zeroUnread(convs []models.Conversation, peerID uuid.UUID) []models.Conversation {
	out := make([]models.Conversation, len(convs))
	copy(out, convs)
	for i := range out {
		if out[i].Peer.ID == peerID {
			out[i].Unread = 0
		}
	}
	return out
}
