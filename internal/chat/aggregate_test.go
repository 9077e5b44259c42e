package chat

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/driftchat/drift/internal/models"
)

func strptr(s string) *string { return &s }

func msgAt(id int64, sender, receiver uuid.UUID, content string, at time.Time, read bool) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    strptr(content),
		Read:       read,
		CreatedAt:  at,
	}
}

func TestPeerIDs(t *testing.T) {
	self := uuid.New()
	a := uuid.New()
	b := uuid.New()
	base := time.Now()

	msgs := []models.Message{
		msgAt(3, b, self, "newest", base.Add(2*time.Second), false),
		msgAt(2, self, a, "mid", base.Add(time.Second), false),
		msgAt(1, a, self, "oldest", base, true),
	}

	got := PeerIDs(self, msgs)
	want := []uuid.UUID{b, a}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PeerIDs = %v, want %v", got, want)
	}
}

// Two users exchange three messages; the receiver's view must show the
// latest message as the conversation head and count both inbound unread
// messages.
func TestBuildConversationsScenario(t *testing.T) {
	userA := models.User{ID: uuid.New(), Username: "a"}
	userB := models.User{ID: uuid.New(), Username: "b"}
	base := time.Now()

	// Newest first, as ListForUser returns them.
	msgs := []models.Message{
		msgAt(3, userA.ID, userB.ID, "bye", base.Add(2*time.Second), false),
		msgAt(2, userB.ID, userA.ID, "hey", base.Add(time.Second), true),
		msgAt(1, userA.ID, userB.ID, "hi", base, false),
	}

	convs := BuildConversations(userB.ID, msgs, []models.User{userA})
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	conv := convs[0]
	if conv.Peer.ID != userA.ID {
		t.Errorf("wrong peer: %v", conv.Peer.ID)
	}
	if conv.LastMessage == nil || *conv.LastMessage.Content != "bye" {
		t.Errorf("last message = %v, want \"bye\"", conv.LastMessage)
	}
	if conv.Unread != 2 {
		t.Errorf("unread = %d, want 2 (both A-to-B messages are unread)", conv.Unread)
	}
}

func TestBuildConversationsOrdering(t *testing.T) {
	self := uuid.New()
	old := models.User{ID: uuid.New(), Username: "old"}
	recent := models.User{ID: uuid.New(), Username: "recent"}
	base := time.Now()

	msgs := []models.Message{
		msgAt(2, recent.ID, self, "new", base.Add(time.Hour), false),
		msgAt(1, old.ID, self, "old", base, false),
	}

	convs := BuildConversations(self, msgs, []models.User{old, recent})
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].Peer.ID != recent.ID {
		t.Errorf("most recent conversation should sort first")
	}
}

// Equal last-message timestamps break ties by peer id ascending, so the
// list is deterministic across refreshes.
func TestBuildConversationsTieBreak(t *testing.T) {
	self := uuid.New()
	p1 := models.User{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Username: "p1"}
	p2 := models.User{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Username: "p2"}
	at := time.Now()

	msgs := []models.Message{
		msgAt(2, p2.ID, self, "x", at, false),
		msgAt(1, p1.ID, self, "y", at, false),
	}

	// Peer resolution order must not leak into the output order.
	for _, peers := range [][]models.User{{p1, p2}, {p2, p1}} {
		convs := BuildConversations(self, msgs, peers)
		if convs[0].Peer.ID != p1.ID {
			t.Errorf("tie should break by peer id ascending, got %s first", convs[0].Peer.ID)
		}
	}
}

func TestBuildConversationsIdempotent(t *testing.T) {
	self := uuid.New()
	peer := models.User{ID: uuid.New(), Username: "peer"}
	msgs := []models.Message{
		msgAt(1, peer.ID, self, "hello", time.Now(), false),
	}

	first := BuildConversations(self, msgs, []models.User{peer})
	second := BuildConversations(self, msgs, []models.User{peer})
	if !reflect.DeepEqual(first, second) {
		t.Error("two aggregations over the same log differ")
	}
}

// A peer with no message in the log gets no conversation: conversations
// are discovered from messages, never created independently.
func TestBuildConversationsSkipsSilentPeers(t *testing.T) {
	self := uuid.New()
	active := models.User{ID: uuid.New(), Username: "active"}
	silent := models.User{ID: uuid.New(), Username: "silent"}

	msgs := []models.Message{
		msgAt(1, active.ID, self, "hi", time.Now(), false),
	}

	convs := BuildConversations(self, msgs, []models.User{active, silent})
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if convs[0].Peer.ID != active.ID {
		t.Errorf("unexpected peer %v", convs[0].Peer.ID)
	}
}
