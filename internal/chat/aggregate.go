package chat

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/driftchat/drift/internal/models"
)

// PeerIDs extracts the distinct other-party ids from a user's message
// log, in first-seen order.
func PeerIDs(selfID uuid.UUID, msgs []models.Message) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for i := range msgs {
		peer := msgs[i].Peer(selfID)
		if peer == selfID {
			continue
		}
		if _, ok := seen[peer]; !ok {
			seen[peer] = struct{}{}
			ids = append(ids, peer)
		}
	}
	return ids
}

// BuildConversations derives one conversation per peer from the user's
// full message log and the resolved peer records.
//
// msgs must be ordered newest first (the ListForUser contract), so the
// first message involving a peer is that conversation's last message.
// Unread is the count of unread messages from the peer to self. Peers
// with no message in msgs are dropped: a conversation only exists once
// traffic exists.
//
// Output ordering: last message time descending; equal timestamps break
// ties by peer id ascending so repeated refreshes are byte-identical.
func BuildConversations(selfID uuid.UUID, msgs []models.Message, peers []models.User) []models.Conversation {
	convs := make([]models.Conversation, 0, len(peers))
	for _, peer := range peers {
		var last *models.Message
		unread := 0
		for i := range msgs {
			m := &msgs[i]
			if m.Peer(selfID) != peer.ID {
				continue
			}
			if last == nil {
				last = m
			}
			if m.SenderID == peer.ID && m.ReceiverID == selfID && !m.Read {
				unread++
			}
		}
		if last == nil {
			continue
		}
		convs = append(convs, models.Conversation{
			Peer:        peer,
			LastMessage: last,
			Unread:      unread,
		})
	}

	sort.SliceStable(convs, func(i, j int) bool {
		a, b := convs[i].LastMessage, convs[j].LastMessage
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return strings.Compare(convs[i].Peer.ID.String(), convs[j].Peer.ID.String()) < 0
	})

	return convs
}
