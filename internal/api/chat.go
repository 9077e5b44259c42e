package api

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/chat"
	"github.com/driftchat/drift/internal/middleware"
)

// ChatHandler exposes the engine's REST surface: conversation list,
// transcript open, send, and user search.
type ChatHandler struct {
	svc    *chat.Service
	logger *zap.Logger
}

func NewChatHandler(svc *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

// ListConversations handles GET /v1/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	selfID := middleware.GetUserID(c)

	convs, err := h.svc.Conversations(c.Request.Context(), selfID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// OpenConversation handles GET /v1/conversations/:peer/messages
//
// Opening a conversation is the select operation: the peer's unread
// messages are marked read first, then the full transcript is returned.
// Both run unconditionally: a conversation with zero unread still gets
// the (no-op) mark-read, and the transcript never filters on the read
// bit, so the order of completion cannot change its contents.
func (h *ChatHandler) OpenConversation(c *gin.Context) {
	selfID := middleware.GetUserID(c)
	peerID, err := uuid.Parse(c.Param("peer"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer ID"})
		return
	}

	if _, err := h.svc.MarkRead(c.Request.Context(), peerID, selfID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	msgs, err := h.svc.Transcript(c.Request.Context(), selfID, peerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage handles POST /v1/messages
//
// Accepts either a JSON body {receiver_id, content} or a multipart form
// with fields receiver_id, content, and file. The multipart path is how
// attachments arrive; the descriptor for validation comes from the part
// header, the bytes are streamed to blob storage.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	selfID := middleware.GetUserID(c)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.sendMultipart(c, selfID)
		return
	}

	var req struct {
		ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
		Content    string    `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), selfID, req.ReceiverID, req.Content, nil, nil)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) sendMultipart(c *gin.Context, selfID uuid.UUID) {
	peerID, err := uuid.Parse(c.PostForm("receiver_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receiver ID"})
		return
	}
	content := c.PostForm("content")

	var att *chat.Attachment
	var data multipart.File
	header, err := c.FormFile("file")
	if err == nil {
		f, err := header.Open()
		if err != nil {
			h.logger.Error("failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer f.Close()
		data = f
		att = &chat.Attachment{
			Name: header.Filename,
			Type: header.Header.Get("Content-Type"),
			Size: header.Size,
		}
	}

	msg, err := h.svc.Send(c.Request.Context(), selfID, peerID, content, att, data)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SearchUsers handles GET /v1/users/search?q=alice
func (h *ChatHandler) SearchUsers(c *gin.Context) {
	selfID := middleware.GetUserID(c)

	users, err := h.svc.SearchUsers(c.Request.Context(), selfID, c.Query("q"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewUsers(users))
}
