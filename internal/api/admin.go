package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/chat"
	"github.com/driftchat/drift/internal/middleware"
	"github.com/driftchat/drift/internal/models"
)

// AdminHandler exposes the admin-gated user operations. Authorization
// is decided in the service from the caller's claims, so a non-admin
// gets a 403 with the target untouched.
type AdminHandler struct {
	svc    *chat.Service
	logger *zap.Logger
}

func NewAdminHandler(svc *chat.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

func actorFrom(c *gin.Context) models.User {
	return models.User{
		ID:       middleware.GetUserID(c),
		Username: middleware.GetUsername(c),
		IsAdmin:  middleware.IsAdmin(c),
	}
}

// DeleteUser handles DELETE /v1/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), actorFrom(c), targetID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleAdmin handles POST /v1/users/:id/admin
func (h *AdminHandler) ToggleAdmin(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	user, err := h.svc.ToggleAdmin(c.Request.Context(), actorFrom(c), targetID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewUser(*user))
}
