package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/chat"
	"github.com/driftchat/drift/internal/models"
)

// userView is a user plus the derived online flag. Presence is computed
// at response time from last_seen, never stored.
type userView struct {
	models.User
	Online bool `json:"online"`
}

func viewUser(u models.User) userView {
	return userView{User: u, Online: u.Online(time.Now())}
}

func viewUsers(users []models.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	return out
}

// writeError maps the engine's error taxonomy onto status codes. Only
// backend failures get logged at error level; the rest are caller
// mistakes.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation *chat.ValidationError
		authz      *chat.AuthorizationError
		notFound   *chat.NotFoundError
		storage    *chat.StorageError
		persist    *chat.PersistError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason, "field": validation.Field})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &storage):
		logger.Error("blob storage failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "file upload failed"})
	case errors.As(err, &persist):
		logger.Error("message persist failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message could not be saved"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
