package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebot/internal/model"
	"sitebot/internal/service"
)

// Dialog is the turn loop the HTTP layer drives.
type Dialog interface {
	HandleActivity(ctx context.Context, a model.Activity) (service.TurnOutcome, error)
	CompleteSignIn(ctx context.Context, state, code string) error
}

// MessagesHandler receives channel activities and the sign-in callback.
type MessagesHandler struct {
	dialog Dialog
	logger *slog.Logger
}

func NewMessagesHandler(dialog Dialog, logger *slog.Logger) *MessagesHandler {
	return &MessagesHandler{dialog: dialog, logger: logger}
}

// Post processes one inbound activity.
// POST /api/messages
func (h *MessagesHandler) Post(c *gin.Context) {
	var act model.Activity
	if err := c.ShouldBindJSON(&act); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity: " + err.Error()})
		return
	}
	out, err := h.dialog.HandleActivity(c.Request.Context(), act)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"turn_id": out.TurnID,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, out)
}

// AuthCallback completes a pending sign-in.
// GET /api/auth/callback?state=...&code=...
func (h *MessagesHandler) AuthCallback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		h.logger.Warn("sign-in rejected by identity provider", "error", e, "description", c.Query("error_description"))
		c.String(http.StatusBadRequest, "Sign-in failed: %s", e)
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		c.String(http.StatusBadRequest, "Missing state or code.")
		return
	}
	err := h.dialog.CompleteSignIn(c.Request.Context(), state, code)
	switch {
	case err == nil:
		c.String(http.StatusOK, "You are signed in. You can close this window and return to the conversation.")
	case errors.Is(err, model.ErrAuthStateMismatch), errors.Is(err, model.ErrUnknownConversation):
		c.String(http.StatusBadRequest, "This sign-in link is no longer valid.")
	default:
		_ = c.Error(err)
		c.String(http.StatusBadGateway, "Sign-in could not be completed. Please try again.")
	}
}
