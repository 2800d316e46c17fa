package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/scrapechat/models"
	"github.com/use-agent/scrapechat/store"
)

type createSessionRequest struct {
	Message string `json:"message"`
}

type renameSessionRequest struct {
	SessionName string `json:"session_name" binding:"required"`
}

// CreateSession returns a handler for POST /api/v1/sessions.
func CreateSession(st *store.Postgres) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		// Body is optional; an empty one creates an untitled session.
		_ = c.ShouldBindJSON(&req)

		session, err := st.CreateSession(c.Request.Context(), c.GetString("user_id"), req.Message)
		if err != nil {
			persistenceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

// ListSessions returns a handler for GET /api/v1/sessions.
func ListSessions(st *store.Postgres) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := st.Sessions(c.Request.Context(), c.GetString("user_id"))
		if err != nil {
			persistenceError(c, err)
			return
		}
		if sessions == nil {
			sessions = []models.Session{}
		}
		c.JSON(http.StatusOK, sessions)
	}
}

// SessionHistory returns a handler for GET /api/v1/sessions/:id/history.
func SessionHistory(st *store.Postgres) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := sessionIDParam(c)
		if !ok {
			return
		}
		history, err := st.History(c.Request.Context(), sessionID, c.GetString("user_id"))
		if err != nil {
			persistenceError(c, err)
			return
		}
		if history == nil {
			history = []models.ChatMessage{}
		}
		c.JSON(http.StatusOK, history)
	}
}

// RenameSession returns a handler for PUT /api/v1/sessions/:id.
func RenameSession(st *store.Postgres) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := sessionIDParam(c)
		if !ok {
			return
		}
		var req renameSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(models.ErrCodeInvalidInput, "session_name is required"))
			return
		}
		err := st.RenameSession(c.Request.Context(), sessionID, c.GetString("user_id"), req.SessionName)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody(models.ErrCodeInvalidInput, "session not found"))
			return
		}
		if err != nil {
			persistenceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DeleteSession returns a handler for DELETE /api/v1/sessions/:id.
func DeleteSession(st *store.Postgres) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := sessionIDParam(c)
		if !ok {
			return
		}
		err := st.DeleteSession(c.Request.Context(), sessionID, c.GetString("user_id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody(models.ErrCodeInvalidInput, "session not found"))
			return
		}
		if err != nil {
			persistenceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func sessionIDParam(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(models.ErrCodeInvalidInput, "invalid session id"))
		return uuid.Nil, false
	}
	return sessionID, true
}

func persistenceError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorBody(models.ErrCodePersistence, "storage operation failed"))
}

func errorBody(code, message string) models.ChatResponse {
	return models.ChatResponse{
		Kind:  models.KindError,
		Error: &models.ErrorDetail{Code: code, Message: message},
	}
}
