package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapechat/chat"
	"github.com/use-agent/scrapechat/models"
)

// Chat returns a handler for POST /api/v1/chat.
//
// Scrape-level failures (invalid URL, unsupported site, failed run) come back
// as 200 with type "error" so the chat UI renders them inline; only transport
// and infrastructure problems map to non-2xx statuses.
func Chat(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ChatResponse{
				Kind: models.KindError,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid request: " + err.Error(),
				},
			})
			return
		}

		resp := svc.HandleMessage(c.Request.Context(), c.GetString("user_id"), req)
		c.JSON(statusFor(resp), resp)
	}
}

func statusFor(resp models.ChatResponse) int {
	if resp.Kind != models.KindError || resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodePersistence, models.ErrCodeInternal:
		return http.StatusInternalServerError
	case models.ErrCodeLLMFailure:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
