package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapechat/models"
	"github.com/use-agent/scrapechat/output"
)

// Download returns a handler for GET /api/v1/download/:filename.
//
// Only bare filenames inside the output directory are served; the writer
// rejects anything path-like.
func Download(w *output.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename := c.Param("filename")
		path, err := w.Path(filename)
		if err != nil {
			c.JSON(http.StatusNotFound, models.ChatResponse{
				Kind: models.KindError,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "file not found",
				},
			})
			return
		}
		c.FileAttachment(path, filename)
	}
}
