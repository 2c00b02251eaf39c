package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
)

// MultipartOverhead is the room left for boundaries, part headers and small
// form fields around an uploaded file
const MultipartOverhead int64 = 1 << 20

// BodyLimit rejects requests whose declared length exceeds maxBytes and caps
// streamed bodies at the same size. multipart/form-data requests are held to
// maxUpload plus MultipartOverhead instead, so file uploads are bounded by the
// upload limit rather than the JSON one. A limit <= 0 disables the check.
func BodyLimit(maxBytes, maxUpload int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if maxUpload > 0 && isMultipart(c.Request) {
			limit = maxUpload + MultipartOverhead
		}
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			abort(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
