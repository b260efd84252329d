package response

import (
	"net/http"

	apperrors "schoolhub/pkg/errors"
	"schoolhub/pkg/logger"
	"schoolhub/pkg/pagination"

	"github.com/gin-gonic/gin"
)

const genericFailure = "Something went wrong. Contact Administrator."

// Envelope is the body shape of every response, success or failure.
type Envelope struct {
	IsSuccessful bool        `json:"isSuccessful"`
	Messages     []string    `json:"messages"`
	Data         interface{} `json:"data,omitempty"`
}

// Page is the data payload of paginated lists.
type Page struct {
	Items    interface{}     `json:"items"`
	PageInfo pagination.Info `json:"pageInfo"`
}

// ========== success ==========

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		IsSuccessful: true,
		Messages:     []string{},
		Data:         data,
	})
}

// SuccessWithMessage writes 200 with data and one message.
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		IsSuccessful: true,
		Messages:     []string{message},
		Data:         data,
	})
}

// SuccessWithPage writes 200 with items and page info.
func SuccessWithPage(c *gin.Context, items interface{}, info pagination.Info) {
	Success(c, Page{Items: items, PageInfo: info})
}

// ========== failure ==========

// Fail writes err as a failure envelope. AppErrors keep their status and
// messages; anything else is logged and reported as a 500.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		c.JSON(appErr.StatusCode(), Envelope{
			IsSuccessful: false,
			Messages:     appErr.Messages,
		})
		return
	}
	logger.GetLogger().WithError(err).
		WithField("path", c.FullPath()).
		Error("unhandled error")
	ServerError(c, genericFailure)
}

// Error writes a failure envelope with an explicit status.
func Error(c *gin.Context, status int, messages ...string) {
	c.JSON(status, Envelope{
		IsSuccessful: false,
		Messages:     messages,
	})
}

// BadRequest writes 400 with messages.
func BadRequest(c *gin.Context, messages ...string) {
	Error(c, apperrors.CodeInvalidParam, messages...)
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	Error(c, apperrors.CodeUnauthorized, message)
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	Error(c, apperrors.CodeForbidden, message)
}

// NotFound writes 404.
func NotFound(c *gin.Context, message string) {
	Error(c, apperrors.CodeNotFound, message)
}

// TooManyRequests writes 429.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message)
}

// ServerError writes 500.
func ServerError(c *gin.Context, message string) {
	Error(c, apperrors.CodeServerError, message)
}
