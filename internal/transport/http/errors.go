package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"quizflow-service/internal/app"
	"quizflow-service/internal/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrNoActiveVersion):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVersionPublished),
		errors.Is(err, domain.ErrVersionNotPublished),
		errors.Is(err, domain.ErrDuplicateNodeKey),
		errors.Is(err, domain.ErrRunCompleted),
		errors.Is(err, domain.ErrRunDeadEnd):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrEmptyQuiz):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidVersion),
		errors.Is(err, domain.ErrInvalidNode),
		errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrInvalidCondition),
		errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err with the status its sentinel maps to. Validation
// failures carry the full validator output.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		body["validation"] = verr.Result
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		body["error"] = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
