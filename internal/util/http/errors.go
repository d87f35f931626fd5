package http_utils

import (
	"errors"
	"net/http"

	"kanban/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RespondWithError writes {"error": message} with the status of err's kind.
// Unclassified failures use fallback so internals stay out of responses.
func RespondWithError(ctx *gin.Context, err error, fallback string) {
	status := apperrors.HTTPStatus(err)

	message := apperrors.Message(err)
	if status == http.StatusInternalServerError && !errors.Is(err, apperrors.ErrUnavailable) {
		message = fallback
	}

	ctx.JSON(status, gin.H{"error": message})
}

// ParseIDParam reads a uuid path parameter and answers 400 when it is
// malformed.
func ParseIDParam(ctx *gin.Context, name string, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return uuid.Nil, false
	}

	return id, true
}
