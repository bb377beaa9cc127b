package handlers

import (
	"errors"
	"net/http"

	"raffle/internal/history"
	"raffle/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

var errHistoryDisabled = errors.New("history is not available")

// respondError maps service errors to a status code and a JSON body the page
// can show as a toast. User mistakes are warnings; state conflicts are errors.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  ve.Error(),
			"reason": ve.Reason,
			"level":  "warning",
		})
	case errors.Is(err, services.ErrParseEmptyResult),
		errors.Is(err, services.ErrDuplicateParticipant),
		errors.Is(err, services.ErrInvalidHandle):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "level": "warning"})
	case errors.Is(err, services.ErrMutationLocked),
		errors.Is(err, services.ErrDrawInProgress),
		errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "level": "error"})
	case errors.Is(err, services.ErrParticipantNotFound),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, errHistoryDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "level": "error"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "level": "error"})
	}
}
