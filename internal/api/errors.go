package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
)

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrSymbolNotFound),
		apperrors.Is(err, apperrors.ErrOrderNotFound),
		apperrors.Is(err, apperrors.ErrWorkflowNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrInvalidOrder),
		apperrors.Is(err, apperrors.ErrInvalidWorkflow):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrOrderTerminal),
		apperrors.Is(err, apperrors.ErrMarketClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func notFound(c *gin.Context, what, id string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found: " + id})
}
