package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-catalog-service/internal/core/domain"
)

// mapDomainError translates the error taxonomy to HTTP. Unanticipated
// errors log in full and answer with a generic body; internals never
// echo to the caller.
func mapDomainError(c *gin.Context, err error) {
	correlationID := c.GetString("correlation_id")

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          validationErr.Error(),
			"field":          validationErr.Field,
			"correlation_id": correlationID,
		})

	case errors.Is(err, domain.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "correlation_id": correlationID})

	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error(), "correlation_id": correlationID})

	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrNotFound.Error(), "correlation_id": correlationID})

	case errors.Is(err, domain.ErrDuplicateResource):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrDuplicateResource.Error(), "correlation_id": correlationID})

	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "correlation_id": correlationID})

	case errors.Is(err, domain.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.ErrExternalService.Error(), "correlation_id": correlationID})

	default:
		log.WithField("correlation_id", correlationID).WithError(err).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "correlation_id": correlationID})
	}
}
