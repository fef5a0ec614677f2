package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"model-catalog-service/internal/core/domain"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	headerTeamID        = "X-Team-ID"
	headerKeyID         = "X-Key-ID"
	headerCapabilities  = "X-Capabilities"

	callerKey = "caller"
)

// CorrelationID threads one opaque token through logs, audit events and
// error responses, generating it when the routing layer sent none.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerCorrelationID)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set("correlation_id", id)
		c.Header(headerCorrelationID, id)
		c.Request = c.Request.WithContext(domain.WithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

// Caller lifts the routing layer's pre-authenticated identity headers
// into a domain.Caller.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := domain.Caller{
			TeamID: c.GetHeader(headerTeamID),
			KeyID:  c.GetHeader(headerKeyID),
		}
		if raw := c.GetHeader(headerCapabilities); raw != "" {
			for _, capability := range strings.Split(raw, ",") {
				if capability = strings.TrimSpace(capability); capability != "" {
					caller.Capabilities = append(caller.Capabilities, capability)
				}
			}
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller attached by the Caller middleware.
func CallerFrom(c *gin.Context) domain.Caller {
	caller, _ := c.Get(callerKey)
	if caller == nil {
		return domain.Caller{}
	}
	return caller.(domain.Caller)
}
