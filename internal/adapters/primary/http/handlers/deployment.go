package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"model-catalog-service/internal/adapters/primary/http/dto"
	"model-catalog-service/internal/adapters/primary/http/middleware"
	"model-catalog-service/internal/core/domain"
)

func (h *Handler) TriggerDeployment(c *gin.Context) {
	record, err := h.deploymentSvc.Trigger(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), c.Param("ver"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.TriggerDeploymentResponse{
		DeploymentID: record.DeploymentID,
		Status:       string(record.Status),
	})
}

// UpdateDeploymentStatus is the pipeline's callback endpoint.
func (h *Handler) UpdateDeploymentStatus(c *gin.Context) {
	var req dto.UpdateDeploymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.deploymentSvc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.DeploymentStatus(req.Status), req.Metadata)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDeploymentRecord(record))
}

func (h *Handler) CancelDeployment(c *gin.Context) {
	var req dto.CancelDeploymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	record, err := h.deploymentSvc.Cancel(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDeploymentRecord(record))
}

func (h *Handler) GetDeploymentHistory(c *gin.Context) {
	selector := domain.HistorySelector{
		DeploymentID: c.Query("deployment_id"),
		ModelID:      c.Query("model_id"),
		Version:      c.Query("version"),
	}

	records, err := h.deploymentSvc.History(c.Request.Context(), selector)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDeploymentRecords(records))
}
