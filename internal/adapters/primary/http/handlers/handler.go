package handlers

import (
	"github.com/gin-gonic/gin"

	"model-catalog-service/internal/core/services"
)

type Handler struct {
	registrySvc   *services.RegistryService
	deploymentSvc *services.DeploymentService
}

func New(registrySvc *services.RegistryService, deploymentSvc *services.DeploymentService) *Handler {
	return &Handler{
		registrySvc:   registrySvc,
		deploymentSvc: deploymentSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Models
	r.POST("/models", h.RegisterModel)
	r.GET("/models", h.ListModels)
	r.GET("/models/:id/versions", h.GetModelVersions)
	r.GET("/models/:id/versions/:ver", h.GetModelVersion)
	r.GET("/models/:id/latest", h.GetLatestModelVersion)
	r.PATCH("/models/:id/versions/:ver", h.UpdateModelMetadata)
	r.DELETE("/models/:id/versions/:ver", h.DeregisterModel)

	// Deployments
	r.POST("/models/:id/versions/:ver/deployments", h.TriggerDeployment)
	r.PATCH("/deployments/:id", h.UpdateDeploymentStatus)
	r.POST("/deployments/:id/cancel", h.CancelDeployment)
	r.GET("/deployments", h.GetDeploymentHistory)
}
