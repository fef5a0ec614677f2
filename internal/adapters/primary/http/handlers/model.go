package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"model-catalog-service/internal/adapters/primary/http/dto"
	"model-catalog-service/internal/adapters/primary/http/middleware"
	"model-catalog-service/internal/core/domain"
	"model-catalog-service/internal/core/services"
)

func (h *Handler) RegisterModel(c *gin.Context) {
	var req dto.RegisterModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model, err := h.registrySvc.Register(c.Request.Context(), middleware.CallerFrom(c), services.RegisterRequest{
		ModelName:        req.ModelName,
		Version:          req.Version,
		Framework:        domain.Framework(req.Framework),
		ArtifactLocation: req.ArtifactLocation,
		DeploymentTarget: domain.DeploymentTarget(req.DeploymentTarget),
		Metadata: domain.Metadata{
			Description: req.Description,
			Accuracy:    req.Accuracy,
			Features:    req.Features,
			Tags:        req.Tags,
		},
	})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterModelResponse{
		ModelID:      model.ModelID,
		Version:      model.Version,
		RegisteredAt: model.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) ListModels(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset := 0
	if token := c.Query("next_token"); token != "" {
		parsed, err := strconv.Atoi(token)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid next_token"})
			return
		}
		offset = parsed
	}

	filter := domain.ListFilter{
		TeamID:           c.Query("team_id"),
		DeploymentTarget: domain.DeploymentTarget(c.Query("deployment_target")),
		Framework:        domain.Framework(c.Query("framework")),
		Status:           domain.ModelStatus(c.Query("status")),
		NamePattern:      c.Query("name"),
		Limit:            limit,
		Offset:           offset,
	}

	models, total, err := h.registrySvc.List(c.Request.Context(), filter)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	resp := dto.ListModelsResponse{
		Items:      make([]dto.ModelResponse, 0, len(models)),
		TotalCount: total,
		NextToken:  dto.NextToken(offset, len(models), total),
	}
	for _, m := range models {
		resp.Items = append(resp.Items, dto.FromModel(m))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetModelVersions(c *gin.Context) {
	modelID := c.Param("id")

	versions, err := h.registrySvc.GetVersions(c.Request.Context(), modelID)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.VersionListResponse{ModelID: modelID, Versions: versions})
}

func (h *Handler) GetModelVersion(c *gin.Context) {
	model, err := h.registrySvc.GetVersion(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), c.Param("ver"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModel(model))
}

func (h *Handler) GetLatestModelVersion(c *gin.Context) {
	model, err := h.registrySvc.GetLatestVersion(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModel(model))
}

func (h *Handler) UpdateModelMetadata(c *gin.Context) {
	var req dto.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := services.MetadataPatch{
		Description: req.Description,
		Accuracy:    req.Accuracy,
		Features:    req.Features,
		Tags:        req.Tags,
	}
	if req.Status != nil {
		status := domain.ModelStatus(*req.Status)
		patch.Status = &status
	}

	model, err := h.registrySvc.UpdateMetadata(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), c.Param("ver"), patch)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModel(model))
}

func (h *Handler) DeregisterModel(c *gin.Context) {
	err := h.registrySvc.Deregister(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), c.Param("ver"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
