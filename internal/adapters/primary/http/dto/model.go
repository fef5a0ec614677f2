package dto

import (
	"strconv"

	"model-catalog-service/internal/core/domain"
)

type RegisterModelRequest struct {
	ModelName        string            `json:"model_name" binding:"required"`
	Version          string            `json:"version" binding:"required"`
	Framework        string            `json:"framework" binding:"required"`
	ArtifactLocation string            `json:"artifact_location" binding:"required"`
	DeploymentTarget string            `json:"deployment_target" binding:"required"`
	Description      string            `json:"description"`
	Accuracy         *float64          `json:"accuracy"`
	Features         []string          `json:"features"`
	Tags             map[string]string `json:"tags"`
}

type RegisterModelResponse struct {
	ModelID      string `json:"model_id"`
	Version      string `json:"version"`
	RegisteredAt string `json:"registered_at"`
}

type UpdateMetadataRequest struct {
	Description *string           `json:"description"`
	Accuracy    *float64          `json:"accuracy"`
	Features    []string          `json:"features"`
	Tags        map[string]string `json:"tags"`
	Status      *string           `json:"status"`
}

type ModelResponse struct {
	ModelID          string            `json:"model_id"`
	ModelName        string            `json:"model_name"`
	Version          string            `json:"version"`
	Framework        string            `json:"framework"`
	ArtifactLocation string            `json:"artifact_location"`
	DeploymentTarget string            `json:"deployment_target"`
	Status           string            `json:"status"`
	TeamID           string            `json:"team_id"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
	Description      string            `json:"description,omitempty"`
	Accuracy         *float64          `json:"accuracy,omitempty"`
	Features         []string          `json:"features,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

type ListModelsResponse struct {
	Items      []ModelResponse `json:"items"`
	TotalCount int             `json:"total_count"`
	NextToken  string          `json:"next_token,omitempty"`
}

type VersionListResponse struct {
	ModelID  string   `json:"model_id"`
	Versions []string `json:"versions"`
}

func FromModel(m *domain.ModelRegistration) ModelResponse {
	return ModelResponse{
		ModelID:          m.ModelID,
		ModelName:        m.ModelName,
		Version:          m.Version,
		Framework:        string(m.Framework),
		ArtifactLocation: m.ArtifactLocation,
		DeploymentTarget: string(m.DeploymentTarget),
		Status:           string(m.Status),
		TeamID:           m.TeamID,
		CreatedAt:        m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        m.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Description:      m.Metadata.Description,
		Accuracy:         m.Metadata.Accuracy,
		Features:         m.Metadata.Features,
		Tags:             m.Metadata.Tags,
	}
}

// NextToken encodes the follow-up offset as an opaque pagination
// token; empty means no further page.
func NextToken(offset, limit, total int) string {
	next := offset + limit
	if next >= total {
		return ""
	}
	return strconv.Itoa(next)
}
