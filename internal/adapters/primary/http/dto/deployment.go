package dto

import (
	"model-catalog-service/internal/core/domain"
)

type TriggerDeploymentResponse struct {
	DeploymentID string `json:"deployment_id"`
	Status       string `json:"status"`
}

type UpdateDeploymentStatusRequest struct {
	Status   string            `json:"status" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

type CancelDeploymentRequest struct {
	Reason string `json:"reason"`
}

type DeploymentRecordResponse struct {
	DeploymentID     string            `json:"deployment_id"`
	ModelID          string            `json:"model_id"`
	Version          string            `json:"version"`
	DeploymentTarget string            `json:"deployment_target"`
	TeamID           string            `json:"team_id"`
	Status           string            `json:"status"`
	Timestamp        string            `json:"timestamp"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type DeploymentHistoryResponse struct {
	Records []DeploymentRecordResponse `json:"records"`
}

func FromDeploymentRecord(r *domain.DeploymentRecord) DeploymentRecordResponse {
	return DeploymentRecordResponse{
		DeploymentID:     r.DeploymentID,
		ModelID:          r.ModelID,
		Version:          r.Version,
		DeploymentTarget: string(r.DeploymentTarget),
		TeamID:           r.TeamID,
		Status:           string(r.Status),
		Timestamp:        r.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Metadata:         r.Metadata,
	}
}

func FromDeploymentRecords(records []*domain.DeploymentRecord) DeploymentHistoryResponse {
	out := DeploymentHistoryResponse{Records: make([]DeploymentRecordResponse, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, FromDeploymentRecord(r))
	}
	return out
}
