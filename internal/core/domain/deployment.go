package domain

import "time"

type DeploymentStatus string

const (
	DeploymentInitiated DeploymentStatus = "INITIATED"
	DeploymentDeploying DeploymentStatus = "DEPLOYING"
	DeploymentDeployed  DeploymentStatus = "DEPLOYED"
	DeploymentFailed    DeploymentStatus = "FAILED"
	DeploymentCancelled DeploymentStatus = "CANCELLED"
)

// deploymentTransitions is the full state table. Anything not listed is
// illegal; DEPLOYED, FAILED and CANCELLED have no outgoing edges.
var deploymentTransitions = map[DeploymentStatus][]DeploymentStatus{
	DeploymentInitiated: {DeploymentDeploying, DeploymentCancelled},
	DeploymentDeploying: {DeploymentDeployed, DeploymentFailed, DeploymentCancelled},
}

func (s DeploymentStatus) Valid() bool {
	switch s {
	case DeploymentInitiated, DeploymentDeploying, DeploymentDeployed,
		DeploymentFailed, DeploymentCancelled:
		return true
	}
	return false
}

func (s DeploymentStatus) Terminal() bool {
	return len(deploymentTransitions[s]) == 0 && s.Valid()
}

func (s DeploymentStatus) CanTransitionTo(next DeploymentStatus) bool {
	for _, allowed := range deploymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ModelStatus returns the aggregate model status mirroring a deployment
// status, used to keep the model record's outward-visible state in step
// with the latest history entry.
func (s DeploymentStatus) ModelStatus() ModelStatus {
	switch s {
	case DeploymentInitiated, DeploymentDeploying:
		return ModelStatusDeploying
	case DeploymentDeployed:
		return ModelStatusDeployed
	case DeploymentFailed:
		return ModelStatusFailed
	case DeploymentCancelled:
		return ModelStatusCancelled
	}
	return ModelStatusRegistered
}

// DeploymentRecord is one append-only history entry. Records are never
// rewritten: each transition appends a new record with a later
// timestamp.
type DeploymentRecord struct {
	DeploymentID     string            `json:"deployment_id"`
	ModelID          string            `json:"model_id"`
	Version          string            `json:"version"`
	DeploymentTarget DeploymentTarget  `json:"deployment_target"`
	TeamID           string            `json:"team_id"`
	Status           DeploymentStatus  `json:"status"`
	Timestamp        time.Time         `json:"timestamp"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// HistorySelector picks deployment history either by deployment ID or
// by (model, version); exactly one side must be set.
type HistorySelector struct {
	DeploymentID string
	ModelID      string
	Version      string
}

func (s HistorySelector) Validate() error {
	byDeployment := s.DeploymentID != ""
	byModel := s.ModelID != "" && s.Version != ""
	if byDeployment == byModel {
		return ErrInvalidQuery
	}
	if s.ModelID != "" && s.Version == "" || s.ModelID == "" && s.Version != "" {
		return ErrInvalidQuery
	}
	return nil
}

// DeploymentNotification is the outbound message to the deployment
// pipeline. Delivery is at-least-once; the pipeline reports progress
// back through the status-update callback keyed by DeploymentID.
type DeploymentNotification struct {
	ModelID          string           `json:"model_id"`
	Version          string           `json:"version"`
	DeploymentTarget DeploymentTarget `json:"deployment_target"`
	ArtifactLocation string           `json:"artifact_location"`
	Framework        Framework        `json:"framework"`
	TeamID           string           `json:"team_id"`
	DeploymentID     string           `json:"deployment_id"`
}
