package ports

import (
	"context"

	"model-catalog-service/internal/core/domain"
)

// PipelinePublisher delivers deployment notifications to the external
// pipeline. Delivery is at-least-once; the pipeline deduplicates by
// deployment ID.
type PipelinePublisher interface {
	PublishDeploymentRequested(ctx context.Context, n domain.DeploymentNotification) error
	PublishDeploymentCancelled(ctx context.Context, deploymentID, reason string) error
}
