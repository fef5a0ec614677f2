package ports

import (
	"context"

	"model-catalog-service/internal/core/domain"
)

// ModelRepository persists registrations. Create is a conditional
// single-key write: it must fail with domain.ErrDuplicateResource on an
// existing (model_id, version) rather than overwrite. That conditional
// write is the only uniqueness mechanism in the system.
type ModelRepository interface {
	Create(ctx context.Context, model *domain.ModelRegistration) error
	Get(ctx context.Context, modelID, version string) (*domain.ModelRegistration, error)
	ListVersions(ctx context.Context, modelID string) ([]*domain.ModelRegistration, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.ModelRegistration, int, error)
	Update(ctx context.Context, model *domain.ModelRegistration) error
	UpdateStatus(ctx context.Context, modelID, version string, status domain.ModelStatus) error
	Delete(ctx context.Context, modelID, version string) error
}

type AccessPolicyRepository interface {
	Put(ctx context.Context, policy *domain.AccessPolicy) error
	Get(ctx context.Context, modelID, version string) (*domain.AccessPolicy, error)
}

type TeamPermissionsRepository interface {
	Put(ctx context.Context, perms *domain.TeamPermissions) error
	Get(ctx context.Context, teamID string) (*domain.TeamPermissions, error)
}

// DeploymentHistoryRepository is append-only: records are inserted,
// never updated or deleted. Listing returns oldest-first.
type DeploymentHistoryRepository interface {
	Append(ctx context.Context, record *domain.DeploymentRecord) error
	Latest(ctx context.Context, deploymentID string) (*domain.DeploymentRecord, error)
	ListByDeployment(ctx context.Context, deploymentID string) ([]*domain.DeploymentRecord, error)
	ListByModelVersion(ctx context.Context, modelID, version string) ([]*domain.DeploymentRecord, error)
}

type AuditEventRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}
