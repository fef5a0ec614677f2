package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RegistryService composes validation, access control, versioning and
// auditing into the catalog operations consumed by the HTTP layer.
type RegistryService struct {
	models  ports.ModelRepository
	history ports.DeploymentHistoryRepository
	access  *AccessControlService
	audit   *AuditService
}

func NewRegistryService(
	models ports.ModelRepository,
	history ports.DeploymentHistoryRepository,
	access *AccessControlService,
	audit *AuditService,
) *RegistryService {
	return &RegistryService{
		models:  models,
		history: history,
		access:  access,
		audit:   audit,
	}
}

type RegisterRequest struct {
	ModelName        string
	Version          string
	Framework        domain.Framework
	ArtifactLocation string
	DeploymentTarget domain.DeploymentTarget
	Metadata         domain.Metadata
}

// Register creates one (modelID, version) record. Uniqueness rides on
// the repository's conditional insert: a concurrent duplicate comes
// back as domain.ErrDuplicateResource, never as a second success.
func (s *RegistryService) Register(ctx context.Context, caller domain.Caller, req RegisterRequest) (*domain.ModelRegistration, error) {
	if err := validateRegisterRequest(caller, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	model := &domain.ModelRegistration{
		ModelID:          domain.Slug(req.ModelName),
		ModelName:        req.ModelName,
		Version:          req.Version,
		Framework:        req.Framework,
		ArtifactLocation: req.ArtifactLocation,
		DeploymentTarget: req.DeploymentTarget,
		Status:           domain.ModelStatusRegistered,
		TeamID:           caller.TeamID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Metadata:         req.Metadata,
	}

	if err := s.models.Create(ctx, model); err != nil {
		if errors.Is(err, domain.ErrDuplicateResource) {
			s.auditModel(ctx, caller, domain.AuditModelRegistered, model, domain.AuditFailure)
		}
		return nil, err
	}

	s.auditModel(ctx, caller, domain.AuditModelRegistered, model, domain.AuditSuccess)
	return model, nil
}

func validateRegisterRequest(caller domain.Caller, req RegisterRequest) error {
	if caller.TeamID == "" {
		return domain.NewValidationError("team_id", "caller team is required")
	}
	if req.ModelName == "" || domain.Slug(req.ModelName) == "" {
		return domain.NewValidationError("model_name", "must contain at least one letter or digit")
	}
	if _, err := domain.ParseVersion(req.Version); err != nil {
		return err
	}
	if !req.Framework.Valid() {
		return domain.NewValidationError("framework", fmt.Sprintf("unknown framework %q", req.Framework))
	}
	if err := domain.ValidateArtifactLocation(req.ArtifactLocation); err != nil {
		return err
	}
	if !req.DeploymentTarget.Valid() {
		return domain.NewValidationError("deployment_target", "must be cluster or serverless")
	}
	return req.Metadata.Validate()
}

func (s *RegistryService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ModelRegistration, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.models.List(ctx, filter)
}

// GetVersions lists a model's version strings in registration order.
func (s *RegistryService) GetVersions(ctx context.Context, modelID string) ([]string, error) {
	records, err := s.models.ListVersions(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	versions := make([]string, len(records))
	for i, r := range records {
		versions[i] = r.Version
	}
	return versions, nil
}

func (s *RegistryService) GetVersion(ctx context.Context, caller domain.Caller, modelID, version string) (*domain.ModelRegistration, error) {
	if err := s.access.RequireAccess(ctx, caller, modelID, version, domain.AccessRead); err != nil {
		return nil, err
	}
	model, err := s.models.Get(ctx, modelID, version)
	if err != nil {
		return nil, err
	}
	return s.repairStatus(ctx, model), nil
}

// GetLatestVersion resolves "latest" by semantic-version order, not by
// registration time.
func (s *RegistryService) GetLatestVersion(ctx context.Context, caller domain.Caller, modelID string) (*domain.ModelRegistration, error) {
	records, err := s.models.ListVersions(ctx, modelID)
	if err != nil {
		return nil, err
	}
	versions := make([]domain.Version, 0, len(records))
	for _, r := range records {
		v, err := domain.ParseVersion(r.Version)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	latest, ok := domain.LatestVersion(versions)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.GetVersion(ctx, caller, modelID, latest.String())
}

// MetadataPatch updates selected fields; nil pointers and nil
// collections leave the stored value untouched.
type MetadataPatch struct {
	Description *string
	Accuracy    *float64
	Features    []string
	Tags        map[string]string
	Status      *domain.ModelStatus
}

func (s *RegistryService) UpdateMetadata(ctx context.Context, caller domain.Caller, modelID, version string, patch MetadataPatch) (*domain.ModelRegistration, error) {
	if err := s.access.RequireAccess(ctx, caller, modelID, version, domain.AccessWrite); err != nil {
		return nil, err
	}

	model, err := s.models.Get(ctx, modelID, version)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		model.Metadata.Description = *patch.Description
	}
	if patch.Accuracy != nil {
		model.Metadata.Accuracy = patch.Accuracy
	}
	if patch.Features != nil {
		model.Metadata.Features = patch.Features
	}
	if patch.Tags != nil {
		model.Metadata.Tags = patch.Tags
	}
	if patch.Status != nil {
		model.Status = *patch.Status
	}
	if err := model.Metadata.Validate(); err != nil {
		return nil, err
	}
	model.UpdatedAt = time.Now().UTC()

	if err := s.models.Update(ctx, model); err != nil {
		return nil, err
	}

	s.auditModel(ctx, caller, domain.AuditModelUpdated, model, domain.AuditSuccess)
	return model, nil
}

// Deregister removes a single version record. Other versions of the
// model are untouched; a second call fails with ErrNotFound.
func (s *RegistryService) Deregister(ctx context.Context, caller domain.Caller, modelID, version string) error {
	if err := s.access.RequireAccess(ctx, caller, modelID, version, domain.AccessWrite); err != nil {
		return err
	}

	if err := s.models.Delete(ctx, modelID, version); err != nil {
		return err
	}

	s.audit.Record(ctx, domain.AuditEvent{
		EventType:   domain.AuditModelDeregistered,
		ActorTeamID: caller.TeamID,
		ActorKeyID:  caller.KeyID,
		Resource:    fmt.Sprintf("%s@%s", modelID, version),
		Action:      "deregister",
		Result:      domain.AuditSuccess,
	})
	return nil
}

// repairStatus reconciles the aggregate status against the newest
// deployment history entry. The status and history writes are not
// atomic, so a crash between them can leave the model record behind;
// history is the source of truth.
func (s *RegistryService) repairStatus(ctx context.Context, model *domain.ModelRegistration) *domain.ModelRegistration {
	records, err := s.history.ListByModelVersion(ctx, model.ModelID, model.Version)
	if err != nil || len(records) == 0 {
		return model
	}
	want := records[len(records)-1].Status.ModelStatus()
	if model.Status == want {
		return model
	}
	if err := s.models.UpdateStatus(ctx, model.ModelID, model.Version, want); err != nil {
		log.WithFields(log.Fields{
			"correlation_id": domain.CorrelationID(ctx),
			"model_id":       model.ModelID,
			"version":        model.Version,
		}).WithError(err).Warn("status read-repair failed")
		return model
	}
	model.Status = want
	return model
}

func (s *RegistryService) auditModel(ctx context.Context, caller domain.Caller, eventType domain.AuditEventType, model *domain.ModelRegistration, result domain.AuditResult) {
	s.audit.Record(ctx, domain.AuditEvent{
		EventType:   eventType,
		ActorTeamID: caller.TeamID,
		ActorKeyID:  caller.KeyID,
		Resource:    fmt.Sprintf("%s@%s", model.ModelID, model.Version),
		Action:      string(eventType),
		Result:      result,
		Details: map[string]string{
			"framework":         string(model.Framework),
			"deployment_target": string(model.DeploymentTarget),
		},
	})
}
