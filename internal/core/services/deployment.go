package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

// DeploymentService drives a model version through the deployment
// state machine. Every transition appends an immutable history record
// and mirrors the new state onto the model record. The two writes are
// not transactional; history is authoritative and the registry repairs
// the model record on read.
type DeploymentService struct {
	models    ports.ModelRepository
	history   ports.DeploymentHistoryRepository
	access    *AccessControlService
	audit     *AuditService
	publisher ports.PipelinePublisher
}

func NewDeploymentService(
	models ports.ModelRepository,
	history ports.DeploymentHistoryRepository,
	access *AccessControlService,
	audit *AuditService,
	publisher ports.PipelinePublisher,
) *DeploymentService {
	return &DeploymentService{
		models:    models,
		history:   history,
		access:    access,
		audit:     audit,
		publisher: publisher,
	}
}

// Trigger starts a deployment: INITIATED history record, model status
// DEPLOYING, then a deployment-requested notification. A publish
// failure surfaces as ErrExternalService; the persisted INITIATED
// record stands and can still be cancelled or driven forward by a
// pipeline callback. A fresh Trigger call mints a new deployment ID.
func (s *DeploymentService) Trigger(ctx context.Context, caller domain.Caller, modelID, version string) (*domain.DeploymentRecord, error) {
	if err := s.access.RequireAccess(ctx, caller, modelID, version, domain.AccessWrite); err != nil {
		return nil, err
	}

	model, err := s.models.Get(ctx, modelID, version)
	if err != nil {
		return nil, err
	}

	record := &domain.DeploymentRecord{
		DeploymentID:     newDeploymentID(modelID, version),
		ModelID:          modelID,
		Version:          version,
		DeploymentTarget: model.DeploymentTarget,
		TeamID:           model.TeamID,
		Status:           domain.DeploymentInitiated,
		Timestamp:        time.Now().UTC(),
	}

	if err := s.models.UpdateStatus(ctx, modelID, version, domain.ModelStatusDeploying); err != nil {
		return nil, fmt.Errorf("update model status: %w", err)
	}
	if err := s.history.Append(ctx, record); err != nil {
		// The model record now says DEPLOYING with no history behind
		// it. The store has no cross-key transactions, so leave the
		// partial write for read-repair and make it visible.
		s.audit.Record(ctx, domain.AuditEvent{
			EventType:   domain.AuditPartialWriteRepair,
			ActorTeamID: caller.TeamID,
			ActorKeyID:  caller.KeyID,
			Resource:    fmt.Sprintf("%s@%s", modelID, version),
			Action:      "trigger",
			Result:      domain.AuditFailure,
			Details:     map[string]string{"deployment_id": record.DeploymentID},
		})
		return nil, fmt.Errorf("append deployment history: %w", err)
	}

	if err := s.publisher.PublishDeploymentRequested(ctx, domain.DeploymentNotification{
		ModelID:          modelID,
		Version:          version,
		DeploymentTarget: model.DeploymentTarget,
		ArtifactLocation: model.ArtifactLocation,
		Framework:        model.Framework,
		TeamID:           model.TeamID,
		DeploymentID:     record.DeploymentID,
	}); err != nil {
		log.WithFields(log.Fields{
			"correlation_id": domain.CorrelationID(ctx),
			"deployment_id":  record.DeploymentID,
		}).WithError(err).Error("deployment notification publish failed")
		// The INITIATED record is already persisted, so the mutation
		// still gets a trail entry even though the trigger failed.
		s.auditDeployment(ctx, caller, domain.AuditDeploymentTrigger, record, domain.AuditFailure, "")
		return nil, fmt.Errorf("publish deployment request: %w", domain.ErrExternalService)
	}

	s.auditDeployment(ctx, caller, domain.AuditDeploymentTrigger, record, domain.AuditSuccess, "")
	return record, nil
}

// UpdateStatus is the pipeline's callback path. It appends a record for
// the requested transition after validating it against the state table.
func (s *DeploymentService) UpdateStatus(ctx context.Context, deploymentID string, status domain.DeploymentStatus, metadata map[string]string) (*domain.DeploymentRecord, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown deployment status %q", status))
	}

	latest, err := s.history.Latest(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if !latest.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%s -> %s: %w", latest.Status, status, domain.ErrInvalidTransition)
	}

	record := &domain.DeploymentRecord{
		DeploymentID:     latest.DeploymentID,
		ModelID:          latest.ModelID,
		Version:          latest.Version,
		DeploymentTarget: latest.DeploymentTarget,
		TeamID:           latest.TeamID,
		Status:           status,
		Timestamp:        time.Now().UTC(),
		Metadata:         metadata,
	}
	if err := s.history.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append deployment history: %w", err)
	}

	s.propagateModelStatus(ctx, record)
	s.auditDeployment(ctx, domain.Caller{TeamID: latest.TeamID}, domain.AuditDeploymentStatus, record, domain.AuditSuccess, "")
	return record, nil
}

// Cancel moves a non-terminal deployment to CANCELLED. The cancel
// notification to the pipeline is best-effort: a publish failure is
// logged and the local cancellation stands.
func (s *DeploymentService) Cancel(ctx context.Context, caller domain.Caller, deploymentID, reason string) (*domain.DeploymentRecord, error) {
	latest, err := s.history.Latest(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(ctx, caller, latest.ModelID, latest.Version, domain.AccessWrite); err != nil {
		return nil, err
	}
	if !latest.Status.CanTransitionTo(domain.DeploymentCancelled) {
		return nil, fmt.Errorf("%s -> %s: %w", latest.Status, domain.DeploymentCancelled, domain.ErrInvalidTransition)
	}

	record := &domain.DeploymentRecord{
		DeploymentID:     latest.DeploymentID,
		ModelID:          latest.ModelID,
		Version:          latest.Version,
		DeploymentTarget: latest.DeploymentTarget,
		TeamID:           latest.TeamID,
		Status:           domain.DeploymentCancelled,
		Timestamp:        time.Now().UTC(),
	}
	if reason != "" {
		record.Metadata = map[string]string{"reason": reason}
	}
	if err := s.history.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append deployment history: %w", err)
	}

	s.propagateModelStatus(ctx, record)

	if err := s.publisher.PublishDeploymentCancelled(ctx, deploymentID, reason); err != nil {
		log.WithFields(log.Fields{
			"correlation_id": domain.CorrelationID(ctx),
			"deployment_id":  deploymentID,
		}).WithError(err).Warn("cancellation notification publish failed")
	}

	s.auditDeployment(ctx, caller, domain.AuditDeploymentCancel, record, domain.AuditSuccess, reason)
	return record, nil
}

// History returns records oldest-first for exactly one selector.
func (s *DeploymentService) History(ctx context.Context, selector domain.HistorySelector) ([]*domain.DeploymentRecord, error) {
	if err := selector.Validate(); err != nil {
		return nil, err
	}
	if selector.DeploymentID != "" {
		return s.history.ListByDeployment(ctx, selector.DeploymentID)
	}
	return s.history.ListByModelVersion(ctx, selector.ModelID, selector.Version)
}

func (s *DeploymentService) propagateModelStatus(ctx context.Context, record *domain.DeploymentRecord) {
	if err := s.models.UpdateStatus(ctx, record.ModelID, record.Version, record.Status.ModelStatus()); err != nil {
		log.WithFields(log.Fields{
			"correlation_id": domain.CorrelationID(ctx),
			"deployment_id":  record.DeploymentID,
			"model_id":       record.ModelID,
			"version":        record.Version,
		}).WithError(err).Warn("model status propagation failed, read-repair will catch up")
	}
}

func (s *DeploymentService) auditDeployment(ctx context.Context, caller domain.Caller, eventType domain.AuditEventType, record *domain.DeploymentRecord, result domain.AuditResult, reason string) {
	details := map[string]string{"deployment_id": record.DeploymentID, "status": string(record.Status)}
	if reason != "" {
		details["reason"] = reason
	}
	s.audit.Record(ctx, domain.AuditEvent{
		EventType:   eventType,
		ActorTeamID: caller.TeamID,
		ActorKeyID:  caller.KeyID,
		Resource:    fmt.Sprintf("%s@%s", record.ModelID, record.Version),
		Action:      string(eventType),
		Result:      result,
		Details:     details,
	})
}

// newDeploymentID is traceable (model, version, trigger time) with a
// random suffix so two triggers in the same instant stay distinct.
func newDeploymentID(modelID, version string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("dep-%s-%s-%d-%s", modelID, version, time.Now().UnixNano(), suffix)
}
