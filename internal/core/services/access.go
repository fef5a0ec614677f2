package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

// AccessControlService decides whether a caller's team may act on a
// model version. Every store error during evaluation denies: the
// authorization channel never reveals whether the store or the policy
// said no.
type AccessControlService struct {
	models   ports.ModelRepository
	policies ports.AccessPolicyRepository
	teams    ports.TeamPermissionsRepository
	audit    *AuditService
}

func NewAccessControlService(
	models ports.ModelRepository,
	policies ports.AccessPolicyRepository,
	teams ports.TeamPermissionsRepository,
	audit *AuditService,
) *AccessControlService {
	return &AccessControlService{
		models:   models,
		policies: policies,
		teams:    teams,
		audit:    audit,
	}
}

// Authorize evaluates the grant chain, first match wins:
// admin capability, resource existence, ownership, per-version sharing,
// cross-team grant. Missing records and store errors both come back as
// a plain false.
func (s *AccessControlService) Authorize(ctx context.Context, caller domain.Caller, modelID, version string, required domain.AccessLevel) bool {
	if caller.HasCapability(domain.CapabilityAdmin) {
		return true
	}

	model, err := s.models.Get(ctx, modelID, version)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logEvalError(ctx, "model lookup", modelID, version, err)
		}
		return false
	}

	if caller.TeamID == model.TeamID {
		return true
	}

	policy, err := s.policies.Get(ctx, modelID, version)
	switch {
	case err == nil:
		if policy.SharedWithTeam(caller.TeamID) && policy.AccessLevel.Satisfies(required) {
			return true
		}
	case !errors.Is(err, domain.ErrNotFound):
		s.logEvalError(ctx, "access policy lookup", modelID, version, err)
		return false
	}

	perms, err := s.teams.Get(ctx, caller.TeamID)
	switch {
	case err == nil:
		if perms.CanAccessTeam(model.TeamID) {
			return true
		}
	case !errors.Is(err, domain.ErrNotFound):
		s.logEvalError(ctx, "team permissions lookup", modelID, version, err)
		return false
	}

	return false
}

// RequireAccess is Authorize plus the denial side effects: an audit
// event and domain.ErrForbidden.
func (s *AccessControlService) RequireAccess(ctx context.Context, caller domain.Caller, modelID, version string, required domain.AccessLevel) error {
	if s.Authorize(ctx, caller, modelID, version, required) {
		return nil
	}

	s.audit.Record(ctx, domain.AuditEvent{
		EventType:   domain.AuditAccessDenied,
		ActorTeamID: caller.TeamID,
		ActorKeyID:  caller.KeyID,
		Resource:    fmt.Sprintf("%s@%s", modelID, version),
		Action:      string(required),
		Result:      domain.AuditFailure,
	})
	return domain.ErrForbidden
}

func (s *AccessControlService) logEvalError(ctx context.Context, stage, modelID, version string, err error) {
	log.WithFields(log.Fields{
		"correlation_id": domain.CorrelationID(ctx),
		"model_id":       modelID,
		"version":        version,
		"stage":          stage,
	}).WithError(err).Error("access evaluation failed, denying")
}
