package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"model-catalog-service/internal/core/domain"
	"model-catalog-service/internal/testutil"
)

type accessFixture struct {
	models   *testutil.MockModelRepo
	policies *testutil.MockAccessPolicyRepo
	teams    *testutil.MockTeamPermissionsRepo
	auditDB  *testutil.MockAuditEventRepo
	audit    *AuditService
	svc      *AccessControlService
}

func newAccessFixture() *accessFixture {
	f := &accessFixture{
		models:   new(testutil.MockModelRepo),
		policies: new(testutil.MockAccessPolicyRepo),
		teams:    new(testutil.MockTeamPermissionsRepo),
		auditDB:  new(testutil.MockAuditEventRepo),
	}
	f.auditDB.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.audit = NewAuditService(f.auditDB, 16)
	f.svc = NewAccessControlService(f.models, f.policies, f.teams, f.audit)
	return f
}

func ownedModel(teamID string) *domain.ModelRegistration {
	return &domain.ModelRegistration{
		ModelID: "fraud-detector",
		Version: "1.0.0",
		TeamID:  teamID,
	}
}

func TestAuthorize_Owner(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)

	caller := domain.Caller{TeamID: "ds-team"}
	assert.True(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessRead))
	assert.True(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessWrite))
}

func TestAuthorize_Admin_NoStoreLookup(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	caller := domain.Caller{TeamID: "any-team", Capabilities: []string{domain.CapabilityAdmin}}
	assert.True(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessWrite))

	f.models.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthorize_MissingModel_Denied(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "ghost", "1.0.0").Return(nil, domain.ErrNotFound)

	caller := domain.Caller{TeamID: "ds-team"}
	assert.False(t, f.svc.Authorize(context.Background(), caller, "ghost", "1.0.0", domain.AccessRead))
}

func TestAuthorize_SharedPolicy(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(&domain.AccessPolicy{
		ModelID:     "fraud-detector",
		Version:     "1.0.0",
		OwnerTeamID: "ds-team",
		SharedWith:  []string{"ml-platform"},
		AccessLevel: domain.AccessRead,
	}, nil)
	f.teams.On("Get", mock.Anything, "ml-platform").Return(nil, domain.ErrNotFound)

	caller := domain.Caller{TeamID: "ml-platform"}
	assert.True(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessRead))

	// Read-level sharing never satisfies a write request.
	assert.False(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessWrite))
}

func TestAuthorize_CrossTeamGrant(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, domain.ErrNotFound)
	f.teams.On("Get", mock.Anything, "sre-team").Return(&domain.TeamPermissions{
		TeamID:          "sre-team",
		AccessibleTeams: []string{"ds-team"},
	}, nil)

	caller := domain.Caller{TeamID: "sre-team"}
	assert.True(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessWrite))
}

func TestAuthorize_NoGrant_Denied(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, domain.ErrNotFound)
	f.teams.On("Get", mock.Anything, "other-team").Return(nil, domain.ErrNotFound)

	caller := domain.Caller{TeamID: "other-team"}
	assert.False(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessRead))
}

func TestAuthorize_StoreError_FailsClosed(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, errors.New("connection refused"))

	caller := domain.Caller{TeamID: "ds-team"}
	assert.False(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessRead))
}

func TestAuthorize_PolicyStoreError_FailsClosed(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, errors.New("timeout"))

	// The caller might have a cross-team grant, but a broken policy
	// lookup denies before that is ever consulted.
	caller := domain.Caller{TeamID: "sre-team"}
	assert.False(t, f.svc.Authorize(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessRead))
	f.teams.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRequireAccess_DenialAudited(t *testing.T) {
	f := newAccessFixture()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, domain.ErrNotFound)
	f.teams.On("Get", mock.Anything, "other-team").Return(nil, domain.ErrNotFound)

	caller := domain.Caller{TeamID: "other-team", KeyID: "key-1"}
	err := f.svc.RequireAccess(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessWrite)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.audit.Close()

	f.auditDB.AssertCalled(t, "Insert", mock.Anything, mock.MatchedBy(func(e *domain.AuditEvent) bool {
		return e.EventType == domain.AuditAccessDenied &&
			e.RiskLevel == domain.RiskMedium &&
			e.ActorTeamID == "other-team" &&
			e.Resource == "fraud-detector@1.0.0"
	}))
}

func TestRequireAccess_Granted(t *testing.T) {
	f := newAccessFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(ownedModel("ds-team"), nil)

	caller := domain.Caller{TeamID: "ds-team"}
	assert.NoError(t, f.svc.RequireAccess(context.Background(), caller, "fraud-detector", "1.0.0", domain.AccessWrite))
}
