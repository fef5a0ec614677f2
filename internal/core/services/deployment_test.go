package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"model-catalog-service/internal/core/domain"
	"model-catalog-service/internal/testutil"
)

type deploymentFixture struct {
	models    *testutil.MockModelRepo
	policies  *testutil.MockAccessPolicyRepo
	teams     *testutil.MockTeamPermissionsRepo
	history   *testutil.MockDeploymentHistoryRepo
	auditDB   *testutil.MockAuditEventRepo
	publisher *testutil.MockPipelinePublisher
	audit     *AuditService
	svc       *DeploymentService
}

func newDeploymentFixture() *deploymentFixture {
	f := &deploymentFixture{
		models:    new(testutil.MockModelRepo),
		policies:  new(testutil.MockAccessPolicyRepo),
		teams:     new(testutil.MockTeamPermissionsRepo),
		history:   new(testutil.MockDeploymentHistoryRepo),
		auditDB:   new(testutil.MockAuditEventRepo),
		publisher: new(testutil.MockPipelinePublisher),
	}
	f.auditDB.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.audit = NewAuditService(f.auditDB, 16)
	access := NewAccessControlService(f.models, f.policies, f.teams, f.audit)
	f.svc = NewDeploymentService(f.models, f.history, access, f.audit, f.publisher)
	return f
}

func deployableModel() *domain.ModelRegistration {
	return &domain.ModelRegistration{
		ModelID:          "fraud-detector",
		ModelName:        "Fraud Detector",
		Version:          "1.0.0",
		Framework:        domain.FrameworkPyTorch,
		ArtifactLocation: "s3://models/fraud-detector/1.0.0.tar.gz",
		DeploymentTarget: domain.TargetCluster,
		Status:           domain.ModelStatusRegistered,
		TeamID:           "ds-team",
	}
}

func TestTrigger(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.models.On("UpdateStatus", mock.Anything, "fraud-detector", "1.0.0", domain.ModelStatusDeploying).Return(nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(r *domain.DeploymentRecord) bool {
		return r.Status == domain.DeploymentInitiated && r.ModelID == "fraud-detector"
	})).Return(nil)
	f.publisher.On("PublishDeploymentRequested", mock.Anything, mock.MatchedBy(func(n domain.DeploymentNotification) bool {
		return n.ModelID == "fraud-detector" &&
			n.Version == "1.0.0" &&
			n.ArtifactLocation == "s3://models/fraud-detector/1.0.0.tar.gz" &&
			n.DeploymentID != ""
	})).Return(nil)

	owner := domain.Caller{TeamID: "ds-team"}
	record, err := f.svc.Trigger(context.Background(), owner, "fraud-detector", "1.0.0")
	assert.NoError(t, err)
	assert.Equal(t, domain.DeploymentInitiated, record.Status)
	assert.True(t, strings.HasPrefix(record.DeploymentID, "dep-fraud-detector-1.0.0-"))
	f.publisher.AssertExpectations(t)
}

func TestTrigger_DeploymentIDsUnique(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.models.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishDeploymentRequested", mock.Anything, mock.Anything).Return(nil)

	owner := domain.Caller{TeamID: "ds-team"}
	first, err := f.svc.Trigger(context.Background(), owner, "fraud-detector", "1.0.0")
	assert.NoError(t, err)
	second, err := f.svc.Trigger(context.Background(), owner, "fraud-detector", "1.0.0")
	assert.NoError(t, err)
	assert.NotEqual(t, first.DeploymentID, second.DeploymentID)
}

func TestTrigger_Forbidden(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, domain.ErrNotFound)
	f.teams.On("Get", mock.Anything, "other-team").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Trigger(context.Background(), domain.Caller{TeamID: "other-team"}, "fraud-detector", "1.0.0")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestTrigger_PublishFailure_KeepsRecordAndAudits(t *testing.T) {
	f := newDeploymentFixture()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.models.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishDeploymentRequested", mock.Anything, mock.Anything).Return(assert.AnError)

	owner := domain.Caller{TeamID: "ds-team"}
	_, err := f.svc.Trigger(context.Background(), owner, "fraud-detector", "1.0.0")
	assert.ErrorIs(t, err, domain.ErrExternalService)

	// The INITIATED record was persisted before the publish attempt.
	f.history.AssertCalled(t, "Append", mock.Anything, mock.Anything)

	// And the persisted mutation leaves a trail entry despite the failure.
	f.audit.Close()
	f.auditDB.AssertCalled(t, "Insert", mock.Anything, mock.MatchedBy(func(e *domain.AuditEvent) bool {
		return e.EventType == domain.AuditDeploymentTrigger && e.Result == domain.AuditFailure
	}))
}

func TestTrigger_HistoryFailure_AuditsPartialWrite(t *testing.T) {
	f := newDeploymentFixture()

	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.models.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(assert.AnError)

	owner := domain.Caller{TeamID: "ds-team"}
	_, err := f.svc.Trigger(context.Background(), owner, "fraud-detector", "1.0.0")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrExternalService)

	f.audit.Close()
	f.auditDB.AssertCalled(t, "Insert", mock.Anything, mock.MatchedBy(func(e *domain.AuditEvent) bool {
		return e.EventType == domain.AuditPartialWriteRepair
	}))
	f.publisher.AssertNotCalled(t, "PublishDeploymentRequested", mock.Anything, mock.Anything)
}

func initiatedRecord() *domain.DeploymentRecord {
	return &domain.DeploymentRecord{
		DeploymentID:     "dep-fraud-detector-1.0.0-1-abcd1234",
		ModelID:          "fraud-detector",
		Version:          "1.0.0",
		DeploymentTarget: domain.TargetCluster,
		TeamID:           "ds-team",
		Status:           domain.DeploymentInitiated,
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	latest := initiatedRecord()
	f.history.On("Latest", mock.Anything, latest.DeploymentID).Return(latest, nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(r *domain.DeploymentRecord) bool {
		return r.Status == domain.DeploymentDeploying && r.DeploymentID == latest.DeploymentID
	})).Return(nil)
	f.models.On("UpdateStatus", mock.Anything, "fraud-detector", "1.0.0", domain.ModelStatusDeploying).Return(nil)

	record, err := f.svc.UpdateStatus(context.Background(), latest.DeploymentID, domain.DeploymentDeploying, nil)
	assert.NoError(t, err)
	assert.Equal(t, domain.DeploymentDeploying, record.Status)
	f.history.AssertExpectations(t)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	latest := initiatedRecord()
	f.history.On("Latest", mock.Anything, latest.DeploymentID).Return(latest, nil)

	// INITIATED cannot jump straight to DEPLOYED.
	_, err := f.svc.UpdateStatus(context.Background(), latest.DeploymentID, domain.DeploymentDeployed, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestUpdateStatus_TerminalStateRejected(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	done := initiatedRecord()
	done.Status = domain.DeploymentDeployed
	f.history.On("Latest", mock.Anything, done.DeploymentID).Return(done, nil)

	for _, next := range []domain.DeploymentStatus{
		domain.DeploymentInitiated, domain.DeploymentDeploying,
		domain.DeploymentFailed, domain.DeploymentCancelled,
	} {
		_, err := f.svc.UpdateStatus(context.Background(), done.DeploymentID, next, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "DEPLOYED -> %s", next)
	}
}

func TestUpdateStatus_UnknownDeployment(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	f.history.On("Latest", mock.Anything, "dep-missing").Return(nil, domain.ErrNotFound)

	_, err := f.svc.UpdateStatus(context.Background(), "dep-missing", domain.DeploymentDeploying, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	_, err := f.svc.UpdateStatus(context.Background(), "dep-1", domain.DeploymentStatus("SHIPPED"), nil)

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCancel(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	latest := initiatedRecord()
	latest.Status = domain.DeploymentDeploying
	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.history.On("Latest", mock.Anything, latest.DeploymentID).Return(latest, nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(r *domain.DeploymentRecord) bool {
		return r.Status == domain.DeploymentCancelled && r.Metadata["reason"] == "budget cut"
	})).Return(nil)
	f.models.On("UpdateStatus", mock.Anything, "fraud-detector", "1.0.0", domain.ModelStatusCancelled).Return(nil)
	f.publisher.On("PublishDeploymentCancelled", mock.Anything, latest.DeploymentID, "budget cut").Return(nil)

	record, err := f.svc.Cancel(context.Background(), domain.Caller{TeamID: "ds-team"}, latest.DeploymentID, "budget cut")
	assert.NoError(t, err)
	assert.Equal(t, domain.DeploymentCancelled, record.Status)
}

func TestCancel_PublishFailureDoesNotBlock(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	latest := initiatedRecord()
	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.history.On("Latest", mock.Anything, latest.DeploymentID).Return(latest, nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.models.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishDeploymentCancelled", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	record, err := f.svc.Cancel(context.Background(), domain.Caller{TeamID: "ds-team"}, latest.DeploymentID, "")
	assert.NoError(t, err)
	assert.Equal(t, domain.DeploymentCancelled, record.Status)
}

func TestCancel_Terminal(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	latest := initiatedRecord()
	latest.Status = domain.DeploymentFailed
	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.history.On("Latest", mock.Anything, latest.DeploymentID).Return(latest, nil)

	_, err := f.svc.Cancel(context.Background(), domain.Caller{TeamID: "ds-team"}, latest.DeploymentID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_Forbidden(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	latest := initiatedRecord()
	f.history.On("Latest", mock.Anything, latest.DeploymentID).Return(latest, nil)
	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.policies.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(nil, domain.ErrNotFound)
	f.teams.On("Get", mock.Anything, "other-team").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Cancel(context.Background(), domain.Caller{TeamID: "other-team"}, latest.DeploymentID, "sabotage")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishDeploymentCancelled", mock.Anything, mock.Anything, mock.Anything)
}

func TestHistory_BySelector(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	records := []*domain.DeploymentRecord{initiatedRecord()}
	f.history.On("ListByDeployment", mock.Anything, "dep-1").Return(records, nil)
	f.history.On("ListByModelVersion", mock.Anything, "fraud-detector", "1.0.0").Return(records, nil)

	got, err := f.svc.History(context.Background(), domain.HistorySelector{DeploymentID: "dep-1"})
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.svc.History(context.Background(), domain.HistorySelector{ModelID: "fraud-detector", Version: "1.0.0"})
	assert.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHistory_AmbiguousSelector(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	_, err := f.svc.History(context.Background(), domain.HistorySelector{})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = f.svc.History(context.Background(), domain.HistorySelector{
		DeploymentID: "dep-1", ModelID: "fraud-detector", Version: "1.0.0",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

// Full lifecycle: trigger, pipeline reports DEPLOYED, history reads back
// in order.
func TestDeploymentLifecycle(t *testing.T) {
	f := newDeploymentFixture()
	defer f.audit.Close()

	var appended []*domain.DeploymentRecord
	f.models.On("Get", mock.Anything, "fraud-detector", "1.0.0").Return(deployableModel(), nil)
	f.models.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		appended = append(appended, args.Get(1).(*domain.DeploymentRecord))
	}).Return(nil)
	f.publisher.On("PublishDeploymentRequested", mock.Anything, mock.Anything).Return(nil)

	owner := domain.Caller{TeamID: "ds-team"}
	triggered, err := f.svc.Trigger(context.Background(), owner, "fraud-detector", "1.0.0")
	assert.NoError(t, err)

	f.history.On("Latest", mock.Anything, triggered.DeploymentID).Return(appended[0], nil).Once()
	_, err = f.svc.UpdateStatus(context.Background(), triggered.DeploymentID, domain.DeploymentDeploying, nil)
	assert.NoError(t, err)

	f.history.On("Latest", mock.Anything, triggered.DeploymentID).Return(appended[1], nil).Once()
	_, err = f.svc.UpdateStatus(context.Background(), triggered.DeploymentID, domain.DeploymentDeployed,
		map[string]string{"endpoint": "https://models.internal/fraud-detector"})
	assert.NoError(t, err)

	f.history.On("ListByModelVersion", mock.Anything, "fraud-detector", "1.0.0").Return(appended, nil)
	got, err := f.svc.History(context.Background(), domain.HistorySelector{ModelID: "fraud-detector", Version: "1.0.0"})
	assert.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, domain.DeploymentInitiated, got[0].Status)
	assert.Equal(t, domain.DeploymentDeploying, got[1].Status)
	assert.Equal(t, domain.DeploymentDeployed, got[2].Status)
	assert.Equal(t, "https://models.internal/fraud-detector", got[2].Metadata["endpoint"])
}
