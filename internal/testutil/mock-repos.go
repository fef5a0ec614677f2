package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"model-catalog-service/internal/core/domain"
)

// MockModelRepo is a mock of ModelRepository.
type MockModelRepo struct {
	mock.Mock
}

func (m *MockModelRepo) Create(ctx context.Context, model *domain.ModelRegistration) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepo) Get(ctx context.Context, modelID, version string) (*domain.ModelRegistration, error) {
	args := m.Called(ctx, modelID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelRegistration), args.Error(1)
}

func (m *MockModelRepo) ListVersions(ctx context.Context, modelID string) ([]*domain.ModelRegistration, error) {
	args := m.Called(ctx, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ModelRegistration), args.Error(1)
}

func (m *MockModelRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ModelRegistration, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.ModelRegistration), args.Int(1), args.Error(2)
}

func (m *MockModelRepo) Update(ctx context.Context, model *domain.ModelRegistration) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepo) UpdateStatus(ctx context.Context, modelID, version string, status domain.ModelStatus) error {
	args := m.Called(ctx, modelID, version, status)
	return args.Error(0)
}

func (m *MockModelRepo) Delete(ctx context.Context, modelID, version string) error {
	args := m.Called(ctx, modelID, version)
	return args.Error(0)
}

// MockAccessPolicyRepo is a mock of AccessPolicyRepository.
type MockAccessPolicyRepo struct {
	mock.Mock
}

func (m *MockAccessPolicyRepo) Put(ctx context.Context, policy *domain.AccessPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockAccessPolicyRepo) Get(ctx context.Context, modelID, version string) (*domain.AccessPolicy, error) {
	args := m.Called(ctx, modelID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessPolicy), args.Error(1)
}

// MockTeamPermissionsRepo is a mock of TeamPermissionsRepository.
type MockTeamPermissionsRepo struct {
	mock.Mock
}

func (m *MockTeamPermissionsRepo) Put(ctx context.Context, perms *domain.TeamPermissions) error {
	args := m.Called(ctx, perms)
	return args.Error(0)
}

func (m *MockTeamPermissionsRepo) Get(ctx context.Context, teamID string) (*domain.TeamPermissions, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamPermissions), args.Error(1)
}

// MockDeploymentHistoryRepo is a mock of DeploymentHistoryRepository.
type MockDeploymentHistoryRepo struct {
	mock.Mock
}

func (m *MockDeploymentHistoryRepo) Append(ctx context.Context, record *domain.DeploymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDeploymentHistoryRepo) Latest(ctx context.Context, deploymentID string) (*domain.DeploymentRecord, error) {
	args := m.Called(ctx, deploymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeploymentRecord), args.Error(1)
}

func (m *MockDeploymentHistoryRepo) ListByDeployment(ctx context.Context, deploymentID string) ([]*domain.DeploymentRecord, error) {
	args := m.Called(ctx, deploymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeploymentRecord), args.Error(1)
}

func (m *MockDeploymentHistoryRepo) ListByModelVersion(ctx context.Context, modelID, version string) ([]*domain.DeploymentRecord, error) {
	args := m.Called(ctx, modelID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeploymentRecord), args.Error(1)
}

// MockAuditEventRepo is a mock of AuditEventRepository.
type MockAuditEventRepo struct {
	mock.Mock
}

func (m *MockAuditEventRepo) Insert(ctx context.Context, event *domain.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockPipelinePublisher is a mock of PipelinePublisher.
type MockPipelinePublisher struct {
	mock.Mock
}

func (m *MockPipelinePublisher) PublishDeploymentRequested(ctx context.Context, n domain.DeploymentNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockPipelinePublisher) PublishDeploymentCancelled(ctx context.Context, deploymentID, reason string) error {
	args := m.Called(ctx, deploymentID, reason)
	return args.Error(0)
}
