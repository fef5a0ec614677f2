package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Framework string

const (
	FrameworkTensorFlow Framework = "tensorflow"
	FrameworkPyTorch    Framework = "pytorch"
	FrameworkSKLearn    Framework = "sklearn"
	FrameworkXGBoost    Framework = "xgboost"
	FrameworkONNX       Framework = "onnx"
)

var frameworks = map[Framework]bool{
	FrameworkTensorFlow: true,
	FrameworkPyTorch:    true,
	FrameworkSKLearn:    true,
	FrameworkXGBoost:    true,
	FrameworkONNX:       true,
}

func (f Framework) Valid() bool { return frameworks[f] }

type DeploymentTarget string

const (
	TargetCluster    DeploymentTarget = "cluster"
	TargetServerless DeploymentTarget = "serverless"
)

func (t DeploymentTarget) Valid() bool {
	return t == TargetCluster || t == TargetServerless
}

// ModelStatus is the outward-visible state on the aggregate model record.
// After registration it tracks the most recent deployment's state.
type ModelStatus string

const (
	ModelStatusRegistered ModelStatus = "REGISTERED"
	ModelStatusDeploying  ModelStatus = "DEPLOYING"
	ModelStatusDeployed   ModelStatus = "DEPLOYED"
	ModelStatusFailed     ModelStatus = "FAILED"
	ModelStatusCancelled  ModelStatus = "CANCELLED"
)

const (
	maxDescriptionLen = 2000
	maxFeatures       = 20
	maxTags           = 20
	maxTagKeyLen      = 64
	maxTagValueLen    = 256
	maxSlugLen        = 60
)

// Metadata is the bounded open part of a registration. Unknown or
// oversized input is rejected at the boundary, never stored.
type Metadata struct {
	Description string            `json:"description,omitempty"`
	Accuracy    *float64          `json:"accuracy,omitempty"`
	Features    []string          `json:"features,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

func (m *Metadata) Validate() error {
	if len(m.Description) > maxDescriptionLen {
		return NewValidationError("metadata.description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if m.Accuracy != nil && (*m.Accuracy < 0 || *m.Accuracy > 1) {
		return NewValidationError("metadata.accuracy", "must be between 0 and 1")
	}
	if len(m.Features) > maxFeatures {
		return NewValidationError("metadata.features", fmt.Sprintf("at most %d features", maxFeatures))
	}
	if len(m.Tags) > maxTags {
		return NewValidationError("metadata.tags", fmt.Sprintf("at most %d tags", maxTags))
	}
	for k, v := range m.Tags {
		if k == "" || len(k) > maxTagKeyLen {
			return NewValidationError("metadata.tags", fmt.Sprintf("tag key %q must be 1-%d characters", k, maxTagKeyLen))
		}
		if len(v) > maxTagValueLen {
			return NewValidationError("metadata.tags", fmt.Sprintf("tag %q value must be at most %d characters", k, maxTagValueLen))
		}
	}
	return nil
}

// ModelRegistration is one immutable (ModelID, Version) record.
type ModelRegistration struct {
	ModelID          string           `json:"model_id"`
	ModelName        string           `json:"model_name"`
	Version          string           `json:"version"`
	Framework        Framework        `json:"framework"`
	ArtifactLocation string           `json:"artifact_location"`
	DeploymentTarget DeploymentTarget `json:"deployment_target"`
	Status           ModelStatus      `json:"status"`
	TeamID           string           `json:"team_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Metadata         Metadata         `json:"metadata"`
}

var artifactSchemes = map[string]bool{
	"s3":    true,
	"gs":    true,
	"https": true,
	"file":  true,
}

func ValidateArtifactLocation(location string) error {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" {
		return NewValidationError("artifact_location", "must be a URI with a scheme")
	}
	if !artifactSchemes[u.Scheme] {
		return NewValidationError("artifact_location", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	return nil
}

// Slug derives the model ID from a display name: lowercase letters,
// digits and dashes only, spaces and underscores folded to dashes.
func Slug(name string) string {
	var b strings.Builder
	for _, ch := range name {
		switch {
		case (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '-':
			b.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune(ch + 32)
		case ch == ' ' || ch == '_':
			b.WriteByte('-')
		}
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}

// ListFilter narrows ListModels results. Zero values mean "no filter".
type ListFilter struct {
	TeamID           string
	DeploymentTarget DeploymentTarget
	Framework        Framework
	Status           ModelStatus
	NamePattern      string
	Limit            int
	Offset           int
}
