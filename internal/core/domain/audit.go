package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type AuditEventType string

const (
	AuditModelRegistered    AuditEventType = "model.registered"
	AuditModelUpdated       AuditEventType = "model.updated"
	AuditModelDeregistered  AuditEventType = "model.deregistered"
	AuditAccessDenied       AuditEventType = "access.denied"
	AuditAuthFailure        AuditEventType = "auth.failure"
	AuditSecurityViolation  AuditEventType = "security.violation"
	AuditDeploymentTrigger  AuditEventType = "deployment.triggered"
	AuditDeploymentStatus   AuditEventType = "deployment.status_changed"
	AuditDeploymentCancel   AuditEventType = "deployment.cancelled"
	AuditPartialWriteRepair AuditEventType = "deployment.partial_write"
)

type AuditResult string

const (
	AuditSuccess AuditResult = "SUCCESS"
	AuditFailure AuditResult = "FAILURE"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// DeriveRiskLevel is the fixed (eventType, result) table. Security
// violations are CRITICAL regardless of result.
func DeriveRiskLevel(eventType AuditEventType, result AuditResult) RiskLevel {
	if eventType == AuditSecurityViolation {
		return RiskCritical
	}
	switch eventType {
	case AuditAuthFailure:
		return RiskHigh
	case AuditAccessDenied:
		return RiskMedium
	case AuditModelDeregistered:
		return RiskMedium
	}
	if result == AuditFailure {
		return RiskMedium
	}
	return RiskLow
}

// AuditEvent is one write-once trail entry. The core never mutates or
// deletes recorded events.
type AuditEvent struct {
	ID            uuid.UUID         `json:"id"`
	EventType     AuditEventType    `json:"event_type"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id"`
	ActorTeamID   string            `json:"actor_team_id"`
	ActorKeyID    string            `json:"actor_key_id"`
	Resource      string            `json:"resource"`
	Action        string            `json:"action"`
	Result        AuditResult       `json:"result"`
	RiskLevel     RiskLevel         `json:"risk_level"`
	Details       map[string]string `json:"details,omitempty"`
}

// Fingerprint reduces a secret to a short non-reversible token safe to
// store in audit details.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return "sha256:" + hex.EncodeToString(sum[:])[:8]
}
