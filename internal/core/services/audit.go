package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

const auditWriteAttempts = 2

// sensitive detail keys are never stored verbatim; values are reduced
// to a sha256 fingerprint before the event leaves the recorder.
var sensitiveDetailKeys = map[string]bool{
	"secret":     true,
	"api_key":    true,
	"access_key": true,
	"secret_key": true,
	"token":      true,
}

// AuditService records audit events off the request path. Record never
// returns an error: a full queue or a failing store degrades to a
// structured log line, not a failed operation.
type AuditService struct {
	repo  ports.AuditEventRepository
	queue chan domain.AuditEvent
	wg    sync.WaitGroup

	closeOnce sync.Once
}

func NewAuditService(repo ports.AuditEventRepository, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &AuditService{
		repo:  repo,
		queue: make(chan domain.AuditEvent, queueSize),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Record enqueues an event for asynchronous persistence. The entry is
// stamped, risk-rated and redacted here so the caller cannot influence
// those fields.
func (s *AuditService) Record(ctx context.Context, event domain.AuditEvent) {
	event.ID = uuid.New()
	event.Timestamp = time.Now().UTC()
	event.RiskLevel = domain.DeriveRiskLevel(event.EventType, event.Result)
	if event.CorrelationID == "" {
		event.CorrelationID = domain.CorrelationID(ctx)
	}
	event.Details = redact(event.Details)

	select {
	case s.queue <- event:
	default:
		s.logFallback(event, "audit queue full")
	}
}

// Close drains the queue and stops the worker. Safe to call more than
// once.
func (s *AuditService) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *AuditService) worker() {
	defer s.wg.Done()
	for event := range s.queue {
		s.write(event)
	}
}

func (s *AuditService) write(event domain.AuditEvent) {
	var err error
	for attempt := 0; attempt < auditWriteAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = s.repo.Insert(ctx, &event)
		cancel()
		if err == nil {
			return
		}
	}
	s.logFallback(event, err.Error())
}

// logFallback is the dead-letter path: the event still reaches the
// ordinary application log, and the error stops here.
func (s *AuditService) logFallback(event domain.AuditEvent, reason string) {
	log.WithFields(log.Fields{
		"audit_fallback": true,
		"reason":         reason,
		"event_type":     string(event.EventType),
		"correlation_id": event.CorrelationID,
		"actor_team_id":  event.ActorTeamID,
		"resource":       event.Resource,
		"action":         event.Action,
		"result":         string(event.Result),
		"risk_level":     string(event.RiskLevel),
	}).Warn("audit event not persisted")
}

func redact(details map[string]string) map[string]string {
	if details == nil {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		if sensitiveDetailKeys[k] {
			out[k] = domain.Fingerprint(v)
			continue
		}
		out[k] = v
	}
	return out
}
