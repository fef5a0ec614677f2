package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

type auditEventRepo struct {
	pool *pgxpool.Pool
}

func NewAuditEventRepository(pool *pgxpool.Pool) ports.AuditEventRepository {
	return &auditEventRepo{pool: pool}
}

func (r *auditEventRepo) Insert(ctx context.Context, event *domain.AuditEvent) error {
	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO catalog_audit_event
			(id, event_type, ts, correlation_id, actor_team_id, actor_key_id,
			 resource, action, result, risk_level, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err = r.pool.Exec(ctx, query,
		event.ID, string(event.EventType), event.Timestamp,
		event.CorrelationID, event.ActorTeamID, event.ActorKeyID,
		event.Resource, event.Action, string(event.Result),
		string(event.RiskLevel), detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
