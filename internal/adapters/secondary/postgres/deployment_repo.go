package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

type deploymentHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewDeploymentHistoryRepository(pool *pgxpool.Pool) ports.DeploymentHistoryRepository {
	return &deploymentHistoryRepo{pool: pool}
}

const historyColumns = `
	deployment_id, model_id, version, deployment_target, team_id,
	status, event_ts, metadata`

// Append inserts one history row. Rows are never updated; ordering for
// a deployment is (event_ts, seq), with seq breaking timestamp ties in
// insertion order.
func (r *deploymentHistoryRepo) Append(ctx context.Context, record *domain.DeploymentRecord) error {
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO catalog_deployment_history
			(deployment_id, model_id, version, deployment_target, team_id,
			 status, event_ts, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err = r.pool.Exec(ctx, query,
		record.DeploymentID, record.ModelID, record.Version,
		string(record.DeploymentTarget), record.TeamID,
		string(record.Status), record.Timestamp, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("append deployment record: %w", err)
	}
	return nil
}

func (r *deploymentHistoryRepo) Latest(ctx context.Context, deploymentID string) (*domain.DeploymentRecord, error) {
	query := `SELECT` + historyColumns + `
		FROM catalog_deployment_history
		WHERE deployment_id = $1
		ORDER BY event_ts DESC, seq DESC
		LIMIT 1`

	record, err := scanRecord(r.pool.QueryRow(ctx, query, deploymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get latest deployment record: %w", err)
	}
	return record, nil
}

func (r *deploymentHistoryRepo) ListByDeployment(ctx context.Context, deploymentID string) ([]*domain.DeploymentRecord, error) {
	query := `SELECT` + historyColumns + `
		FROM catalog_deployment_history
		WHERE deployment_id = $1
		ORDER BY event_ts ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, deploymentID)
	if err != nil {
		return nil, fmt.Errorf("list deployment history: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *deploymentHistoryRepo) ListByModelVersion(ctx context.Context, modelID, version string) ([]*domain.DeploymentRecord, error) {
	query := `SELECT` + historyColumns + `
		FROM catalog_deployment_history
		WHERE model_id = $1 AND version = $2
		ORDER BY event_ts ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, modelID, version)
	if err != nil {
		return nil, fmt.Errorf("list deployment history by model: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func scanRecord(row pgx.Row) (*domain.DeploymentRecord, error) {
	var (
		rec          domain.DeploymentRecord
		target       string
		status       string
		metadataJSON []byte
	)
	err := row.Scan(
		&rec.DeploymentID, &rec.ModelID, &rec.Version, &target,
		&rec.TeamID, &status, &rec.Timestamp, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}
	rec.DeploymentTarget = domain.DeploymentTarget(target)
	rec.Status = domain.DeploymentStatus(status)
	if len(metadataJSON) > 0 && string(metadataJSON) != "null" {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]*domain.DeploymentRecord, error) {
	var records []*domain.DeploymentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deployment record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment records: %w", err)
	}
	return records, nil
}
