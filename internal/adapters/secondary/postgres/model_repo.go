// Package postgres implements the output ports on pgx. Expected tables:
//
//	catalog_model_registration (
//	    model_id text, model_name text, version text, framework text,
//	    artifact_location text, deployment_target text, status text,
//	    team_id text, created_at timestamptz, updated_at timestamptz,
//	    metadata jsonb,
//	    PRIMARY KEY (model_id, version))
//
//	catalog_access_policy (
//	    model_id text, version text, owner_team_id text,
//	    shared_with jsonb, access_level text,
//	    PRIMARY KEY (model_id, version))
//
//	catalog_team_permissions (
//	    team_id text PRIMARY KEY, shared_teams jsonb, accessible_teams jsonb)
//
//	catalog_deployment_history (
//	    seq bigserial PRIMARY KEY, deployment_id text, model_id text,
//	    version text, deployment_target text, team_id text, status text,
//	    event_ts timestamptz, metadata jsonb)
//	    + index on (deployment_id, event_ts), index on (model_id, version)
//
//	catalog_audit_event (
//	    id uuid PRIMARY KEY, event_type text, ts timestamptz,
//	    correlation_id text, actor_team_id text, actor_key_id text,
//	    resource text, action text, result text, risk_level text,
//	    details jsonb)
//
// Uniqueness of (model_id, version) is enforced only by the primary
// key: Create maps the unique-violation SQLSTATE to
// domain.ErrDuplicateResource so concurrent registrations resolve to
// exactly one success.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

type modelRepo struct {
	pool *pgxpool.Pool
}

func NewModelRepository(pool *pgxpool.Pool) ports.ModelRepository {
	return &modelRepo{pool: pool}
}

const modelColumns = `
	model_id, model_name, version, framework, artifact_location,
	deployment_target, status, team_id, created_at, updated_at, metadata`

func (r *modelRepo) Create(ctx context.Context, model *domain.ModelRegistration) error {
	metadataJSON, err := json.Marshal(model.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO catalog_model_registration
			(model_id, model_name, version, framework, artifact_location,
			 deployment_target, status, team_id, created_at, updated_at, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err = r.pool.Exec(ctx, query,
		model.ModelID, model.ModelName, model.Version,
		string(model.Framework), model.ArtifactLocation,
		string(model.DeploymentTarget), string(model.Status),
		model.TeamID, model.CreatedAt, model.UpdatedAt, metadataJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateResource
		}
		return fmt.Errorf("create model registration: %w", err)
	}
	return nil
}

func (r *modelRepo) Get(ctx context.Context, modelID, version string) (*domain.ModelRegistration, error) {
	query := `SELECT` + modelColumns + `
		FROM catalog_model_registration
		WHERE model_id = $1 AND version = $2`

	model, err := scanModel(r.pool.QueryRow(ctx, query, modelID, version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get model registration: %w", err)
	}
	return model, nil
}

func (r *modelRepo) ListVersions(ctx context.Context, modelID string) ([]*domain.ModelRegistration, error) {
	query := `SELECT` + modelColumns + `
		FROM catalog_model_registration
		WHERE model_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("list model versions: %w", err)
	}
	defer rows.Close()
	return collectModels(rows)
}

func (r *modelRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ModelRegistration, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	add := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}

	if filter.TeamID != "" {
		add("team_id = $%d", filter.TeamID)
	}
	if filter.DeploymentTarget != "" {
		add("deployment_target = $%d", string(filter.DeploymentTarget))
	}
	if filter.Framework != "" {
		add("framework = $%d", string(filter.Framework))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.NamePattern != "" {
		add("model_name ILIKE $%d", "%"+filter.NamePattern+"%")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM catalog_model_registration WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count model registrations: %w", err)
	}

	query := fmt.Sprintf(`SELECT%s
		FROM catalog_model_registration
		WHERE %s
		ORDER BY created_at DESC, model_id, version
		LIMIT $%d OFFSET $%d`, modelColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list model registrations: %w", err)
	}
	defer rows.Close()

	models, err := collectModels(rows)
	if err != nil {
		return nil, 0, err
	}
	return models, total, nil
}

func (r *modelRepo) Update(ctx context.Context, model *domain.ModelRegistration) error {
	metadataJSON, err := json.Marshal(model.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		UPDATE catalog_model_registration
		SET status = $3, updated_at = $4, metadata = $5
		WHERE model_id = $1 AND version = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		model.ModelID, model.Version, string(model.Status),
		model.UpdatedAt, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("update model registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *modelRepo) UpdateStatus(ctx context.Context, modelID, version string, status domain.ModelStatus) error {
	query := `
		UPDATE catalog_model_registration
		SET status = $3, updated_at = now()
		WHERE model_id = $1 AND version = $2
	`
	tag, err := r.pool.Exec(ctx, query, modelID, version, string(status))
	if err != nil {
		return fmt.Errorf("update model status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *modelRepo) Delete(ctx context.Context, modelID, version string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM catalog_model_registration WHERE model_id = $1 AND version = $2`,
		modelID, version)
	if err != nil {
		return fmt.Errorf("delete model registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanModel(row pgx.Row) (*domain.ModelRegistration, error) {
	var (
		m            domain.ModelRegistration
		framework    string
		target       string
		status       string
		metadataJSON []byte
	)
	err := row.Scan(
		&m.ModelID, &m.ModelName, &m.Version, &framework,
		&m.ArtifactLocation, &target, &status, &m.TeamID,
		&m.CreatedAt, &m.UpdatedAt, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}
	m.Framework = domain.Framework(framework)
	m.DeploymentTarget = domain.DeploymentTarget(target)
	m.Status = domain.ModelStatus(status)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &m, nil
}

func collectModels(rows pgx.Rows) ([]*domain.ModelRegistration, error) {
	var models []*domain.ModelRegistration
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model registration: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model registrations: %w", err)
	}
	return models, nil
}
