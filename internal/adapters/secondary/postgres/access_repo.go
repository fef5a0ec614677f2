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

type accessPolicyRepo struct {
	pool *pgxpool.Pool
}

func NewAccessPolicyRepository(pool *pgxpool.Pool) ports.AccessPolicyRepository {
	return &accessPolicyRepo{pool: pool}
}

func (r *accessPolicyRepo) Put(ctx context.Context, policy *domain.AccessPolicy) error {
	sharedJSON, err := json.Marshal(policy.SharedWith)
	if err != nil {
		return fmt.Errorf("marshal shared_with: %w", err)
	}

	query := `
		INSERT INTO catalog_access_policy
			(model_id, version, owner_team_id, shared_with, access_level)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (model_id, version) DO UPDATE
		SET owner_team_id = EXCLUDED.owner_team_id,
		    shared_with = EXCLUDED.shared_with,
		    access_level = EXCLUDED.access_level
	`
	_, err = r.pool.Exec(ctx, query,
		policy.ModelID, policy.Version, policy.OwnerTeamID,
		sharedJSON, string(policy.AccessLevel),
	)
	if err != nil {
		return fmt.Errorf("put access policy: %w", err)
	}
	return nil
}

func (r *accessPolicyRepo) Get(ctx context.Context, modelID, version string) (*domain.AccessPolicy, error) {
	query := `
		SELECT model_id, version, owner_team_id, shared_with, access_level
		FROM catalog_access_policy
		WHERE model_id = $1 AND version = $2
	`
	var (
		p          domain.AccessPolicy
		sharedJSON []byte
		level      string
	)
	err := r.pool.QueryRow(ctx, query, modelID, version).Scan(
		&p.ModelID, &p.Version, &p.OwnerTeamID, &sharedJSON, &level,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get access policy: %w", err)
	}
	p.AccessLevel = domain.AccessLevel(level)
	if len(sharedJSON) > 0 {
		if err := json.Unmarshal(sharedJSON, &p.SharedWith); err != nil {
			return nil, fmt.Errorf("unmarshal shared_with: %w", err)
		}
	}
	return &p, nil
}

type teamPermissionsRepo struct {
	pool *pgxpool.Pool
}

func NewTeamPermissionsRepository(pool *pgxpool.Pool) ports.TeamPermissionsRepository {
	return &teamPermissionsRepo{pool: pool}
}

func (r *teamPermissionsRepo) Put(ctx context.Context, perms *domain.TeamPermissions) error {
	sharedJSON, err := json.Marshal(perms.SharedTeams)
	if err != nil {
		return fmt.Errorf("marshal shared_teams: %w", err)
	}
	accessibleJSON, err := json.Marshal(perms.AccessibleTeams)
	if err != nil {
		return fmt.Errorf("marshal accessible_teams: %w", err)
	}

	query := `
		INSERT INTO catalog_team_permissions (team_id, shared_teams, accessible_teams)
		VALUES ($1,$2,$3)
		ON CONFLICT (team_id) DO UPDATE
		SET shared_teams = EXCLUDED.shared_teams,
		    accessible_teams = EXCLUDED.accessible_teams
	`
	_, err = r.pool.Exec(ctx, query, perms.TeamID, sharedJSON, accessibleJSON)
	if err != nil {
		return fmt.Errorf("put team permissions: %w", err)
	}
	return nil
}

func (r *teamPermissionsRepo) Get(ctx context.Context, teamID string) (*domain.TeamPermissions, error) {
	query := `
		SELECT team_id, shared_teams, accessible_teams
		FROM catalog_team_permissions
		WHERE team_id = $1
	`
	var (
		p              domain.TeamPermissions
		sharedJSON     []byte
		accessibleJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, teamID).Scan(&p.TeamID, &sharedJSON, &accessibleJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team permissions: %w", err)
	}
	if len(sharedJSON) > 0 {
		if err := json.Unmarshal(sharedJSON, &p.SharedTeams); err != nil {
			return nil, fmt.Errorf("unmarshal shared_teams: %w", err)
		}
	}
	if len(accessibleJSON) > 0 {
		if err := json.Unmarshal(accessibleJSON, &p.AccessibleTeams); err != nil {
			return nil, fmt.Errorf("unmarshal accessible_teams: %w", err)
		}
	}
	return &p, nil
}
