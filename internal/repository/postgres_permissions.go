package repository

import (
	"context"
	"database/sql"
	"fmt"

	"emstrack-acl/internal/domain"
)

// PostgresPermissionsRepository reads the EMSTrack login_*permission tables.
// Joining the resource tables drops grants on deleted resources and brings
// along the equipment holder owned by each resource.
type PostgresPermissionsRepository struct {
	db *sql.DB
}

func NewPostgresPermissionsRepository(db *sql.DB) *PostgresPermissionsRepository {
	return &PostgresPermissionsRepository{db: db}
}

var _ PermissionsRepository = (*PostgresPermissionsRepository)(nil)

const userGrantsQuery = `
	SELECT p.user_id, 'ambulance' AS kind, p.ambulance_id, a.equipmentholder_id, p.can_read, p.can_write
	FROM login_userambulancepermission p
	JOIN ambulance_ambulance a ON a.id = p.ambulance_id
	WHERE p.user_id = $1
	UNION ALL
	SELECT p.user_id, 'hospital' AS kind, p.hospital_id, h.equipmentholder_id, p.can_read, p.can_write
	FROM login_userhospitalpermission p
	JOIN hospital_hospital h ON h.id = p.hospital_id
	WHERE p.user_id = $1
`

const groupGrantsQuery = `
	SELECT p.group_id, 'ambulance' AS kind, p.ambulance_id, a.equipmentholder_id, p.can_read, p.can_write
	FROM login_groupambulancepermission p
	JOIN auth_user_groups ug ON ug.group_id = p.group_id
	JOIN ambulance_ambulance a ON a.id = p.ambulance_id
	WHERE ug.user_id = $1
	UNION ALL
	SELECT p.group_id, 'hospital' AS kind, p.hospital_id, h.equipmentholder_id, p.can_read, p.can_write
	FROM login_grouphospitalpermission p
	JOIN auth_user_groups ug ON ug.group_id = p.group_id
	JOIN hospital_hospital h ON h.id = p.hospital_id
	WHERE ug.user_id = $1
`

const resourcesQuery = `
	SELECT 'ambulance' AS kind, id, equipmentholder_id FROM ambulance_ambulance
	UNION ALL
	SELECT 'hospital' AS kind, id, equipmentholder_id FROM hospital_hospital
`

func (r *PostgresPermissionsRepository) ListUserGrants(ctx context.Context, userID int64) ([]domain.Grant, error) {
	return r.listGrants(ctx, domain.SubjectUser, userGrantsQuery, userID)
}

func (r *PostgresPermissionsRepository) ListGroupGrants(ctx context.Context, userID int64) ([]domain.Grant, error) {
	return r.listGrants(ctx, domain.SubjectGroup, groupGrantsQuery, userID)
}

func (r *PostgresPermissionsRepository) listGrants(ctx context.Context, subject domain.SubjectKind, query string, userID int64) ([]domain.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s grants: %w", subject, err)
	}
	defer rows.Close()

	var grants []domain.Grant
	for rows.Next() {
		var (
			g    domain.Grant
			kind string
		)
		if err := rows.Scan(&g.SubjectID, &kind, &g.ResourceID, &g.EquipmentHolderID, &g.CanRead, &g.CanWrite); err != nil {
			return nil, fmt.Errorf("failed to scan %s grant: %w", subject, err)
		}
		g.SubjectKind = subject
		if g.Kind, err = domain.ParseResourceKind(kind); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s grants: %w", subject, err)
	}
	return grants, nil
}

func (r *PostgresPermissionsRepository) ListResources(ctx context.Context) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx, resourcesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var (
			res  domain.Resource
			kind string
		)
		if err := rows.Scan(&kind, &res.ID, &res.EquipmentHolderID); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if res.Kind, err = domain.ParseResourceKind(kind); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return resources, nil
}
