package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"emstrack-acl/internal/domain"

	"github.com/lib/pq"
)

// PostgresCallsRepository reads ambulance_call and its ambulance assignments
type PostgresCallsRepository struct {
	db *sql.DB
}

func NewPostgresCallsRepository(db *sql.DB) *PostgresCallsRepository {
	return &PostgresCallsRepository{db: db}
}

var _ CallsRepository = (*PostgresCallsRepository)(nil)

func (r *PostgresCallsRepository) GetCall(ctx context.Context, callID int64) (*domain.Call, error) {
	query := `
		SELECT
			c.id,
			COALESCE(
				array_agg(ac.ambulance_id ORDER BY ac.id) FILTER (WHERE ac.ambulance_id IS NOT NULL),
				'{}'
			) AS ambulance_ids
		FROM ambulance_call c
		LEFT JOIN ambulance_ambulancecall ac ON ac.call_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`

	var (
		call domain.Call
		ids  pq.Int64Array
	)
	err := r.db.QueryRowContext(ctx, query, callID).Scan(&call.ID, &ids)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("call %w: call_id=%d", ErrNotFound, callID)
		}
		return nil, fmt.Errorf("failed to query call: %w", err)
	}
	call.AmbulanceIDs = []int64(ids)
	return &call, nil
}
