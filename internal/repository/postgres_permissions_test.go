package repository

import (
	"context"
	"errors"
	"testing"

	"emstrack-acl/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grantColumns = []string{"subject_id", "kind", "resource_id", "equipmentholder_id", "can_read", "can_write"}

func TestListUserGrants(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresPermissionsRepository(db)

	rows := sqlmock.NewRows(grantColumns).
		AddRow(1, "ambulance", 3, 30, true, true).
		AddRow(1, "hospital", 5, nil, true, false)
	mock.ExpectQuery(`FROM login_userambulancepermission`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	grants, err := repo.ListUserGrants(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	assert.Equal(t, domain.SubjectUser, grants[0].SubjectKind)
	assert.Equal(t, domain.Ambulance, grants[0].Kind)
	assert.Equal(t, int64(3), grants[0].ResourceID)
	assert.True(t, grants[0].EquipmentHolderID.Valid)
	assert.Equal(t, int64(30), grants[0].EquipmentHolderID.Int64)
	assert.True(t, grants[0].CanWrite)

	assert.Equal(t, domain.Hospital, grants[1].Kind)
	assert.False(t, grants[1].EquipmentHolderID.Valid)
	assert.False(t, grants[1].CanWrite)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGroupGrants(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresPermissionsRepository(db)

	rows := sqlmock.NewRows(grantColumns).
		AddRow(10, "ambulance", 4, 40, true, false)
	mock.ExpectQuery(`JOIN auth_user_groups`).
		WithArgs(int64(6)).
		WillReturnRows(rows)

	grants, err := repo.ListGroupGrants(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, domain.SubjectGroup, grants[0].SubjectKind)
	assert.Equal(t, int64(10), grants[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUserGrants_UnknownKind(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresPermissionsRepository(db)

	rows := sqlmock.NewRows(grantColumns).AddRow(1, "helicopter", 3, nil, true, true)
	mock.ExpectQuery(`SELECT`).WithArgs(int64(1)).WillReturnRows(rows)

	_, err := repo.ListUserGrants(context.Background(), 1)
	assert.Error(t, err)
}

func TestListUserGrants_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresPermissionsRepository(db)

	mock.ExpectQuery(`SELECT`).WithArgs(int64(1)).WillReturnError(errors.New("timeout"))

	_, err := repo.ListUserGrants(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user grants")
}

func TestListResources(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresPermissionsRepository(db)

	rows := sqlmock.NewRows([]string{"kind", "id", "equipmentholder_id"}).
		AddRow("ambulance", 3, 30).
		AddRow("hospital", 5, nil)
	mock.ExpectQuery(`FROM ambulance_ambulance`).WillReturnRows(rows)

	resources, err := repo.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, domain.Ambulance, resources[0].Kind)
	assert.Equal(t, int64(3), resources[0].ID)
	assert.Equal(t, int64(30), resources[0].EquipmentHolderID.Int64)
	assert.Equal(t, domain.Hospital, resources[1].Kind)
	assert.False(t, resources[1].EquipmentHolderID.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
