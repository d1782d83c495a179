package permission

import (
	"database/sql"
	"errors"
	"testing"

	"emstrack-acl/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holder(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

func TestBuild_ORMergesGrants(t *testing.T) {
	user := &domain.User{ID: 1, Username: "alice", IsActive: true}
	grants := []domain.Grant{
		{SubjectKind: domain.SubjectUser, SubjectID: 1, Kind: domain.Ambulance, ResourceID: 3, CanRead: true},
		{SubjectKind: domain.SubjectGroup, SubjectID: 10, Kind: domain.Ambulance, ResourceID: 3, CanWrite: true},
		{SubjectKind: domain.SubjectGroup, SubjectID: 11, Kind: domain.Ambulance, ResourceID: 3},
		{SubjectKind: domain.SubjectUser, SubjectID: 1, Kind: domain.Hospital, ResourceID: 5},
	}

	p := Build(user, grants, nil)

	assert.Equal(t, Access{CanRead: true, CanWrite: true}, p.Ambulances[3])
	a, err := p.Lookup(domain.HospitalRef(5))
	require.NoError(t, err, "a grant with no capability still lists the resource")
	assert.Equal(t, Access{}, a)
}

func TestBuild_EquipmentFollowsHolder(t *testing.T) {
	user := &domain.User{ID: 1, Username: "alice", IsActive: true}
	grants := []domain.Grant{
		{Kind: domain.Ambulance, ResourceID: 3, EquipmentHolderID: holder(30), CanRead: true},
		{Kind: domain.Hospital, ResourceID: 5, EquipmentHolderID: holder(30), CanWrite: true},
		{Kind: domain.Hospital, ResourceID: 6, CanRead: true},
	}

	p := Build(user, grants, nil)

	assert.Equal(t, Access{CanRead: true, CanWrite: true}, p.Equipment[30])
	assert.Len(t, p.Equipment, 1)

	ok, err := p.CanRead(domain.EquipmentRef(30))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuild_AdminSeesEverything(t *testing.T) {
	resources := []domain.Resource{
		{Kind: domain.Ambulance, ID: 3, EquipmentHolderID: holder(30)},
		{Kind: domain.Hospital, ID: 5},
	}

	for _, user := range []*domain.User{
		{ID: 1, Username: "root", IsActive: true, IsSuperuser: true},
		{ID: 2, Username: "sam", IsActive: true, IsStaff: true},
	} {
		p := Build(user, nil, resources)
		assert.Equal(t, Access{CanRead: true, CanWrite: true}, p.Ambulances[3], user.Username)
		assert.Equal(t, Access{CanRead: true, CanWrite: true}, p.Hospitals[5], user.Username)
		assert.Equal(t, Access{CanRead: true, CanWrite: true}, p.Equipment[30], user.Username)
	}

	p := Build(&domain.User{ID: 3, Username: "alice", IsActive: true}, nil, resources)
	assert.Empty(t, p.Ambulances)
	assert.Empty(t, p.Hospitals)
}

func TestLookup_Missing(t *testing.T) {
	p := NewPermissions()

	_, err := p.CanRead(domain.AmbulanceRef(1))
	assert.True(t, errors.Is(err, ErrResourceNotFound))

	_, err = p.CanWrite(domain.HospitalRef(1))
	assert.True(t, errors.Is(err, ErrResourceNotFound))

	_, err = p.Lookup(domain.ResourceRef{Kind: domain.ResourceKind(9), ID: 1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrResourceNotFound))
}
