package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"emstrack-acl/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.UpsertUser(domain.User{ID: 1, Username: "alice", IsActive: true})
	m.UpsertUser(domain.User{ID: 2, Username: "carol"})

	u, err := m.GetActiveUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = m.GetActiveUserByUsername(ctx, "carol")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = m.GetActiveUserByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Grants(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.AddResource(domain.AmbulanceRef(3), 30))
	require.NoError(t, m.AddResource(domain.HospitalRef(5), 0))

	require.NoError(t, m.SetGrant(domain.Grant{SubjectKind: domain.SubjectUser, SubjectID: 1, Kind: domain.Hospital, ResourceID: 5, CanRead: true}))
	require.NoError(t, m.SetGrant(domain.Grant{SubjectKind: domain.SubjectUser, SubjectID: 1, Kind: domain.Ambulance, ResourceID: 3, CanRead: true}))
	require.NoError(t, m.SetGrant(domain.Grant{SubjectKind: domain.SubjectUser, SubjectID: 1, Kind: domain.Ambulance, ResourceID: 99, CanRead: true}))
	require.NoError(t, m.SetGrant(domain.Grant{SubjectKind: domain.SubjectGroup, SubjectID: 10, Kind: domain.Ambulance, ResourceID: 3, CanWrite: true}))
	m.AddMember(10, 1)

	grants, err := m.ListUserGrants(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grants, 2, "grant on a missing resource is dropped")
	assert.Equal(t, domain.Ambulance, grants[0].Kind)
	assert.Equal(t, int64(30), grants[0].EquipmentHolderID.Int64)
	assert.Equal(t, domain.Hospital, grants[1].Kind)
	assert.False(t, grants[1].EquipmentHolderID.Valid)

	group, err := m.ListGroupGrants(ctx, 1)
	require.NoError(t, err)
	require.Len(t, group, 1)
	assert.True(t, group[0].CanWrite)

	m.RemoveMember(10, 1)
	group, err = m.ListGroupGrants(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, group)

	m.RevokeGrant(domain.SubjectUser, 1, domain.HospitalRef(5))
	m.RemoveResource(domain.AmbulanceRef(3))
	grants, err = m.ListUserGrants(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestMemoryStore_RejectsInvalidGrants(t *testing.T) {
	m := NewMemoryStore()

	assert.Error(t, m.SetGrant(domain.Grant{SubjectKind: "role", Kind: domain.Hospital, ResourceID: 1}))
	assert.Error(t, m.SetGrant(domain.Grant{SubjectKind: domain.SubjectUser, Kind: domain.Equipment, ResourceID: 1}))
	assert.Error(t, m.AddResource(domain.EquipmentRef(1), 0))
}

func TestMemoryStore_Calls(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SetCall(7, 3, 4)

	call, err := m.GetCall(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, call.AmbulanceIDs)

	_, err = m.GetCall(ctx, 8)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_ListResourcesSorted(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.AddResource(domain.HospitalRef(1), 0))
	require.NoError(t, m.AddResource(domain.AmbulanceRef(9), 0))
	require.NoError(t, m.AddResource(domain.AmbulanceRef(2), 20))

	res, err := m.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, domain.AmbulanceRef(2), domain.ResourceRef{Kind: res[0].Kind, ID: res[0].ID})
	assert.Equal(t, domain.AmbulanceRef(9), domain.ResourceRef{Kind: res[1].Kind, ID: res[1].ID})
	assert.Equal(t, domain.HospitalRef(1), domain.ResourceRef{Kind: res[2].Kind, ID: res[2].ID})
}

const seedYAML = `
users:
  - {id: 1, username: alice, is_active: true}
  - {id: 2, username: sam, is_active: true, is_staff: true}
groups:
  - {id: 10, name: dispatch, members: [1]}
ambulances:
  - {id: 3, equipmentholder_id: 30}
hospitals:
  - {id: 5}
grants:
  - {subject: user, subject_id: 1, kind: hospital, resource_id: 5, can_read: true}
  - {subject: group, subject_id: 10, kind: ambulance, resource_id: 3, can_read: true, can_write: true}
calls:
  - {id: 7, ambulances: [3]}
`

func TestSeed_Apply(t *testing.T) {
	ctx := context.Background()
	seed, err := LoadSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	m := NewMemoryStore()
	require.NoError(t, seed.Apply(m))

	u, err := m.GetActiveUserByUsername(ctx, "sam")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)

	grants, err := m.ListUserGrants(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, domain.Hospital, grants[0].Kind)

	group, err := m.ListGroupGrants(ctx, 1)
	require.NoError(t, err)
	require.Len(t, group, 1)
	assert.Equal(t, int64(30), group[0].EquipmentHolderID.Int64)

	call, err := m.GetCall(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, call.AmbulanceIDs)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("unknown_section: []\n"))
	assert.Error(t, err)

	_, err = LoadSeed(strings.NewReader("grants:\n  - {subject: user, kind: helicopter}\n"))
	assert.Error(t, err)

	seed, err := LoadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.NoError(t, seed.Apply(NewMemoryStore()))

	seed, err = LoadSeed(strings.NewReader("grants:\n  - {subject: role, subject_id: 1, kind: hospital, resource_id: 1}\n"))
	require.NoError(t, err)
	assert.Error(t, seed.Apply(NewMemoryStore()))
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("/nonexistent/seed.yaml")
	assert.Error(t, err)
}
