package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"emstrack-acl/internal/domain"
)

// MemoryStore in-process stand-in for the EMSTrack database, used when the
// DB is disabled (local development) and in tests. It implements all three
// repository interfaces.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User               // username -> user
	members   map[int64]map[int64]struct{}         // userID -> groupIDs
	grants    map[grantKey]domain.Grant            // subject+resource -> grant
	resources map[domain.ResourceRef]sql.NullInt64 // resource -> equipment holder
	calls     map[int64][]int64                    // callID -> ambulanceIDs
}

type grantKey struct {
	subject   domain.SubjectKind
	subjectID int64
	resource  domain.ResourceRef
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     map[string]domain.User{},
		members:   map[int64]map[int64]struct{}{},
		grants:    map[grantKey]domain.Grant{},
		resources: map[domain.ResourceRef]sql.NullInt64{},
		calls:     map[int64][]int64{},
	}
}

var (
	_ UsersRepository       = (*MemoryStore)(nil)
	_ PermissionsRepository = (*MemoryStore)(nil)
	_ CallsRepository       = (*MemoryStore)(nil)
)

// UpsertUser inserts or replaces by username
func (m *MemoryStore) UpsertUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = u
}

// AddMember puts userID in groupID
func (m *MemoryStore) AddMember(groupID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[userID] == nil {
		m.members[userID] = map[int64]struct{}{}
	}
	m.members[userID][groupID] = struct{}{}
}

// RemoveMember takes userID out of groupID
func (m *MemoryStore) RemoveMember(groupID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[userID], groupID)
}

// AddResource registers an ambulance or hospital. holderID <= 0 means no equipment holder.
func (m *MemoryStore) AddResource(ref domain.ResourceRef, holderID int64) error {
	if ref.Kind != domain.Ambulance && ref.Kind != domain.Hospital {
		return fmt.Errorf("resource kind %s cannot be stored directly", ref.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[ref] = sql.NullInt64{Int64: holderID, Valid: holderID > 0}
	return nil
}

// RemoveResource deletes a resource; its grants stop being listed.
func (m *MemoryStore) RemoveResource(ref domain.ResourceRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resources, ref)
}

// SetGrant inserts or replaces the grant for (subject, resource).
// EquipmentHolderID on g is ignored; it is resolved from the resource at read time.
func (m *MemoryStore) SetGrant(g domain.Grant) error {
	if g.SubjectKind != domain.SubjectUser && g.SubjectKind != domain.SubjectGroup {
		return fmt.Errorf("invalid grant subject: %q", g.SubjectKind)
	}
	if g.Kind != domain.Ambulance && g.Kind != domain.Hospital {
		return fmt.Errorf("grants on %s are derived from the owning resource", g.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[grantKey{g.SubjectKind, g.SubjectID, domain.ResourceRef{Kind: g.Kind, ID: g.ResourceID}}] = g
	return nil
}

// RevokeGrant removes the grant for (subject, resource) if present
func (m *MemoryStore) RevokeGrant(subject domain.SubjectKind, subjectID int64, ref domain.ResourceRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, grantKey{subject, subjectID, ref})
}

// SetCall inserts or replaces a call and its ambulance assignments
func (m *MemoryStore) SetCall(callID int64, ambulanceIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[callID] = append([]int64(nil), ambulanceIDs...)
}

func (m *MemoryStore) GetActiveUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok || !u.IsActive {
		return nil, fmt.Errorf("user %w: username=%s", ErrNotFound, username)
	}
	return &u, nil
}

func (m *MemoryStore) ListUserGrants(_ context.Context, userID int64) ([]domain.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectGrants(func(k grantKey) bool {
		return k.subject == domain.SubjectUser && k.subjectID == userID
	}), nil
}

func (m *MemoryStore) ListGroupGrants(_ context.Context, userID int64) ([]domain.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := m.members[userID]
	return m.collectGrants(func(k grantKey) bool {
		if k.subject != domain.SubjectGroup {
			return false
		}
		_, ok := groups[k.subjectID]
		return ok
	}), nil
}

// collectGrants caller holds m.mu
func (m *MemoryStore) collectGrants(match func(grantKey) bool) []domain.Grant {
	var out []domain.Grant
	for k, g := range m.grants {
		if !match(k) {
			continue
		}
		holder, exists := m.resources[k.resource]
		if !exists {
			continue
		}
		g.EquipmentHolderID = holder
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind.Less(out[j].Kind)
		}
		if out[i].ResourceID != out[j].ResourceID {
			return out[i].ResourceID < out[j].ResourceID
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}

func (m *MemoryStore) ListResources(_ context.Context) ([]domain.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Resource, 0, len(m.resources))
	for ref, holder := range m.resources {
		out = append(out, domain.Resource{Kind: ref.Kind, ID: ref.ID, EquipmentHolderID: holder})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind.Less(out[j].Kind)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetCall(_ context.Context, callID int64) (*domain.Call, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.calls[callID]
	if !ok {
		return nil, fmt.Errorf("call %w: call_id=%d", ErrNotFound, callID)
	}
	return &domain.Call{ID: callID, AmbulanceIDs: append([]int64(nil), ids...)}, nil
}
