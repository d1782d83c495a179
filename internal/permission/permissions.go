package permission

import (
	"database/sql"
	"fmt"

	"emstrack-acl/internal/domain"
)

// Access capability bits for one resource
type Access struct {
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
}

// Permissions effective permission set of one user.
// Values handed out by Store are shared through the cache and must not be modified.
type Permissions struct {
	Ambulances map[int64]Access `json:"ambulances"`
	Hospitals  map[int64]Access `json:"hospitals"`
	Equipment  map[int64]Access `json:"equipment"`
}

func NewPermissions() *Permissions {
	return &Permissions{
		Ambulances: map[int64]Access{},
		Hospitals:  map[int64]Access{},
		Equipment:  map[int64]Access{},
	}
}

// Build merges direct and group grants with logical OR. Admin users get
// read and write on every listed resource.
func Build(user *domain.User, grants []domain.Grant, resources []domain.Resource) *Permissions {
	p := NewPermissions()
	if user.IsAdmin() {
		for _, r := range resources {
			p.merge(domain.ResourceRef{Kind: r.Kind, ID: r.ID}, r.EquipmentHolderID, Access{CanRead: true, CanWrite: true})
		}
	}
	for _, g := range grants {
		p.merge(domain.ResourceRef{Kind: g.Kind, ID: g.ResourceID}, g.EquipmentHolderID, Access{CanRead: g.CanRead, CanWrite: g.CanWrite})
	}
	return p
}

func (p *Permissions) table(kind domain.ResourceKind) map[int64]Access {
	switch kind {
	case domain.Ambulance:
		return p.Ambulances
	case domain.Hospital:
		return p.Hospitals
	case domain.Equipment:
		return p.Equipment
	default:
		return nil
	}
}

// merge ORs a into the entry for ref and, when ref owns an equipment holder,
// into the holder's entry as well.
func (p *Permissions) merge(ref domain.ResourceRef, holder sql.NullInt64, a Access) {
	t := p.table(ref.Kind)
	if t == nil {
		return
	}
	cur := t[ref.ID]
	t[ref.ID] = Access{CanRead: cur.CanRead || a.CanRead, CanWrite: cur.CanWrite || a.CanWrite}

	if holder.Valid && ref.Kind != domain.Equipment {
		p.merge(domain.EquipmentRef(holder.Int64), sql.NullInt64{}, a)
	}
}

// Lookup returns ErrResourceNotFound when ref is absent from the set
func (p *Permissions) Lookup(ref domain.ResourceRef) (Access, error) {
	t := p.table(ref.Kind)
	if t == nil {
		return Access{}, fmt.Errorf("invalid resource kind %s", ref.Kind)
	}
	a, ok := t[ref.ID]
	if !ok {
		return Access{}, fmt.Errorf("%w: %s", ErrResourceNotFound, ref)
	}
	return a, nil
}

func (p *Permissions) CanRead(ref domain.ResourceRef) (bool, error) {
	a, err := p.Lookup(ref)
	if err != nil {
		return false, err
	}
	return a.CanRead, nil
}

func (p *Permissions) CanWrite(ref domain.ResourceRef) (bool, error) {
	a, err := p.Lookup(ref)
	if err != nil {
		return false, err
	}
	return a.CanWrite, nil
}
