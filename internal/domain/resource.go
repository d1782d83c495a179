package domain

import (
	"database/sql"
	"fmt"
)

// ResourceKind kinds of resources a grant can target.
// The numeric value is also the listing order.
type ResourceKind int

const (
	Ambulance ResourceKind = iota + 1
	Hospital
	Equipment
)

var resourceKindNames = map[ResourceKind]string{
	Ambulance: "ambulance",
	Hospital:  "hospital",
	Equipment: "equipment",
}

func (k ResourceKind) String() string {
	if name, ok := resourceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

// Valid reports whether k is a known kind
func (k ResourceKind) Valid() bool {
	_, ok := resourceKindNames[k]
	return ok
}

// Less total order: ambulance < hospital < equipment
func (k ResourceKind) Less(other ResourceKind) bool {
	return k < other
}

// ParseResourceKind parses "ambulance", "hospital" or "equipment"
func ParseResourceKind(s string) (ResourceKind, error) {
	for k, name := range resourceKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid resource kind: %q", s)
}

// UnmarshalYAML lets fixtures spell kinds by name
func (k *ResourceKind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseResourceKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ResourceRef names exactly one resource of one kind
type ResourceRef struct {
	Kind ResourceKind
	ID   int64
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s=%d", r.Kind, r.ID)
}

// AmbulanceRef, HospitalRef and EquipmentRef are shorthands for ResourceRef literals.
func AmbulanceRef(id int64) ResourceRef { return ResourceRef{Kind: Ambulance, ID: id} }
func HospitalRef(id int64) ResourceRef  { return ResourceRef{Kind: Hospital, ID: id} }
func EquipmentRef(id int64) ResourceRef { return ResourceRef{Kind: Equipment, ID: id} }

// Resource an ambulance or hospital, with the equipment holder it owns
type Resource struct {
	Kind              ResourceKind  `db:"kind"`
	ID                int64         `db:"id"`
	EquipmentHolderID sql.NullInt64 `db:"equipmentholder_id"`
}
