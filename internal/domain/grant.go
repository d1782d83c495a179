package domain

import "database/sql"

// SubjectKind who a grant is attached to
type SubjectKind string

const (
	SubjectUser  SubjectKind = "user"
	SubjectGroup SubjectKind = "group"
)

// Grant one row of login_{user,group}{ambulance,hospital}permission.
// EquipmentHolderID is the holder owned by the granted resource, if any.
type Grant struct {
	SubjectKind       SubjectKind   `db:"subject_kind"`
	SubjectID         int64         `db:"subject_id"`
	Kind              ResourceKind  `db:"kind"`
	ResourceID        int64         `db:"resource_id"`
	EquipmentHolderID sql.NullInt64 `db:"equipmentholder_id"`
	CanRead           bool          `db:"can_read"`
	CanWrite          bool          `db:"can_write"`
}
