package domain

// User EMSTrack account (auth_user). Read-only here.
type User struct {
	ID          int64  `db:"id" yaml:"id"`
	Username    string `db:"username" yaml:"username"`
	IsActive    bool   `db:"is_active" yaml:"is_active"`
	IsSuperuser bool   `db:"is_superuser" yaml:"is_superuser"`
	IsStaff     bool   `db:"is_staff" yaml:"is_staff"`
}

// IsAdmin superusers and staff see every ambulance and hospital
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.IsStaff
}
