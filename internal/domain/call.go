package domain

// Call incident record (ambulance_call) with the ambulances assigned to it
type Call struct {
	ID           int64   `db:"id"`
	AmbulanceIDs []int64 `db:"ambulance_ids"`
}
