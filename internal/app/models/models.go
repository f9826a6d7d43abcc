package models

// RequestStatus defines the lifecycle state of a song request
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusPlayed   RequestStatus = "played"
)

// Valid reports whether s is one of the known request statuses
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPlayed:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusPlayed
}
