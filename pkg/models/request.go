package models

import "time"

// Test request statuses. A request leaves the candidate pool once it is
// completed or rejected.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusCompleted = "completed"
	RequestStatusRejected  = "rejected"
)

// Request is a scheduled SSAS test request filed for a vessel.
type Request struct {
	ID              int64      `db:"id" json:"id"`
	VesselName      string     `db:"vessel_name" json:"vesselName"`
	SSASNumber      *string    `db:"ssas_number" json:"ssasNumber,omitempty"`
	MMSI            *string    `db:"mmsi" json:"mmsi,omitempty"`
	IMONumber       *string    `db:"imo_number" json:"imoNumber,omitempty"`
	PlannedTestDate *time.Time `db:"planned_test_date" json:"plannedTestDate,omitempty"`
	TestDate        *time.Time `db:"test_date" json:"testDate,omitempty"`
	Status          string     `db:"status" json:"status"`
	SignalID        *int64     `db:"signal_id" json:"signalId,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// CreateRequestRequest is the payload for filing a new test request.
type CreateRequestRequest struct {
	VesselName      string     `json:"vesselName" validate:"required"`
	SSASNumber      *string    `json:"ssasNumber"`
	MMSI            *string    `json:"mmsi" validate:"omitempty,len=9,numeric"`
	IMONumber       *string    `json:"imoNumber" validate:"omitempty,len=7,numeric"`
	PlannedTestDate *time.Time `json:"plannedTestDate"`
}

// TestWindow returns the instant the test is expected around, preferring the
// planned date over the recorded one.
func (r *Request) TestWindow() *time.Time {
	if r.PlannedTestDate != nil {
		return r.PlannedTestDate
	}
	return r.TestDate
}

// IsOpen reports whether the request can still receive a signal.
func (r *Request) IsOpen() bool {
	return r.Status == RequestStatusPending || r.Status == RequestStatusApproved
}
