package models

import (
	"encoding/json"
	"time"
)

// CreateRecordRequest is the body of POST /api/v1/<kind>/.
type CreateRecordRequest struct {
	Name              string       `json:"name" validate:"required,max=100"`
	Amount            json.Number  `json:"amount" validate:"required,numeric"`
	RateOfReturn      *json.Number `json:"rate_of_return,omitempty" validate:"omitempty,numeric"`
	Contribution      *int64       `json:"contribution,omitempty" validate:"omitempty,gte=0"`
	ContributionYears *int         `json:"contribution_timeline_years,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ListRecordsRequest holds the query of GET /api/v1/<kind>/.
type ListRecordsRequest struct {
	Limit int `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// RecordResponse is the wire form of a Record. Money is rendered with two
// decimals as a string.
type RecordResponse struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	Name              string    `json:"name"`
	Amount            string    `json:"amount"`
	RateOfReturn      *string   `json:"rate_of_return,omitempty"`
	Contribution      *int64    `json:"contribution,omitempty"`
	ContributionYears *int      `json:"contribution_timeline_years,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// RecordSumResponse is returned by GET /api/v1/<kind>/sum/.
type RecordSumResponse struct {
	Kind  string `json:"kind"`
	Total string `json:"total"`
}

// NewRecordResponse renders r for the API.
func NewRecordResponse(r Record) RecordResponse {
	out := RecordResponse{
		ID:                r.ID,
		Kind:              string(r.Kind),
		Name:              r.Name,
		Amount:            r.Amount.StringFixed(2),
		Contribution:      r.Contribution,
		ContributionYears: r.ContributionYears,
		CreatedAt:         r.CreatedAt,
	}
	if r.RateOfReturn != nil {
		s := r.RateOfReturn.StringFixed(2)
		out.RateOfReturn = &s
	}
	return out
}
