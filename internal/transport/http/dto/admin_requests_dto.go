package dto

import (
	"time"

	"github.com/google/uuid"
)

type AdminRequestItem struct {
	RequestResponse
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

type AdminRequestsResponse struct {
	Items   []AdminRequestItem `json:"items"`
	Total   int64              `json:"total"`
	HasMore bool               `json:"has_more"`
}

type UpdateGroupStatusRequest struct {
	MediaID         int64  `json:"media_id"`
	MediaType       string `json:"media_type"`
	RequestType     string `json:"request_type"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type UpdateRequestStatusRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type UpdateStatusResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}

type GroupUserItem struct {
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	RequestID uuid.UUID `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupUsersResponse struct {
	Items []GroupUserItem `json:"items"`
}

type SweepResponse struct {
	Rejected int64 `json:"rejected"`
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}
