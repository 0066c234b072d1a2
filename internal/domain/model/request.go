package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/tedex09/portalvd/internal/domain/enums"
)

// Request is one user's ask for a content action. Requests sharing
// (MediaID, MediaType, Type) form a group and carry the same Counter.
type Request struct {
	ID              uuid.UUID           `json:"id"`
	UserID          int64               `json:"user_id"`
	Type            enums.RequestType   `json:"type"`
	MediaID         int64               `json:"media_id"`
	MediaType       enums.MediaType     `json:"media_type"`
	MediaTitle      string              `json:"media_title"`
	MediaPoster     string              `json:"media_poster,omitempty"`
	Description     string              `json:"description,omitempty"`
	Status          enums.RequestStatus `json:"status"`
	Counter         int                 `json:"counter"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	NotifyWhatsapp  bool                `json:"notify_whatsapp"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// GroupKey identifies the set of requests asking for the same thing.
type GroupKey struct {
	MediaID   int64
	MediaType enums.MediaType
	Type      enums.RequestType
}
