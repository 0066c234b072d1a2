package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitRequestRequest struct {
	Type           string `json:"type"`
	MediaID        int64  `json:"media_id"`
	MediaType      string `json:"media_type"`
	MediaTitle     string `json:"media_title"`
	MediaPoster    string `json:"media_poster,omitempty"`
	Description    string `json:"description,omitempty"`
	NotifyWhatsapp bool   `json:"notify_whatsapp,omitempty"`
}

type RequestResponse struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	MediaID         int64     `json:"media_id"`
	MediaType       string    `json:"media_type"`
	MediaTitle      string    `json:"media_title"`
	MediaPoster     string    `json:"media_poster,omitempty"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	Counter         int       `json:"counter"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	NotifyWhatsapp  bool      `json:"notify_whatsapp"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type OwnRequestsResponse struct {
	Items []RequestResponse `json:"items"`
}
