package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tedex09/portalvd/internal/domain/enums"
	"github.com/tedex09/portalvd/internal/domain/model"
	authsvc "github.com/tedex09/portalvd/internal/services/auth"
	requestssvc "github.com/tedex09/portalvd/internal/services/requests"
	"github.com/tedex09/portalvd/internal/transport/http/dto"
	httperrors "github.com/tedex09/portalvd/internal/transport/http/errors"
)

type RequestSubmitter interface {
	Submit(ctx context.Context, userID int64, in requestssvc.SubmitInput) (model.Request, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Request, error)
}

type SubmitLimiter interface {
	AllowSubmit(ctx context.Context, userID int64) (int64, bool, error)
}

type RequestsHandler struct {
	requests RequestSubmitter
	limiter  SubmitLimiter
}

func NewRequestsHandler(requests RequestSubmitter) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

func (h *RequestsHandler) AttachSubmitLimiter(limiter SubmitLimiter) {
	h.limiter = limiter
}

func (h *RequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowSubmit(r.Context(), identity.UserID)
		if err != nil {
			writeInternal(w, "INTERNAL_ERROR", "failed to check submission limits")
			return
		}
		if !allowed {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "submission limit reached, try again later",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	var payload dto.SubmitRequestRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	created, err := h.requests.Submit(r.Context(), identity.UserID, requestssvc.SubmitInput{
		Type:           enums.RequestType(payload.Type),
		MediaID:        payload.MediaID,
		MediaType:      enums.MediaType(payload.MediaType),
		MediaTitle:     payload.MediaTitle,
		MediaPoster:    payload.MediaPoster,
		Description:    payload.Description,
		NotifyWhatsapp: payload.NotifyWhatsapp,
	})
	if err != nil {
		if errors.Is(err, requestssvc.ErrInvalidInput) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to create request")
		return
	}

	httperrors.Write(w, http.StatusCreated, requestToResponse(created))
}

func (h *RequestsHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	rows, err := h.requests.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list requests")
		return
	}

	items := make([]dto.RequestResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, requestToResponse(row))
	}

	httperrors.Write(w, http.StatusOK, dto.OwnRequestsResponse{Items: items})
}

func requestToResponse(req model.Request) dto.RequestResponse {
	return dto.RequestResponse{
		ID:              req.ID,
		Type:            string(req.Type),
		MediaID:         req.MediaID,
		MediaType:       string(req.MediaType),
		MediaTitle:      req.MediaTitle,
		MediaPoster:     req.MediaPoster,
		Description:     req.Description,
		Status:          string(req.Status),
		Counter:         req.Counter,
		RejectionReason: req.RejectionReason,
		NotifyWhatsapp:  req.NotifyWhatsapp,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}
