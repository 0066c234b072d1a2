package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tedex09/portalvd/internal/domain/enums"
	"github.com/tedex09/portalvd/internal/domain/model"
	requestssvc "github.com/tedex09/portalvd/internal/services/requests"
	"github.com/tedex09/portalvd/internal/transport/http/dto"
	httperrors "github.com/tedex09/portalvd/internal/transport/http/errors"
)

type AdminRequestService interface {
	ListAdmin(ctx context.Context, query requestssvc.ListQuery) (requestssvc.Listing, error)
	UpdateGroupStatus(ctx context.Context, key model.GroupKey, status enums.RequestStatus, rejectionReason string) (int64, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status enums.RequestStatus, rejectionReason string) (int64, error)
	GroupUsers(ctx context.Context, key model.GroupKey) ([]requestssvc.GroupUser, error)
	SweepLowDemand(ctx context.Context, cutoffHours, demandThreshold int, message string) (int64, error)
	PurgeAll(ctx context.Context) (int64, error)
	InvalidateListingCache()
}

// SweepConfig carries the thresholds the manual sweep endpoint reuses from the
// scheduled job.
type SweepConfig struct {
	CutoffHours     int
	DemandThreshold int
	Reason          string
}

type AdminRequestsHandler struct {
	requests AdminRequestService
	sweep    SweepConfig
}

func NewAdminRequestsHandler(requests AdminRequestService, sweep SweepConfig) *AdminRequestsHandler {
	return &AdminRequestsHandler{
		requests: requests,
		sweep:    sweep,
	}
}

func (h *AdminRequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	query := requestssvc.ListQuery{
		MediaType:   strings.TrimSpace(r.URL.Query().Get("media_type")),
		RequestType: strings.TrimSpace(r.URL.Query().Get("request_type")),
		SortBy:      strings.TrimSpace(r.URL.Query().Get("sort_by")),
		SortOrder:   strings.TrimSpace(r.URL.Query().Get("sort_order")),
	}

	page, ok := positiveQueryInt(r, "page", 1)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "page must be a positive integer")
		return
	}
	limit, ok := positiveQueryInt(r, "limit", 10)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a positive integer")
		return
	}
	query.Page = page
	query.PageSize = limit

	listing, err := h.requests.ListAdmin(r.Context(), query)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list requests")
		return
	}

	items := make([]dto.AdminRequestItem, 0, len(listing.Items))
	for _, item := range listing.Items {
		items = append(items, dto.AdminRequestItem{
			RequestResponse: requestToResponse(item.Request),
			UserID:          item.Request.UserID,
			UserName:        item.UserName,
			UserEmail:       item.UserEmail,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.AdminRequestsResponse{
		Items:   items,
		Total:   listing.Total,
		HasMore: listing.HasMore,
	})
}

func (h *AdminRequestsHandler) UpdateGroupStatus(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	var payload dto.UpdateGroupStatusRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	updated, err := h.requests.UpdateGroupStatus(r.Context(), model.GroupKey{
		MediaID:   payload.MediaID,
		MediaType: enums.MediaType(payload.MediaType),
		Type:      enums.RequestType(payload.RequestType),
	}, enums.RequestStatus(payload.Status), payload.RejectionReason)
	if err != nil {
		writeUpdateError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UpdateStatusResponse{UpdatedCount: updated})
}

func (h *AdminRequestsHandler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request id")
		return
	}

	var payload dto.UpdateRequestStatusRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	updated, err := h.requests.UpdateRequestStatus(r.Context(), id, enums.RequestStatus(payload.Status), payload.RejectionReason)
	if err != nil {
		writeUpdateError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UpdateStatusResponse{UpdatedCount: updated})
}

func (h *AdminRequestsHandler) GroupUsers(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	mediaID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("media_id")), 10, 64)
	if err != nil || mediaID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "media_id must be a positive integer")
		return
	}

	key := model.GroupKey{
		MediaID:   mediaID,
		MediaType: enums.MediaType(strings.TrimSpace(r.URL.Query().Get("media_type"))),
		Type:      enums.RequestType(strings.TrimSpace(r.URL.Query().Get("request_type"))),
	}

	users, err := h.requests.GroupUsers(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, requestssvc.ErrInvalidInput):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid group key")
		case errors.Is(err, requestssvc.ErrNotFound):
			writeNotFound(w, "NOT_FOUND", "no requests found for group")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to list group users")
		}
		return
	}

	items := make([]dto.GroupUserItem, 0, len(users))
	for _, user := range users {
		items = append(items, dto.GroupUserItem{
			UserID:    user.UserID,
			Name:      user.Name,
			Email:     user.Email,
			Status:    string(user.Status),
			RequestID: user.RequestID,
			CreatedAt: user.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.GroupUsersResponse{Items: items})
}

func (h *AdminRequestsHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	rejected, err := h.requests.SweepLowDemand(r.Context(), h.sweep.CutoffHours, h.sweep.DemandThreshold, h.sweep.Reason)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to sweep low demand requests")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SweepResponse{Rejected: rejected})
}

func (h *AdminRequestsHandler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	h.requests.InvalidateListingCache()
	httperrors.Write(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminRequestsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeInternal(w, "REQUESTS_SERVICE_UNAVAILABLE", "requests service is unavailable")
		return
	}

	deleted, err := h.requests.PurgeAll(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to purge requests")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurgeResponse{Deleted: deleted})
}

func writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, requestssvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid status update payload")
	case errors.Is(err, requestssvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "no matching requests found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to update request status")
	}
}

func positiveQueryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
