package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tedex09/portalvd/internal/domain/enums"
	"github.com/tedex09/portalvd/internal/domain/model"
	authsvc "github.com/tedex09/portalvd/internal/services/auth"
	requestssvc "github.com/tedex09/portalvd/internal/services/requests"
	"github.com/tedex09/portalvd/internal/transport/http/dto"
)

func TestSubmitRequiresAuth(t *testing.T) {
	handler := NewRequestsHandler(&requestServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	handler.Submit(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestSubmitCreatesRequest(t *testing.T) {
	stub := &requestServiceStub{
		submitResult: model.Request{
			MediaID:    603,
			MediaType:  enums.MediaTypeMovie,
			MediaTitle: "Matrix",
			Status:     enums.RequestStatusPending,
			Counter:    1,
		},
	}
	handler := NewRequestsHandler(stub)

	body := `{"type":"add","media_id":603,"media_type":"movie","media_title":"Matrix"}`
	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 7, Role: enums.RoleUser}))
	rr := httptest.NewRecorder()

	handler.Submit(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if stub.submitUserID != 7 {
		t.Fatalf("expected submit for user 7, got %d", stub.submitUserID)
	}
	if stub.submitInput.MediaID != 603 || stub.submitInput.Type != enums.RequestTypeAdd {
		t.Fatalf("unexpected submit input: %+v", stub.submitInput)
	}

	var resp dto.RequestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Counter != 1 || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSubmitRejectsUnknownFields(t *testing.T) {
	handler := NewRequestsHandler(&requestServiceStub{})

	body := `{"type":"add","media_id":603,"media_type":"movie","media_title":"Matrix","bogus":true}`
	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 7, Role: enums.RoleUser}))
	rr := httptest.NewRecorder()

	handler.Submit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSubmitInvalidPayloadMapsToBadRequest(t *testing.T) {
	handler := NewRequestsHandler(&requestServiceStub{submitErr: requestssvc.ErrInvalidInput})

	body := `{"type":"remove","media_id":603,"media_type":"movie","media_title":"Matrix"}`
	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 7, Role: enums.RoleUser}))
	rr := httptest.NewRecorder()

	handler.Submit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	handler := NewRequestsHandler(&requestServiceStub{})
	handler.AttachSubmitLimiter(submitLimiterStub{retryAfter: 120, allowed: false})

	body := `{"type":"add","media_id":603,"media_type":"movie","media_title":"Matrix"}`
	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 7, Role: enums.RoleUser}))
	rr := httptest.NewRecorder()

	handler.Submit(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}

	var resp struct {
		RetryAfterSec int64 `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RetryAfterSec != 120 {
		t.Fatalf("unexpected retry_after_sec: %d", resp.RetryAfterSec)
	}
}

func TestListOwnReturnsRequests(t *testing.T) {
	stub := &requestServiceStub{
		ownRows: []model.Request{
			{MediaID: 603, MediaType: enums.MediaTypeMovie, MediaTitle: "Matrix", Status: enums.RequestStatusPending, Counter: 3},
		},
	}
	handler := NewRequestsHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 7, Role: enums.RoleUser}))
	rr := httptest.NewRecorder()

	handler.ListOwn(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp dto.OwnRequestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].MediaTitle != "Matrix" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if stub.ownUserID != 7 {
		t.Fatalf("expected listing for user 7, got %d", stub.ownUserID)
	}
}

type requestServiceStub struct {
	submitResult model.Request
	submitErr    error
	submitUserID int64
	submitInput  requestssvc.SubmitInput
	ownRows      []model.Request
	ownUserID    int64
}

func (s *requestServiceStub) Submit(_ context.Context, userID int64, in requestssvc.SubmitInput) (model.Request, error) {
	s.submitUserID = userID
	s.submitInput = in
	if s.submitErr != nil {
		return model.Request{}, s.submitErr
	}
	return s.submitResult, nil
}

func (s *requestServiceStub) ListByUser(_ context.Context, userID int64) ([]model.Request, error) {
	s.ownUserID = userID
	return s.ownRows, nil
}

type submitLimiterStub struct {
	retryAfter int64
	allowed    bool
	err        error
}

func (s submitLimiterStub) AllowSubmit(_ context.Context, _ int64) (int64, bool, error) {
	return s.retryAfter, s.allowed, s.err
}
