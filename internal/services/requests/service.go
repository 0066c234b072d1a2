package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tedex09/portalvd/internal/cache"
	"github.com/tedex09/portalvd/internal/domain/enums"
	"github.com/tedex09/portalvd/internal/domain/model"
	"github.com/tedex09/portalvd/internal/pkg/validate"
	pgrepo "github.com/tedex09/portalvd/internal/repo/postgres"
)

const (
	listingCacheTag    = "listing"
	listingCachePrefix = "admin:requests:"
	purgeBatchSize     = 1000
)

var (
	ErrNotFound     = errors.New("no matching requests found")
	ErrInvalidInput = errors.New("invalid request payload")
)

type RequestStore interface {
	CreateAggregated(ctx context.Context, req model.Request) (model.Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Request, error)
	FindByGroup(ctx context.Context, key model.GroupKey) ([]model.Request, error)
	UpdateStatusByGroup(ctx context.Context, key model.GroupKey, status enums.RequestStatus, rejectionReason string) ([]model.Request, int64, error)
	UpdateStatusByID(ctx context.Context, id uuid.UUID, status enums.RequestStatus, rejectionReason string) (model.Request, error)
	RejectLowDemand(ctx context.Context, cutoff time.Time, threshold int, reason string) ([]model.Request, error)
	List(ctx context.Context, filter pgrepo.ListFilter) ([]pgrepo.RequestWithUser, int64, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Request, error)
	DeleteAll(ctx context.Context, batchSize int) (int64, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
}

type Notifier interface {
	Send(ctx context.Context, to, message string) error
}

type Config struct {
	ListingTTL    time.Duration
	FanoutWorkers int
}

type Service struct {
	requests RequestStore
	users    UserStore
	notifier Notifier
	cache    *cache.Memory
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger
}

type SubmitInput struct {
	Type           enums.RequestType
	MediaID        int64
	MediaType      enums.MediaType
	MediaTitle     string
	MediaPoster    string
	Description    string
	NotifyWhatsapp bool
}

type ListQuery struct {
	Page        int
	PageSize    int
	MediaType   string
	RequestType string
	SortBy      string
	SortOrder   string
}

type Listing struct {
	Items   []pgrepo.RequestWithUser `json:"items"`
	Total   int64                    `json:"total"`
	HasMore bool                     `json:"has_more"`
}

type GroupUser struct {
	UserID    int64               `json:"user_id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Status    enums.RequestStatus `json:"status"`
	RequestID uuid.UUID           `json:"request_id"`
	CreatedAt time.Time           `json:"created_at"`
}

func NewService(requests RequestStore, users UserStore, notifier Notifier, listingCache *cache.Memory, cfg Config, logger *zap.Logger) *Service {
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 5 * time.Minute
	}
	if cfg.FanoutWorkers <= 0 {
		cfg.FanoutWorkers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		requests: requests,
		users:    users,
		notifier: notifier,
		cache:    listingCache,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// Submit records one user's ask. Duplicate submissions for the same
// (mediaId, mediaType, type) fold into the existing group: every sibling's
// counter is bumped and the new row carries the same value.
func (s *Service) Submit(ctx context.Context, userID int64, in SubmitInput) (model.Request, error) {
	if userID <= 0 {
		return model.Request{}, fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	}
	if s.requests == nil {
		return model.Request{}, fmt.Errorf("request store is not configured")
	}
	if in.MediaID <= 0 {
		return model.Request{}, fmt.Errorf("%w: media id is required", ErrInvalidInput)
	}
	if !in.MediaType.Valid() {
		return model.Request{}, fmt.Errorf("%w: invalid media type %q", ErrInvalidInput, in.MediaType)
	}
	if !in.Type.Valid() {
		return model.Request{}, fmt.Errorf("%w: invalid request type %q", ErrInvalidInput, in.Type)
	}
	if !validate.Required(in.MediaTitle) {
		return model.Request{}, fmt.Errorf("%w: media title is required", ErrInvalidInput)
	}

	created, err := s.requests.CreateAggregated(ctx, model.Request{
		UserID:         userID,
		Type:           in.Type,
		MediaID:        in.MediaID,
		MediaType:      in.MediaType,
		MediaTitle:     strings.TrimSpace(in.MediaTitle),
		MediaPoster:    in.MediaPoster,
		Description:    in.Description,
		NotifyWhatsapp: in.NotifyWhatsapp,
	})
	if err != nil {
		return model.Request{}, err
	}

	s.invalidateListing()

	return created, nil
}

// ListAdmin serves the paginated admin listing through the TTL cache.
func (s *Service) ListAdmin(ctx context.Context, query ListQuery) (Listing, error) {
	if s.requests == nil {
		return Listing{}, fmt.Errorf("request store is not configured")
	}

	query = normalizeListQuery(query)
	key := listingCacheKey(query)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if listing, ok := cached.(Listing); ok {
				return listing, nil
			}
		}
	}

	filter := pgrepo.ListFilter{
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Limit:     query.PageSize,
		Offset:    (query.Page - 1) * query.PageSize,
	}
	if query.MediaType != "all" {
		filter.MediaType = enums.MediaType(query.MediaType)
	}
	if query.RequestType != "all" {
		filter.RequestType = enums.RequestType(query.RequestType)
	}

	items, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return Listing{}, err
	}

	listing := Listing{
		Items:   items,
		Total:   total,
		HasMore: int64(filter.Offset+filter.Limit) < total,
	}

	if s.cache != nil {
		s.cache.Set(key, listing, s.cfg.ListingTTL, listingCacheTag)
	}

	return listing, nil
}

// ListByUser returns one user's own requests, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]model.Request, error) {
	if s.requests == nil {
		return nil, fmt.Errorf("request store is not configured")
	}
	return s.requests.ListByUser(ctx, userID)
}

// UpdateGroupStatus cascades a status change to every request in the group,
// notifies opted-in owners whose status actually changed, and invalidates the
// listing cache.
func (s *Service) UpdateGroupStatus(ctx context.Context, key model.GroupKey, status enums.RequestStatus, rejectionReason string) (int64, error) {
	if s.requests == nil {
		return 0, fmt.Errorf("request store is not configured")
	}
	if key.MediaID <= 0 || !key.MediaType.Valid() || !key.Type.Valid() {
		return 0, fmt.Errorf("%w: invalid group key", ErrInvalidInput)
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}

	prior, updated, err := s.requests.UpdateStatusByGroup(ctx, key, status, rejectionReason)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRequestNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	s.notifyStatusChange(ctx, prior, status, rejectionReason)
	s.invalidateListing()

	return updated, nil
}

// UpdateRequestStatus updates one request by id. Requests that are part of a
// larger group take the cascade path; a counter of 1 means the row is its own
// group and a single-row update suffices.
func (s *Service) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status enums.RequestStatus, rejectionReason string) (int64, error) {
	if s.requests == nil {
		return 0, fmt.Errorf("request store is not configured")
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRequestNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if req.Counter > 1 {
		return s.UpdateGroupStatus(ctx, model.GroupKey{
			MediaID:   req.MediaID,
			MediaType: req.MediaType,
			Type:      req.Type,
		}, status, rejectionReason)
	}

	prior, err := s.requests.UpdateStatusByID(ctx, id, status, rejectionReason)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRequestNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	s.notifyStatusChange(ctx, []model.Request{prior}, status, rejectionReason)
	s.invalidateListing()

	return 1, nil
}

// SweepLowDemand rejects pending requests older than cutoffHours whose counter
// sits below demandThreshold. Affected owners go through the same notification
// path as manual status updates.
func (s *Service) SweepLowDemand(ctx context.Context, cutoffHours, demandThreshold int, message string) (int64, error) {
	if s.requests == nil {
		return 0, fmt.Errorf("request store is not configured")
	}
	if cutoffHours <= 0 || demandThreshold <= 0 {
		return 0, fmt.Errorf("%w: invalid sweep thresholds", ErrInvalidInput)
	}

	cutoff := s.now().Add(-time.Duration(cutoffHours) * time.Hour)
	affected, err := s.requests.RejectLowDemand(ctx, cutoff, demandThreshold, message)
	if err != nil {
		return 0, err
	}
	if len(affected) == 0 {
		return 0, nil
	}

	// RejectLowDemand only touches pending rows, so every affected row is a
	// real status change.
	priors := make([]model.Request, len(affected))
	for i, req := range affected {
		prior := req
		prior.Status = enums.RequestStatusPending
		priors[i] = prior
	}
	s.notifyStatusChange(ctx, priors, enums.RequestStatusRejected, message)
	s.invalidateListing()

	return int64(len(affected)), nil
}

// GroupUsers lists the users behind one group for the admin dashboard.
func (s *Service) GroupUsers(ctx context.Context, key model.GroupKey) ([]GroupUser, error) {
	if s.requests == nil || s.users == nil {
		return nil, fmt.Errorf("request service dependencies are not configured")
	}
	if key.MediaID <= 0 || !key.MediaType.Valid() || !key.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid group key", ErrInvalidInput)
	}

	group, err := s.requests.FindByGroup(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, ErrNotFound
	}

	users := make([]GroupUser, 0, len(group))
	for _, req := range group {
		user, err := s.users.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				s.logger.Warn("request owner missing, skipping in group listing",
					zap.Int64("user_id", req.UserID),
					zap.String("request_id", req.ID.String()),
				)
				continue
			}
			return nil, err
		}
		users = append(users, GroupUser{
			UserID:    user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Status:    req.Status,
			RequestID: req.ID,
			CreatedAt: req.CreatedAt,
		})
	}

	return users, nil
}

// PurgeAll deletes every request in batches and drops the listing cache.
func (s *Service) PurgeAll(ctx context.Context) (int64, error) {
	if s.requests == nil {
		return 0, fmt.Errorf("request store is not configured")
	}

	deleted, err := s.requests.DeleteAll(ctx, purgeBatchSize)
	if err != nil {
		return deleted, err
	}

	s.InvalidateListingCache()

	return deleted, nil
}

// InvalidateListingCache drops every cached admin listing page.
func (s *Service) InvalidateListingCache() {
	if s.cache == nil {
		return
	}
	s.cache.Delete(listingCachePrefix + "*")
}

func (s *Service) invalidateListing() {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateTag(listingCacheTag)
}

// notifyStatusChange fans out WhatsApp notifications with bounded concurrency.
// Only owners whose status actually changed and who opted in are notified.
// Failures are logged and swallowed; they never fail the triggering update.
func (s *Service) notifyStatusChange(ctx context.Context, prior []model.Request, status enums.RequestStatus, rejectionReason string) {
	if s.notifier == nil || s.users == nil {
		return
	}

	candidates := make([]model.Request, 0, len(prior))
	for _, req := range prior {
		if req.Status != status && req.NotifyWhatsapp {
			candidates = append(candidates, req)
		}
	}
	if len(candidates) == 0 {
		return
	}

	jobs := make(chan model.Request)
	var wg sync.WaitGroup

	workers := s.cfg.FanoutWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				s.notifyOne(ctx, req, status, rejectionReason)
			}
		}()
	}

	for _, req := range candidates {
		jobs <- req
	}
	close(jobs)
	wg.Wait()
}

func (s *Service) notifyOne(ctx context.Context, req model.Request, status enums.RequestStatus, rejectionReason string) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("resolve request owner for notification failed",
			zap.Error(err),
			zap.Int64("user_id", req.UserID),
		)
		return
	}
	if strings.TrimSpace(user.Whatsapp) == "" {
		return
	}

	message := BuildWhatsappMessage(user.Name, req.MediaTitle, status, rejectionReason)
	if err := s.notifier.Send(ctx, user.Whatsapp, message); err != nil {
		s.logger.Warn("send whatsapp notification failed",
			zap.Error(err),
			zap.Int64("user_id", req.UserID),
			zap.String("request_id", req.ID.String()),
		)
	}
}

func normalizeListQuery(query ListQuery) ListQuery {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 10
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}
	if query.MediaType == "" {
		query.MediaType = "all"
	}
	if query.RequestType == "" {
		query.RequestType = "all"
	}
	if query.SortBy == "" {
		query.SortBy = "none"
	}
	if query.SortOrder == "" {
		query.SortOrder = "desc"
	}
	return query
}

func listingCacheKey(query ListQuery) string {
	return fmt.Sprintf("%s%d:%d:%s:%s:%s:%s",
		listingCachePrefix,
		query.Page,
		query.PageSize,
		query.MediaType,
		query.RequestType,
		query.SortBy,
		query.SortOrder,
	)
}
