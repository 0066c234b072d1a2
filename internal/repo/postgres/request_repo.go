package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tedex09/portalvd/internal/domain/enums"
	"github.com/tedex09/portalvd/internal/domain/model"
)

var ErrRequestNotFound = errors.New("request not found")

type RequestRepo struct {
	pool *pgxpool.Pool
}

// RequestWithUser is a listing row joined with the requester's display data.
type RequestWithUser struct {
	Request   model.Request
	UserName  string
	UserEmail string
}

type ListFilter struct {
	MediaType   enums.MediaType
	RequestType enums.RequestType
	SortBy      string
	SortOrder   string
	Limit       int
	Offset      int
}

const requestColumns = `id, user_id, type, media_id, media_type, media_title, media_poster, description, status, counter, COALESCE(rejection_reason, ''), notify_whatsapp, created_at, updated_at`

func NewRequestRepo(pool *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{pool: pool}
}

// CreateAggregated inserts a new request row, folding it into its duplicate
// group in one transaction: every existing row sharing (media_id, media_type,
// type) gets its counter bumped, and the new row is created carrying the same
// counter. With no existing group the row starts at counter 1.
//
// Submissions for one group are serialized with a transaction-scoped advisory
// lock. Row locks alone are not enough at READ COMMITTED: two concurrent
// submits into an empty group would each see zero rows and both insert at
// counter 1, and a submit racing an insert would miss the uncommitted sibling
// and leave its counter behind.
func (r *RequestRepo) CreateAggregated(ctx context.Context, req model.Request) (model.Request, error) {
	if r.pool == nil {
		return model.Request{}, fmt.Errorf("postgres pool is nil")
	}

	var created model.Request
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, groupLockKey(req.MediaID, req.MediaType, req.Type)); err != nil {
			return fmt.Errorf("lock request group: %w", err)
		}

		counter := 0
		rows, err := tx.Query(ctx, `
UPDATE requests
SET counter = counter + 1, updated_at = NOW()
WHERE media_id = $1 AND media_type = $2 AND type = $3
RETURNING counter
`, req.MediaID, req.MediaType, req.Type)
		if err != nil {
			return fmt.Errorf("increment group counter: %w", err)
		}
		for rows.Next() {
			if err := rows.Scan(&counter); err != nil {
				rows.Close()
				return fmt.Errorf("scan group counter: %w", err)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read group counters: %w", err)
		}

		if counter == 0 {
			counter = 1
		}

		id := req.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		err = tx.QueryRow(ctx, `
INSERT INTO requests (
	id,
	user_id,
	type,
	media_id,
	media_type,
	media_title,
	media_poster,
	description,
	status,
	counter,
	notify_whatsapp,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, $10, NOW(), NOW())
RETURNING `+requestColumns+`
`, id, req.UserID, req.Type, req.MediaID, req.MediaType, req.MediaTitle, req.MediaPoster, req.Description, counter, req.NotifyWhatsapp).Scan(scanTargets(&created)...)
		if err != nil {
			return fmt.Errorf("insert request: %w", err)
		}

		return nil
	})
	if err != nil {
		return model.Request{}, err
	}

	return created, nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Request, error) {
	if r.pool == nil {
		return model.Request{}, fmt.Errorf("postgres pool is nil")
	}

	var req model.Request
	err := r.pool.QueryRow(ctx, `
SELECT `+requestColumns+`
FROM requests
WHERE id = $1
LIMIT 1
`, id).Scan(scanTargets(&req)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Request{}, ErrRequestNotFound
		}
		return model.Request{}, fmt.Errorf("query request by id: %w", err)
	}

	return req, nil
}

func (r *RequestRepo) FindByGroup(ctx context.Context, key model.GroupKey) ([]model.Request, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+requestColumns+`
FROM requests
WHERE media_id = $1 AND media_type = $2 AND type = $3
ORDER BY created_at ASC, id ASC
`, key.MediaID, key.MediaType, key.Type)
	if err != nil {
		return nil, fmt.Errorf("query request group: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// UpdateStatusByGroup updates every request in the group in one statement and
// returns the rows as they were before the update. The caller uses the prior
// rows to decide who to notify.
func (r *RequestRepo) UpdateStatusByGroup(ctx context.Context, key model.GroupKey, status enums.RequestStatus, rejectionReason string) ([]model.Request, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}

	var prior []model.Request
	var updated int64
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT `+requestColumns+`
FROM requests
WHERE media_id = $1 AND media_type = $2 AND type = $3
ORDER BY created_at ASC, id ASC
FOR UPDATE
`, key.MediaID, key.MediaType, key.Type)
		if err != nil {
			return fmt.Errorf("lock request group: %w", err)
		}
		prior, err = collectRequests(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(prior) == 0 {
			return ErrRequestNotFound
		}

		tag, err := tx.Exec(ctx, `
UPDATE requests
SET
	status = $4,
	rejection_reason = CASE WHEN $5 <> '' THEN $5 ELSE rejection_reason END,
	updated_at = NOW()
WHERE media_id = $1 AND media_type = $2 AND type = $3
`, key.MediaID, key.MediaType, key.Type, status, strings.TrimSpace(rejectionReason))
		if err != nil {
			return fmt.Errorf("update request group status: %w", err)
		}
		updated = tag.RowsAffected()

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return prior, updated, nil
}

// UpdateStatusByID is the single-row fast path for requests whose counter is 1.
// It returns the row as it was before the update.
func (r *RequestRepo) UpdateStatusByID(ctx context.Context, id uuid.UUID, status enums.RequestStatus, rejectionReason string) (model.Request, error) {
	if r.pool == nil {
		return model.Request{}, fmt.Errorf("postgres pool is nil")
	}

	var prior model.Request
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
SELECT `+requestColumns+`
FROM requests
WHERE id = $1
FOR UPDATE
`, id).Scan(scanTargets(&prior)...)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("lock request: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE requests
SET
	status = $2,
	rejection_reason = CASE WHEN $3 <> '' THEN $3 ELSE rejection_reason END,
	updated_at = NOW()
WHERE id = $1
`, id, status, strings.TrimSpace(rejectionReason)); err != nil {
			return fmt.Errorf("update request status: %w", err)
		}

		return nil
	})
	if err != nil {
		return model.Request{}, err
	}

	return prior, nil
}

// RejectLowDemand bulk-rejects pending requests created before cutoff whose
// counter is below threshold, returning the affected rows.
func (r *RequestRepo) RejectLowDemand(ctx context.Context, cutoff time.Time, threshold int, reason string) ([]model.Request, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
UPDATE requests
SET
	status = 'rejected',
	rejection_reason = $3,
	updated_at = NOW()
WHERE status = 'pending'
  AND created_at < $1
  AND counter < $2
RETURNING `+requestColumns+`
`, cutoff, threshold, reason)
	if err != nil {
		return nil, fmt.Errorf("reject low demand requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (r *RequestRepo) List(ctx context.Context, filter ListFilter) ([]RequestWithUser, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.MediaType != "" {
		args = append(args, filter.MediaType)
		where = append(where, fmt.Sprintf("r.media_type = $%d", len(args)))
	}
	if filter.RequestType != "" {
		args = append(args, filter.RequestType)
		where = append(where, fmt.Sprintf("r.type = $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	orderClause := "ORDER BY r.created_at DESC, r.id DESC"
	if filter.SortBy == "counter" {
		if strings.EqualFold(filter.SortOrder, "asc") {
			orderClause = "ORDER BY r.counter ASC, r.id ASC"
		} else {
			orderClause = "ORDER BY r.counter DESC, r.id DESC"
		}
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM requests r %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	args = append(args, filter.Limit)
	limitArg := len(args)
	args = append(args, filter.Offset)
	offsetArg := len(args)

	query := fmt.Sprintf(`
SELECT
	r.id, r.user_id, r.type, r.media_id, r.media_type, r.media_title, r.media_poster,
	r.description, r.status, r.counter, COALESCE(r.rejection_reason, ''), r.notify_whatsapp,
	r.created_at, r.updated_at,
	COALESCE(u.name, ''), COALESCE(u.email, '')
FROM requests r
LEFT JOIN users u ON u.id = r.user_id
%s
%s
LIMIT $%d OFFSET $%d
`, whereClause, orderClause, limitArg, offsetArg)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	items := make([]RequestWithUser, 0, filter.Limit)
	for rows.Next() {
		var item RequestWithUser
		targets := scanTargets(&item.Request)
		targets = append(targets, &item.UserName, &item.UserEmail)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, fmt.Errorf("scan request listing row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read request listing rows: %w", err)
	}

	return items, total, nil
}

func (r *RequestRepo) ListByUser(ctx context.Context, userID int64) ([]model.Request, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+requestColumns+`
FROM requests
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// DeleteAll purges the whole collection in batches so a large purge does not
// hold one long transaction.
func (r *RequestRepo) DeleteAll(ctx context.Context, batchSize int) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	var deleted int64
	for {
		tag, err := r.pool.Exec(ctx, `
DELETE FROM requests
WHERE id IN (SELECT id FROM requests LIMIT $1)
`, batchSize)
		if err != nil {
			return deleted, fmt.Errorf("delete requests batch: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return deleted, nil
		}
		deleted += tag.RowsAffected()
	}
}

// groupLockKey derives the advisory lock key serializing submissions for one
// duplicate group. Hashing keeps the key stable across processes.
func groupLockKey(mediaID int64, mediaType enums.MediaType, requestType enums.RequestType) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s:%s", mediaID, mediaType, requestType)
	return int64(h.Sum64())
}

func collectRequests(rows pgx.Rows) ([]model.Request, error) {
	var requests []model.Request
	for rows.Next() {
		var req model.Request
		if err := rows.Scan(scanTargets(&req)...); err != nil {
			return nil, fmt.Errorf("scan request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read request rows: %w", err)
	}
	return requests, nil
}

func scanTargets(req *model.Request) []any {
	return []any{
		&req.ID,
		&req.UserID,
		&req.Type,
		&req.MediaID,
		&req.MediaType,
		&req.MediaTitle,
		&req.MediaPoster,
		&req.Description,
		&req.Status,
		&req.Counter,
		&req.RejectionReason,
		&req.NotifyWhatsapp,
		&req.CreatedAt,
		&req.UpdatedAt,
	}
}
