package repositories

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/db"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// AdminSongListRow is the admin listing projection: one request joined with
// its requester.
type AdminSongListRow struct {
	ID           int64                `json:"id"`
	SongID       string               `json:"songId"`
	SongName     string               `json:"songName"`
	Status       models.RequestStatus `json:"status"`
	RequestTime  time.Time            `json:"requestTime"`
	ReviewTime   *time.Time           `json:"reviewTime"`
	ReviewReason *string              `json:"reviewReason"`
	StudentID    string               `json:"studentId"`
	Name         string               `json:"name"`
	WechatOpenID *string              `json:"wechatOpenid"`
}

// QueueRow is the playback queue projection
type QueueRow struct {
	RequestID int64  `json:"requestId"`
	SongID    string `json:"songId"`
}

// AdmissionTx exposes the queries the admission policy runs while holding
// the serialization locks. All reads and the insert see the same transaction.
type AdmissionTx interface {
	CountRecent(ctx context.Context, userID int64, since time.Time) (int64, error)
	TrackActive(ctx context.Context, songID string) (bool, error)
	CountOutstanding(ctx context.Context, userID int64) (int64, error)
	Insert(ctx context.Context, request *models.SongRequest) error
}

// SongRequestRepository handles song request database operations
type SongRequestRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSongRequestRepository creates a new SongRequestRepository
func NewSongRequestRepository(pool *pgxpool.Pool) *SongRequestRepository {
	return &SongRequestRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// lockKey derives a stable advisory lock key from a namespaced identifier
func lockKey(namespace, id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64())
}

// Admit runs fn inside a transaction holding advisory locks for the
// submitting user and the requested track, so concurrent submissions that
// could race the policy checks serialize. Locks release on commit/rollback.
func (r *SongRequestRepository) Admit(ctx context.Context, userID int64, songID string, fn func(ctx context.Context, tx AdmissionTx) error) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		userKey := lockKey("song_request_user", fmt.Sprintf("%d", userID))
		songKey := lockKey("song_request_track", songID)

		// Lock order is fixed (user, then track) to avoid deadlocks
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userKey); err != nil {
			return fmt.Errorf("failed to acquire user admission lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, songKey); err != nil {
			return fmt.Errorf("failed to acquire track admission lock: %w", err)
		}

		return fn(ctx, &admissionTx{tx: tx})
	})
}

// admissionTx implements AdmissionTx on an open pgx transaction
type admissionTx struct {
	tx pgx.Tx
}

// CountRecent counts the user's requests newer than since with status in
// {pending, approved, played}.
func (a *admissionTx) CountRecent(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var count int64
	err := a.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM song_requests
		WHERE user_id = $1
		  AND request_time > $2
		  AND status IN ('pending', 'approved', 'played')`,
		userID, since).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("error counting recent requests: %w", err)
	}

	return count, nil
}

// TrackActive reports whether any user has the track pending or approved.
// Played tracks do not count; a track may be requested again after it plays.
func (a *admissionTx) TrackActive(ctx context.Context, songID string) (bool, error) {
	var exists bool
	err := a.tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM song_requests
			WHERE song_id = $1 AND status IN ('pending', 'approved')
		)`,
		songID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("error checking track activity: %w", err)
	}

	return exists, nil
}

// CountOutstanding counts the user's pending and approved requests
func (a *admissionTx) CountOutstanding(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := a.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM song_requests
		WHERE user_id = $1 AND status IN ('pending', 'approved')`,
		userID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("error counting outstanding requests: %w", err)
	}

	return count, nil
}

// Insert creates the song request row inside the admission transaction
func (a *admissionTx) Insert(ctx context.Context, request *models.SongRequest) error {
	err := a.tx.QueryRow(ctx, `
		INSERT INTO song_requests (user_id, song_id, song_name, status, request_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		request.UserID, request.SongID, request.SongName, request.Status, request.RequestTime).
		Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error creating song request: %w", err)
	}

	logger.Info().Int64("userID", request.UserID).Str("songID", request.SongID).Msg("Song request created")
	return nil
}

// GetByUser retrieves the user's requests with status in statuses, newest first
func (r *SongRequestRepository) GetByUser(ctx context.Context, userID int64, statuses []models.RequestStatus) ([]models.SongRequest, error) {
	sql, args, err := r.sb.Select(
		"id", "user_id", "song_id", "song_name", "status",
		"request_time", "review_time", "review_reason", "reviewer_id",
		"created_at", "updated_at").
		From("song_requests").
		Where(squirrel.Eq{"user_id": userID, "status": statuses}).
		OrderBy("request_time DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build user requests query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying user requests: %w", err)
	}
	defer rows.Close()

	var requests []models.SongRequest
	for rows.Next() {
		var req models.SongRequest
		if err := rows.Scan(
			&req.ID, &req.UserID, &req.SongID, &req.SongName, &req.Status,
			&req.RequestTime, &req.ReviewTime, &req.ReviewReason, &req.ReviewerID,
			&req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning song request row: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user requests: %w", err)
	}

	return requests, nil
}

// ListByStatus retrieves all requests with the given status joined with their
// requester, ordered by request time ascending.
func (r *SongRequestRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]AdminSongListRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sr.id, sr.song_id, sr.song_name, sr.status,
		       sr.request_time, sr.review_time, sr.review_reason,
		       u.student_id, u.name, u.wechat_openid
		FROM song_requests sr
		JOIN users u ON u.id = sr.user_id
		WHERE sr.status = $1
		ORDER BY sr.request_time ASC`,
		status)

	if err != nil {
		return nil, fmt.Errorf("error querying requests by status: %w", err)
	}
	defer rows.Close()

	var result []AdminSongListRow
	for rows.Next() {
		var row AdminSongListRow
		if err := rows.Scan(
			&row.ID, &row.SongID, &row.SongName, &row.Status,
			&row.RequestTime, &row.ReviewTime, &row.ReviewReason,
			&row.StudentID, &row.Name, &row.WechatOpenID); err != nil {
			return nil, fmt.Errorf("error scanning admin list row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin list rows: %w", err)
	}

	return result, nil
}

// GetByID retrieves a single request by id
func (r *SongRequestRepository) GetByID(ctx context.Context, id int64) (*models.SongRequest, error) {
	req := &models.SongRequest{}
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, song_id, song_name, status,
		       request_time, review_time, review_reason, reviewer_id,
		       created_at, updated_at
		FROM song_requests
		WHERE id = $1`,
		id).Scan(
		&req.ID, &req.UserID, &req.SongID, &req.SongName, &req.Status,
		&req.RequestTime, &req.ReviewTime, &req.ReviewReason, &req.ReviewerID,
		&req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("error retrieving song request: %w", err)
	}

	return req, nil
}

// Review applies a review decision as a single conditional update. The write
// only lands if the request is still pending, which closes the double-review
// race; the returned bool reports whether a row was updated.
func (r *SongRequestRepository) Review(ctx context.Context, id int64, decision models.RequestStatus, reason string, reviewerID int64, now time.Time) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE song_requests
		SET status = $1, review_time = $2, review_reason = $3, reviewer_id = $4, updated_at = $2
		WHERE id = $5 AND status = 'pending'`,
		decision, now, reason, reviewerID, id)

	if err != nil {
		return false, fmt.Errorf("error applying review: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// MarkPlayed transitions an approved request to played. Same conditional
// update shape as Review: only approved rows move.
func (r *SongRequestRepository) MarkPlayed(ctx context.Context, id int64, now time.Time) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE song_requests
		SET status = 'played', review_time = $1, updated_at = $1
		WHERE id = $2 AND status = 'approved'`,
		now, id)

	if err != nil {
		return false, fmt.Errorf("error marking request played: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// queueQuery builds the playback queue statement: approved requests only,
// FIFO by request time.
func (r *SongRequestRepository) queueQuery() (string, []interface{}, error) {
	return r.sb.Select("id", "song_id").
		From("song_requests").
		Where(squirrel.Eq{"status": models.StatusApproved}).
		OrderBy("request_time ASC").
		ToSql()
}

// Queue returns the approved requests FIFO by request time. Computed fresh
// on every call; nothing is materialized.
func (r *SongRequestRepository) Queue(ctx context.Context) ([]QueueRow, error) {
	sql, args, err := r.queueQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to build playback queue query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying playback queue: %w", err)
	}
	defer rows.Close()

	var queue []QueueRow
	for rows.Next() {
		var row QueueRow
		if err := rows.Scan(&row.RequestID, &row.SongID); err != nil {
			return nil, fmt.Errorf("error scanning queue row: %w", err)
		}
		queue = append(queue, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue rows: %w", err)
	}

	return queue, nil
}
