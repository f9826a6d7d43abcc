package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/repositories"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// Admission policy limits. The cooldown window covers pending, approved
// and played requests; the quota counts pending and approved only.
const (
	CooldownWindow = 30 * time.Minute
	MaxOutstanding = 3
)

// SongRequestService defines request submission, review and playback operations
type SongRequestService interface {
	Submit(ctx context.Context, openid, songID, songName string) (*models.SongRequest, error)
	ListForUser(ctx context.Context, openid string) ([]models.SongRequest, error)
	ListByStatus(ctx context.Context, status string) ([]repositories.AdminSongListRow, error)
	Review(ctx context.Context, requestID int64, decision, reason string, reviewerID int64) (*models.SongRequest, error)
	Queue(ctx context.Context) ([]repositories.QueueRow, error)
	MarkPlayed(ctx context.Context, requestID int64) error
}

type songRequestService struct {
	requests      SongRequestStore
	users         UserStore
	isAdminOpenID func(openid string) bool
	now           func() time.Time
}

// NewSongRequestService creates a new SongRequestService. isAdminOpenID
// reports whether an openid is on the configured admin allowlist; admins
// bypass the cooldown and quota checks but not the duplicate track check.
func NewSongRequestService(requests SongRequestStore, users UserStore, isAdminOpenID func(string) bool) SongRequestService {
	return &songRequestService{
		requests:      requests,
		users:         users,
		isAdminOpenID: isAdminOpenID,
		now:           time.Now,
	}
}

// Submit admits a new song request for the user identified by openid.
// All admission checks and the insert run inside one serialized section,
// and the first failing check determines the returned error.
func (s *songRequestService) Submit(ctx context.Context, openid, songID, songName string) (*models.SongRequest, error) {
	if songID == "" || songName == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "song id and song name are required")
	}

	user, err := s.resolveUser(ctx, openid)
	if err != nil {
		return nil, err
	}

	privileged := user.IsAdmin || s.isAdminOpenID(openid)

	var created *models.SongRequest
	err = s.requests.Admit(ctx, user.ID, songID, func(ctx context.Context, tx repositories.AdmissionTx) error {
		now := s.now()

		if !privileged {
			recent, err := tx.CountRecent(ctx, user.ID, now.Add(-CooldownWindow))
			if err != nil {
				return fmt.Errorf("failed to check cooldown: %w", err)
			}
			if recent > 0 {
				return apperrors.ErrCooldownActive
			}
		}

		active, err := tx.TrackActive(ctx, songID)
		if err != nil {
			return fmt.Errorf("failed to check duplicate track: %w", err)
		}
		if active {
			return apperrors.ErrDuplicateRequest
		}

		if !privileged {
			outstanding, err := tx.CountOutstanding(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to check quota: %w", err)
			}
			if outstanding >= MaxOutstanding {
				return apperrors.ErrQuotaExceeded
			}
		}

		request := &models.SongRequest{
			UserID:      user.ID,
			SongID:      songID,
			SongName:    songName,
			Status:      models.StatusPending,
			RequestTime: now,
		}
		if err := tx.Insert(ctx, request); err != nil {
			return fmt.Errorf("failed to insert song request: %w", err)
		}
		created = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int64("userId", user.ID).
		Str("songId", songID).
		Int64("requestId", created.ID).
		Msg("Song request submitted")

	return created, nil
}

// ListForUser returns the user's own requests, newest first.
func (s *songRequestService) ListForUser(ctx context.Context, openid string) ([]models.SongRequest, error) {
	user, err := s.resolveUser(ctx, openid)
	if err != nil {
		return nil, err
	}

	statuses := []models.RequestStatus{models.StatusPending, models.StatusApproved, models.StatusRejected}
	return s.requests.GetByUser(ctx, user.ID, statuses)
}

// ListByStatus returns all requests in the given lifecycle state for review.
func (s *songRequestService) ListByStatus(ctx context.Context, status string) ([]repositories.AdminSongListRow, error) {
	st := models.RequestStatus(status)
	if !st.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	return s.requests.ListByStatus(ctx, st)
}

// Review applies an approve or reject decision to a pending request.
// The decision is applied with a single conditional update so concurrent
// reviewers cannot both succeed on the same request.
func (s *songRequestService) Review(ctx context.Context, requestID int64, decision, reason string, reviewerID int64) (*models.SongRequest, error) {
	st := models.RequestStatus(decision)
	if st != models.StatusApproved && st != models.StatusRejected {
		return nil, apperrors.ErrInvalidDecision
	}

	updated, err := s.requests.Review(ctx, requestID, st, reason, reviewerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to review song request: %w", err)
	}
	if !updated {
		// Either the id does not exist or the request already left pending.
		if _, err := s.requests.GetByID(ctx, requestID); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrAlreadyReviewed
	}

	logger.Info().
		Int64("requestId", requestID).
		Str("decision", decision).
		Int64("reviewerId", reviewerID).
		Msg("Song request reviewed")

	return s.requests.GetByID(ctx, requestID)
}

// Queue returns all approved requests in submission order.
func (s *songRequestService) Queue(ctx context.Context) ([]repositories.QueueRow, error) {
	return s.requests.Queue(ctx)
}

// MarkPlayed transitions an approved request to played.
func (s *songRequestService) MarkPlayed(ctx context.Context, requestID int64) error {
	updated, err := s.requests.MarkPlayed(ctx, requestID, s.now())
	if err != nil {
		return fmt.Errorf("failed to mark song request played: %w", err)
	}
	if !updated {
		if _, err := s.requests.GetByID(ctx, requestID); err != nil {
			return err
		}
		return apperrors.ErrRequestNotApproved
	}

	logger.Info().Int64("requestId", requestID).Msg("Song request marked played")
	return nil
}

func (s *songRequestService) resolveUser(ctx context.Context, openid string) (*models.User, error) {
	user, err := s.users.GetByOpenID(ctx, openid)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotBound
		}
		return nil, err
	}
	return user, nil
}
