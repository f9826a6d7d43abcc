package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// UserService defines identity binding and profile operations
type UserService interface {
	Bind(ctx context.Context, openid, studentID, name string) (alreadyBound bool, err error)
	IsBound(ctx context.Context, openid string) (bool, error)
	GetUserInfo(ctx context.Context, openid string) (*models.User, error)
}

type userService struct {
	users         UserStore
	isAdminOpenID func(openid string) bool
	now           func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, isAdminOpenID func(string) bool) UserService {
	return &userService{
		users:         users,
		isAdminOpenID: isAdminOpenID,
		now:           time.Now,
	}
}

// Bind attaches the caller's openid to the student row matching studentID
// and name. Rebinding the same openid is a no-op reported via alreadyBound;
// a row bound to a different openid is never overwritten.
func (s *userService) Bind(ctx context.Context, openid, studentID, name string) (bool, error) {
	if openid == "" || studentID == "" || name == "" {
		return false, apperrors.NewCustomError(apperrors.ErrValidationFailed, "student id and name are required")
	}

	user, err := s.users.GetByStudentIDAndName(ctx, studentID, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, apperrors.ErrNotEnrolled
		}
		return false, err
	}

	if user.Bound() {
		if *user.WechatOpenID == openid {
			return true, nil
		}
		return false, apperrors.ErrBoundElsewhere
	}

	if err := s.users.Bind(ctx, user.ID, openid, s.now()); err != nil {
		// ErrConflict covers both races: the openid unique index firing
		// for another row, and a concurrent bind taking this row first.
		if errors.Is(err, apperrors.ErrConflict) {
			return false, apperrors.ErrBoundElsewhere
		}
		return false, fmt.Errorf("failed to bind user: %w", err)
	}

	logger.Info().
		Int64("userId", user.ID).
		Str("studentId", studentID).
		Msg("Student account bound")

	return false, nil
}

// IsBound reports whether the openid is attached to a student row.
func (s *userService) IsBound(ctx context.Context, openid string) (bool, error) {
	_, err := s.users.GetByOpenID(ctx, openid)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetUserInfo returns the bound user's profile. The IsAdmin flag reflects
// both the stored flag and the configured admin allowlist.
func (s *userService) GetUserInfo(ctx context.Context, openid string) (*models.User, error) {
	user, err := s.users.GetByOpenID(ctx, openid)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotBound
		}
		return nil, err
	}

	if s.isAdminOpenID(openid) {
		user.IsAdmin = true
	}
	return user, nil
}
