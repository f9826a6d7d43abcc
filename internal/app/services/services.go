// Package services implements the business rules of the song request
// system on top of the repository layer. Services hold no HTTP concerns
// and communicate failures through apperrors sentinels.
package services

import (
	"context"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/repositories"
)

// UserStore is the subset of the user repository used by services.
type UserStore interface {
	GetByOpenID(ctx context.Context, openid string) (*models.User, error)
	GetByStudentIDAndName(ctx context.Context, studentID, name string) (*models.User, error)
	Bind(ctx context.Context, userID int64, openid string, now time.Time) error
}

// SongRequestStore is the subset of the song request repository used by services.
type SongRequestStore interface {
	Admit(ctx context.Context, userID int64, songID string, fn func(ctx context.Context, tx repositories.AdmissionTx) error) error
	GetByUser(ctx context.Context, userID int64, statuses []models.RequestStatus) ([]models.SongRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]repositories.AdminSongListRow, error)
	GetByID(ctx context.Context, id int64) (*models.SongRequest, error)
	Review(ctx context.Context, id int64, decision models.RequestStatus, reason string, reviewerID int64, now time.Time) (bool, error)
	MarkPlayed(ctx context.Context, id int64, now time.Time) (bool, error)
	Queue(ctx context.Context) ([]repositories.QueueRow, error)
}

// AdminStore is the subset of the admin repository used by services.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// RefreshTokenStore is the subset of the refresh token repository used by services.
type RefreshTokenStore interface {
	Replace(ctx context.Context, openid, tokenID string, expiresAt time.Time) error
	Valid(ctx context.Context, openid, tokenID string) (bool, error)
}

// IdentityProvider exchanges a miniapp login code for a WeChat openid.
type IdentityProvider interface {
	Code2Session(ctx context.Context, code string) (string, error)
}
