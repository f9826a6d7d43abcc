package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/dberrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, wechat_openid, student_id, name, bind_time, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.WechatOpenID, &user.StudentID, &user.Name,
		&user.BindTime, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByOpenID retrieves a user by their bound WeChat openid
func (r *UserRepository) GetByOpenID(ctx context.Context, openid string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE wechat_openid = $1`,
		openid))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user by openid: %w", err)
	}

	return user, nil
}

// GetByStudentIDAndName retrieves a user by the exact (student id, name) pair
func (r *UserRepository) GetByStudentIDAndName(ctx context.Context, studentID, name string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE student_id = $1 AND name = $2`,
		studentID, name))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user by student id: %w", err)
	}

	return user, nil
}

// Bind attaches a WeChat openid to a user and stamps the bind time. The
// update only lands while the row is unbound or already carries the same
// openid; zero affected rows means another bind won the row in between.
// A unique violation on the openid column means the identity is already
// attached to a different student.
func (r *UserRepository) Bind(ctx context.Context, userID int64, openid string, now time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE users
		SET wechat_openid = $1, bind_time = $2, updated_at = $2
		WHERE id = $3 AND (wechat_openid IS NULL OR wechat_openid = $1)`,
		openid, now, userID)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_wechat_openid_key") {
			logger.Warn().Int64("userID", userID).Msg("Attempted to bind an openid already attached to another user")
			return apperrors.ErrConflict
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing bind query")
		return fmt.Errorf("error binding user: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		logger.Warn().Int64("userID", userID).Msg("Bind lost to a concurrent bind of the same user")
		return apperrors.ErrConflict
	}

	logger.Info().Int64("userID", userID).Msg("User bound successfully")
	return nil
}

// Create inserts a new enrolled user. Enrollment normally happens
// out-of-band; this exists for seeding and tests.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (wechat_openid, student_id, name, bind_time, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		user.WechatOpenID, user.StudentID, user.Name, user.BindTime, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_student_id_key") {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}
