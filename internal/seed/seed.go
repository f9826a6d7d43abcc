// Package seed creates default data after migrations have run.
package seed

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	appModels "github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	appRepos "github.com/SF-ND-NEW/miniapp-backend/internal/app/repositories"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/auth"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

const defaultAdminUsername = "admin"

// CreateDefaultData creates the default administrator account and, in
// development mode, a couple of sample enrollment records.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, devMode bool) error {
	adminRepo := appRepos.NewAdminRepository(dbPool)
	userRepo := appRepos.NewUserRepository(dbPool)

	var finalErr error

	if err := createDefaultAdmin(ctx, adminRepo); err != nil {
		logger.Error().Err(err).Msg("Error creating default admin")
		finalErr = errors.Join(finalErr, err)
	}

	if devMode {
		if err := createSampleStudents(ctx, userRepo); err != nil {
			logger.Error().Err(err).Msg("Error creating sample students")
			finalErr = errors.Join(finalErr, err)
		}
	}

	return finalErr
}

func createDefaultAdmin(ctx context.Context, adminRepo *appRepos.AdminRepository) error {
	if _, err := adminRepo.GetByUsername(ctx, defaultAdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, apperrors.ErrAdminNotFound) {
		return err
	}

	password := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if password == "" {
		password = "admin123"
		logger.Warn().Msg("ADMIN_INITIAL_PASSWORD not set, using default password; change it immediately")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &appModels.Admin{
		Username:     defaultAdminUsername,
		PasswordHash: hash,
	}
	if err := adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return err
	}

	logger.Info().Str("username", defaultAdminUsername).Msg("Default admin account created")
	return nil
}

func createSampleStudents(ctx context.Context, userRepo *appRepos.UserRepository) error {
	samples := []appModels.User{
		{StudentID: "20230001", Name: "测试学生一"},
		{StudentID: "20230002", Name: "测试学生二"},
	}

	for i := range samples {
		if err := userRepo.Create(ctx, &samples[i]); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return err
		}
		logger.Info().Str("studentId", samples[i].StudentID).Msg("Sample student created")
	}
	return nil
}
