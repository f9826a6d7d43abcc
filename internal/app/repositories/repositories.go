package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	SongRequestRepository  *SongRequestRepository
	AdminRepository        *AdminRepository
	RefreshTokenRepository *RefreshTokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		SongRequestRepository:  NewSongRequestRepository(db),
		AdminRepository:        NewAdminRepository(db),
		RefreshTokenRepository: NewRefreshTokenRepository(db),
	}
}
