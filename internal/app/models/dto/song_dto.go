package dto

import (
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/musicapi"
)

// SongSearchResponse wraps catalog search results
type SongSearchResponse struct {
	Songs []musicapi.Song `json:"songs"`
}

// SongRequestCreate is a student's submission of a track
type SongRequestCreate struct {
	SongID   string `json:"songId" binding:"required"`
	SongName string `json:"songName" binding:"required"`
}

// SongRequestListResponse wraps the caller's own requests
type SongRequestListResponse struct {
	Requests []models.SongRequest `json:"requests"`
}

// SongReviewRequest is an administrator's decision on a pending request
type SongReviewRequest struct {
	SongRequestID int64  `json:"songRequestId" binding:"required"`
	Status        string `json:"status" binding:"required"`
	Reason        string `json:"reason"`
}
