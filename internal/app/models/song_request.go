package models

import (
	"time"
)

// SongRequest defines a single student's request to queue a track,
// based on the 'song_requests' table.
//
// Status transitions are monotonic: pending -> approved | rejected,
// approved -> played. ReviewTime doubles as the played-at timestamp when
// a request is marked played.
type SongRequest struct {
	ID           int64         `json:"id" db:"id" example:"1"`
	UserID       int64         `json:"userId" db:"user_id"`
	SongID       string        `json:"songId" db:"song_id" example:"347230"`
	SongName     string        `json:"songName" db:"song_name" example:"海阔天空"`
	Status       RequestStatus `json:"status" db:"status" example:"pending"`
	RequestTime  time.Time     `json:"requestTime" db:"request_time"`
	ReviewTime   *time.Time    `json:"reviewTime,omitempty" db:"review_time"`
	ReviewReason *string       `json:"reviewReason,omitempty" db:"review_reason"`
	ReviewerID   *int64        `json:"reviewerId,omitempty" db:"reviewer_id"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}
