package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models/dto"
	"github.com/SF-ND-NEW/miniapp-backend/internal/middleware"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/musicapi"
)

// SongController proxies catalog search and playback URL resolution
type SongController struct {
	music        *musicapi.Client
	defaultLimit int
}

// NewSongController creates a new SongController
func NewSongController(music *musicapi.Client, defaultLimit int) *SongController {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &SongController{music: music, defaultLimit: defaultLimit}
}

// Search searches the music catalog
// @Summary Search songs
// @Tags songs
// @Produce json
// @Security BearerAuth
// @Param query query string true "Search keywords"
// @Param page query int false "Page number, 1-based"
// @Param count query int false "Results per page"
// @Success 200 {object} dto.APIResponse{data=dto.SongSearchResponse}
// @Failure 502 {object} dto.ErrorResponse "Catalog upstream error"
// @Router /songs/search [get]
func (c *SongController) Search(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Search query is required")))
		return
	}

	page := queryInt(ctx, "page", 1)
	count := queryInt(ctx, "count", c.defaultLimit)

	songs, err := c.music.Search(ctx.Request.Context(), query, page, count)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SongSearchResponse{Songs: songs}, ""))
}

// GetURL resolves a playable URL for a track
// @Summary Resolve a song's playback URL
// @Tags songs
// @Produce json
// @Security BearerAuth
// @Param id query string true "Catalog track id"
// @Param br query string false "Preferred bitrate"
// @Success 200 {object} dto.APIResponse{data=musicapi.SongURL}
// @Failure 404 {object} dto.ErrorResponse "No playable URL for this track"
// @Router /songs/geturl [get]
func (c *SongController) GetURL(ctx *gin.Context) {
	songID := ctx.Query("id")
	if songID == "" {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Song ID is required")))
		return
	}

	songURL, err := c.music.ResolveURL(ctx.Request.Context(), songID, ctx.Query("br"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(songURL, ""))
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	value := ctx.Query(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
