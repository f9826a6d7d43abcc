package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models/dto"
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/services"
	"github.com/SF-ND-NEW/miniapp-backend/internal/middleware"
)

// PlayerController exposes the playback queue to the player client
type PlayerController struct {
	requestService services.SongRequestService
}

// NewPlayerController creates a new PlayerController
func NewPlayerController(requestService services.SongRequestService) *PlayerController {
	return &PlayerController{requestService: requestService}
}

// Queue returns approved requests in submission order
// @Summary Get the playback queue
// @Tags player
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]repositories.QueueRow}
// @Router /player/queue [get]
func (c *PlayerController) Queue(ctx *gin.Context) {
	queue, err := c.requestService.Queue(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(queue, ""))
}

// Current reports current playback state
// @Summary Get current playback state
// @Tags player
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CurrentSongResponse}
// @Router /player/current [get]
func (c *PlayerController) Current(ctx *gin.Context) {
	// The queue model has no now-playing marker; report idle until the
	// player client starts pushing playback state.
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.CurrentSongResponse{
		CurrentSong: nil,
		IsPlaying:   false,
	}, ""))
}

// Played marks an approved request as played
// @Summary Mark a queue entry played
// @Tags player
// @Accept json
// @Produce json
// @Param request body dto.PlayerPlayedRequest true "Queue entry"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Request not approved"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /player/played [post]
func (c *PlayerController) Played(ctx *gin.Context) {
	var req dto.PlayerPlayedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Request id is required")))
		return
	}

	if err := c.requestService.MarkPlayed(ctx.Request.Context(), req.RequestID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Marked as played"))
}
