package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models/dto"
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/services"
	"github.com/SF-ND-NEW/miniapp-backend/internal/middleware"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
)

// AdminController handles administrator login and song request review
type AdminController struct {
	authService    services.AuthService
	requestService services.SongRequestService
}

// NewAdminController creates a new AdminController
func NewAdminController(authService services.AuthService, requestService services.SongRequestService) *AdminController {
	return &AdminController{
		authService:    authService,
		requestService: requestService,
	}
}

// Login authenticates an administrator
// @Summary Administrator login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Administrator credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req dto.AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Username and password are required")))
		return
	}

	result, err := c.authService.AdminLogin(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result, "Login successful"))
}

// SongList lists song requests in a lifecycle state for review
// @Summary List song requests by status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or played" default(pending)
// @Success 200 {object} dto.APIResponse{data=[]repositories.AdminSongListRow}
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Router /admin/song/list [get]
func (c *AdminController) SongList(ctx *gin.Context) {
	status := ctx.DefaultQuery("status", "pending")

	rows, err := c.requestService.ListByStatus(ctx.Request.Context(), status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rows, ""))
}

// Review applies an approve/reject decision to a pending request
// @Summary Review a song request
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SongReviewRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.SongRequest}
// @Failure 400 {object} dto.ErrorResponse "Invalid decision or already reviewed"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /admin/song/review [post]
func (c *AdminController) Review(ctx *gin.Context) {
	adminID, ok := middleware.GetAdminID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrPermissionDenied)
		return
	}

	var req dto.SongReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Song request id and status are required")))
		return
	}

	updated, err := c.requestService.Review(ctx.Request.Context(), req.SongRequestID, req.Status, req.Reason, adminID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(updated, "Review recorded"))
}
