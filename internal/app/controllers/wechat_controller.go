// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models/dto"
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/services"
	"github.com/SF-ND-NEW/miniapp-backend/internal/middleware"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// WechatController handles miniapp login, binding and song request endpoints
type WechatController struct {
	authService    services.AuthService
	userService    services.UserService
	requestService services.SongRequestService
}

// NewWechatController creates a new WechatController
func NewWechatController(authService services.AuthService, userService services.UserService, requestService services.SongRequestService) *WechatController {
	return &WechatController{
		authService:    authService,
		userService:    userService,
		requestService: requestService,
	}
}

// Login handles miniapp code login
// @Summary Log in with a WeChat miniapp code
// @Description Exchanges a wx.login code for an access/refresh token pair
// @Tags wechat
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Miniapp login code"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse}
// @Failure 401 {object} dto.ErrorResponse "Code rejected by WeChat"
// @Router /wechat/login [post]
func (c *WechatController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		logger.Warn().Err(err).Msg("Invalid login payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Login code is required")))
		return
	}

	tokens, err := c.authService.LoginWithCode(ctx.Request.Context(), req.Code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(tokens, "Login successful"))
}

// Refresh rotates a refresh token
// @Summary Refresh the token pair
// @Tags wechat
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Current refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse}
// @Failure 401 {object} dto.ErrorResponse "Token invalid, expired or revoked"
// @Router /wechat/refresh [post]
func (c *WechatController) Refresh(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Refresh token is required")))
		return
	}

	tokens, err := c.authService.RefreshTokens(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(tokens, "Token refreshed"))
}

// Bind attaches the caller's WeChat identity to an enrolled student
// @Summary Bind a student account
// @Tags wechat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BindRequest true "Student ID and name"
// @Success 200 {object} dto.APIResponse{data=dto.BindResponse}
// @Failure 400 {object} dto.ErrorResponse "Not enrolled or bound elsewhere"
// @Router /wechat/bind [post]
func (c *WechatController) Bind(ctx *gin.Context) {
	openid, ok := middleware.GetOpenID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	var req dto.BindRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Student ID and name are required")))
		return
	}

	alreadyBound, err := c.userService.Bind(ctx.Request.Context(), openid, req.StudentID, req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Binding successful"
	if alreadyBound {
		message = "Account already bound"
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.BindResponse{AlreadyBound: alreadyBound}, message))
}

// IsBound reports whether the caller has bound a student account
// @Summary Check binding status
// @Tags wechat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.IsBoundResponse}
// @Router /wechat/isbound [get]
func (c *WechatController) IsBound(ctx *gin.Context) {
	openid, ok := middleware.GetOpenID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	bound, err := c.userService.IsBound(ctx.Request.Context(), openid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.IsBoundResponse{IsBound: bound}, ""))
}

// UserInfo returns the caller's bound profile
// @Summary Get own user info
// @Tags wechat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserInfoResponse}
// @Failure 401 {object} dto.ErrorResponse "Not bound"
// @Router /wechat/userinfo [get]
func (c *WechatController) UserInfo(ctx *gin.Context) {
	openid, ok := middleware.GetOpenID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	user, err := c.userService.GetUserInfo(ctx.Request.Context(), openid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	info := dto.UserInfoResponse{
		ID:        user.ID,
		Name:      user.Name,
		StudentID: user.StudentID,
		BindTime:  user.BindTime,
		IsAdmin:   user.IsAdmin,
	}
	if user.WechatOpenID != nil {
		info.WechatOpenID = *user.WechatOpenID
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(info, ""))
}

// SubmitSongRequest submits a new song request for the caller
// @Summary Request a song
// @Tags wechat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SongRequestCreate true "Track to request"
// @Success 200 {object} dto.APIResponse{data=models.SongRequest}
// @Failure 400 {object} dto.ErrorResponse "Cooldown, duplicate or quota rejection"
// @Router /wechat/song/request [post]
func (c *WechatController) SubmitSongRequest(ctx *gin.Context) {
	openid, ok := middleware.GetOpenID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	var req dto.SongRequestCreate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Song ID and song name are required")))
		return
	}

	created, err := c.requestService.Submit(ctx.Request.Context(), openid, req.SongID, req.SongName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(created, "Song request submitted"))
}

// GetSongRequests lists the caller's own requests
// @Summary List own song requests
// @Tags wechat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SongRequestListResponse}
// @Router /wechat/song/getrequests [get]
func (c *WechatController) GetSongRequests(ctx *gin.Context) {
	openid, ok := middleware.GetOpenID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	requests, err := c.requestService.ListForUser(ctx.Request.Context(), openid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SongRequestListResponse{Requests: requests}, ""))
}
