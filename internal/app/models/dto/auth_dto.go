package dto

import (
	"time"
)

// LoginRequest carries the miniapp login code
type LoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// TokenResponse represents an access/refresh token pair
type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	TokenType        string `json:"tokenType" example:"Bearer"`
	ExpiresIn        int64  `json:"expiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
}

// RefreshTokenRequest represents a refresh token rotation request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// BindRequest binds a WeChat identity to an enrolled student
type BindRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// BindResponse reports the result of a bind attempt
type BindResponse struct {
	AlreadyBound bool `json:"alreadyBound"`
}

// IsBoundResponse reports whether the caller has a bound student account
type IsBoundResponse struct {
	IsBound bool `json:"isBound"`
}

// UserInfoResponse is the caller-facing view of their own user record
type UserInfoResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	StudentID    string     `json:"studentId"`
	WechatOpenID string     `json:"wechatOpenid"`
	BindTime     *time.Time `json:"bindTime,omitempty"`
	IsAdmin      bool       `json:"isAdmin"`
}

// AdminLoginRequest carries administrator credentials
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse carries the admin identity and its access token
type AdminLoginResponse struct {
	AdminID  int64  `json:"adminId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}
