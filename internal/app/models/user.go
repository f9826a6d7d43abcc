package models

import (
	"time"
)

// User defines the student user model based on the 'users' table.
// WechatOpenID stays nil until the student binds their WeChat identity.
type User struct {
	ID           int64      `json:"id" db:"id" example:"1"`
	WechatOpenID *string    `json:"wechatOpenid,omitempty" db:"wechat_openid"`
	StudentID    string     `json:"studentId" db:"student_id" example:"2021302181"`
	Name         string     `json:"name" db:"name" example:"Alice"`
	BindTime     *time.Time `json:"bindTime,omitempty" db:"bind_time"`
	IsAdmin      bool       `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Bound reports whether the user has a WeChat identity attached
func (u *User) Bound() bool {
	return u.WechatOpenID != nil && *u.WechatOpenID != ""
}
