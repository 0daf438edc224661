package domain

import (
	"time"
)

type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"-"`
	FullName          string    `json:"fullName"`
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	PreferredTimezone string    `json:"preferredTimezone"` // 查看网格时默认使用的观察者时区
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	Version           int32     `json:"-"`
}
