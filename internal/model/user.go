package model

import (
	"time"
)

// AuthProvider 账号来源
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
	ProviderGitHub AuthProvider = "GITHUB"
)

// 角色
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User 用户模型
type User struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	Username     string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"type:varchar(255)" json:"-"` // 仅本地账号有值
	DisplayName  string       `gorm:"type:varchar(100)" json:"display_name"`
	Role         string       `gorm:"type:varchar(20);default:'USER'" json:"role"`
	AuthProvider AuthProvider `gorm:"type:varchar(20);not null;default:'LOCAL'" json:"auth_provider"`
	ProviderID   string       `gorm:"type:varchar(100);index" json:"provider_id,omitempty"`
	ImageURL     string       `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsLocal 是否为用户名密码注册的账号
func (u *User) IsLocal() bool {
	return u.AuthProvider == ProviderLocal && u.PasswordHash != ""
}
