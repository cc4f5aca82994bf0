package model

import (
	"time"
)

// URLMapping 短链接模型，归属于创建它的用户
type URLMapping struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ShortCode   string    `gorm:"size:10;uniqueIndex;not null" json:"short_code"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ClickCount  int64     `gorm:"not null;default:0" json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (URLMapping) TableName() string {
	return "url_mappings"
}
