package model

import (
	"time"
)

// ClickEvent 一次重定向的点击记录，创建后不再修改
type ClickEvent struct {
	ID           uint        `gorm:"primarykey" json:"id"`
	URLMappingID uint        `gorm:"not null;index:idx_click_mapping_time,priority:1" json:"url_mapping_id"`
	URLMapping   *URLMapping `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ClickedAt    time.Time   `gorm:"not null;index:idx_click_mapping_time,priority:2" json:"clicked_at"`
}

func (ClickEvent) TableName() string {
	return "click_events"
}

// All 返回需要迁移的全部模型
func All() []any {
	return []any{&User{}, &URLMapping{}, &ClickEvent{}}
}
