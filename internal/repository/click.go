package repository

import (
	"context"

	"shorturl-service/internal/model"

	"gorm.io/gorm"
)

type clickRepo struct {
	db *gorm.DB
}

func (r *clickRepo) Insert(ctx context.Context, e *model.ClickEvent) error {
	return translate(r.db.WithContext(ctx).Omit("URLMapping").Create(e).Error)
}

func (r *clickRepo) FindByMapping(ctx context.Context, mappingID uint, tr TimeRange) ([]model.ClickEvent, error) {
	return r.FindByMappings(ctx, []uint{mappingID}, tr)
}

// FindByMappings 查询区间 [Start, End) 内的点击，ids 为空时直接返回空结果，不发起 IN () 查询
func (r *clickRepo) FindByMappings(ctx context.Context, mappingIDs []uint, tr TimeRange) ([]model.ClickEvent, error) {
	if len(mappingIDs) == 0 {
		return nil, nil
	}
	var events []model.ClickEvent
	err := r.db.WithContext(ctx).
		Where("url_mapping_id IN ?", mappingIDs).
		Where("clicked_at >= ? AND clicked_at < ?", tr.Start.UTC(), tr.End.UTC()).
		Order("clicked_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, translate(err)
	}
	return events, nil
}

func (r *clickRepo) CountByMapping(ctx context.Context, mappingID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ClickEvent{}).Where("url_mapping_id = ?", mappingID).Count(&count).Error
	return count, translate(err)
}

func (r *clickRepo) DeleteByMapping(ctx context.Context, mappingID uint) error {
	return translate(r.db.WithContext(ctx).Where("url_mapping_id = ?", mappingID).Delete(&model.ClickEvent{}).Error)
}
