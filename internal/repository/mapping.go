package repository

import (
	"context"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"

	"gorm.io/gorm"
)

type mappingRepo struct {
	db *gorm.DB
}

func (r *mappingRepo) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.URLMapping{}).Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *mappingRepo) Insert(ctx context.Context, m *model.URLMapping) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(m).Error)
}

func (r *mappingRepo) FindByCode(ctx context.Context, code string) (*model.URLMapping, error) {
	var m model.URLMapping
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *mappingRepo) FindByID(ctx context.Context, id uint) (*model.URLMapping, error) {
	var m model.URLMapping
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *mappingRepo) FindByOwner(ctx context.Context, userID uint) ([]model.URLMapping, error) {
	var list []model.URLMapping
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

// Delete 按 id 和归属用户删除，条件不满足时返回 ErrNotFound
func (r *mappingRepo) Delete(ctx context.Context, m *model.URLMapping) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", m.ID, m.UserID).Delete(&model.URLMapping{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// IncrementClickCount 在数据库端原子自增，记录不存在时返回 ErrNotFound
func (r *mappingRepo) IncrementClickCount(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.URLMapping{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *mappingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.URLMapping{}).Count(&count).Error
	return count, translate(err)
}

func (r *mappingRepo) SumClicks(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.URLMapping{}).Select("COALESCE(SUM(click_count), 0)").Scan(&total).Error
	return total, translate(err)
}
