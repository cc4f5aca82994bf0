// Package repository 提供短链接、点击记录和用户的持久化接口及其 gorm 实现
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"

	"gorm.io/gorm"
)

// TimeRange 半开时间区间 [Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// MappingStore 短链接存储
type MappingStore interface {
	Exists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, m *model.URLMapping) error
	FindByCode(ctx context.Context, code string) (*model.URLMapping, error)
	FindByID(ctx context.Context, id uint) (*model.URLMapping, error)
	FindByOwner(ctx context.Context, userID uint) ([]model.URLMapping, error)
	Delete(ctx context.Context, m *model.URLMapping) error
	IncrementClickCount(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	SumClicks(ctx context.Context) (int64, error)
}

// ClickStore 点击记录存储
type ClickStore interface {
	Insert(ctx context.Context, e *model.ClickEvent) error
	FindByMapping(ctx context.Context, mappingID uint, r TimeRange) ([]model.ClickEvent, error)
	FindByMappings(ctx context.Context, mappingIDs []uint, r TimeRange) ([]model.ClickEvent, error)
	CountByMapping(ctx context.Context, mappingID uint) (int64, error)
	DeleteByMapping(ctx context.Context, mappingID uint) error
}

// IdentityStore 用户存储
type IdentityStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	Count(ctx context.Context) (int64, error)
}

// Store 聚合三个存储，所有实现共享同一个 *gorm.DB（或同一个事务）
type Store struct {
	db       *gorm.DB
	mappings *mappingRepo
	clicks   *clickRepo
	users    *userRepo
}

// New 创建存储实例
func New(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		mappings: &mappingRepo{db: db},
		clicks:   &clickRepo{db: db},
		users:    &userRepo{db: db},
	}
}

func (s *Store) Mappings() MappingStore { return s.mappings }
func (s *Store) Clicks() ClickStore     { return s.clicks }
func (s *Store) Users() IdentityStore   { return s.users }

// Atomic 在同一个数据库事务中执行 fn，fn 返回错误时整体回滚
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
	return translate(err)
}

// Migrate 自动迁移表结构
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(model.All()...)
}

// translate 把 gorm/驱动错误转换为 errs 中的分类
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrDuplicate), errors.Is(err, errs.ErrTransient):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", errs.ErrDuplicate, err)
	case errs.IsTransient(err), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", errs.ErrTransient, err)
	}
	return err
}
