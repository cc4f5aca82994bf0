// Package shortener 实现短链接的创建、跳转、查询和删除
package shortener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"shorturl-service/internal/analytics"
	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"
	"shorturl-service/internal/repository"
	"shorturl-service/internal/shortcode"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix = "shortlink:"
	maxURLLength   = 2048
)

// CodeGenerator 短码生成器
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// Service 短链接业务
type Service struct {
	store     *repository.Store
	generator CodeGenerator
	clicks    *analytics.Aggregator
	redis     *redis.Client
	cacheTTL  time.Duration
	logger    *zap.SugaredLogger
}

// NewService 创建短链接服务，redisClient 可以为 nil（不使用缓存）
func NewService(
	store *repository.Store,
	generator CodeGenerator,
	clicks *analytics.Aggregator,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	logger *zap.SugaredLogger,
) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{
		store:     store,
		generator: generator,
		clicks:    clicks,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		logger:    logger.Named("shortener"),
	}
}

// Shorten 为 owner 创建短链接
//
// 先生成一个当前不存在的短码再插入；并发写入导致唯一索引冲突时重新生成，最多 shortcode.MaxAttempts 次。
func (s *Service) Shorten(ctx context.Context, originalURL string, owner *model.User) (*model.URLMapping, error) {
	normalized, err := normalizeURL(originalURL)
	if err != nil {
		return nil, err
	}

	for i := 0; i < shortcode.MaxAttempts; i++ {
		code, err := s.generator.Generate(ctx)
		if err != nil {
			return nil, err
		}
		mapping := &model.URLMapping{
			ShortCode:   code,
			OriginalURL: normalized,
			UserID:      owner.ID,
		}
		err = s.store.Mappings().Insert(ctx, mapping)
		if err == nil {
			s.cacheSet(ctx, mapping)
			return mapping, nil
		}
		if !errs.IsDuplicate(err) {
			return nil, err
		}
		s.logger.Warnf("短码 %s 插入时冲突，重新生成", code)
	}
	return nil, errs.ErrGenerationExhausted
}

// Redirect 返回短码对应的原始链接并记录一次点击
func (s *Service) Redirect(ctx context.Context, code string) (string, error) {
	if !shortcode.Valid(code) {
		return "", fmt.Errorf("%w: 短码 %s", errs.ErrNotFound, code)
	}

	if entry, ok := s.cacheGet(ctx, code); ok {
		err := s.clicks.RecordClickByID(ctx, entry.ID)
		if err == nil {
			return entry.URL, nil
		}
		// 缓存里的记录已经被删除
		s.cacheDel(ctx, code)
		if !errs.IsNotFound(err) {
			return "", err
		}
	}

	mapping, err := s.clicks.RecordClick(ctx, code)
	if err != nil {
		return "", err
	}
	s.cacheSet(ctx, mapping)
	return mapping.OriginalURL, nil
}

// ListByOwner 返回用户的全部短链接，按创建时间倒序
func (s *Service) ListByOwner(ctx context.Context, owner *model.User) ([]model.URLMapping, error) {
	return s.store.Mappings().FindByOwner(ctx, owner.ID)
}

// FindOwned 按短码查找并校验归属
func (s *Service) FindOwned(ctx context.Context, code string, owner *model.User) (*model.URLMapping, error) {
	mapping, err := s.store.Mappings().FindByCode(ctx, code)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: 短码 %s", errs.ErrNotFound, code)
		}
		return nil, err
	}
	if mapping.UserID != owner.ID {
		return nil, errs.ErrForbidden
	}
	return mapping, nil
}

// Delete 删除 owner 名下 id 对应的短链接及其点击记录
//
// 归属校验、点击记录删除和短链接删除在同一事务内完成。
func (s *Service) Delete(ctx context.Context, id uint, owner *model.User) error {
	var code string
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		mapping, err := tx.Mappings().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if mapping.UserID != owner.ID {
			return errs.ErrForbidden
		}
		if err := tx.Clicks().DeleteByMapping(ctx, mapping.ID); err != nil {
			return err
		}
		code = mapping.ShortCode
		return tx.Mappings().Delete(ctx, mapping)
	})
	if err != nil {
		if errs.IsNotFound(err) {
			return fmt.Errorf("%w: 短链接 %d", errs.ErrNotFound, id)
		}
		return err
	}
	s.cacheDel(ctx, code)
	return nil
}

// Stats 全局统计
type Stats struct {
	TotalLinks  int64 `json:"total_links"`
	TotalClicks int64 `json:"total_clicks"`
	TotalUsers  int64 `json:"total_users"`
}

// Stats 返回全局统计数据
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	var err error
	if stats.TotalLinks, err = s.store.Mappings().Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalClicks, err = s.store.Mappings().SumClicks(ctx); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.store.Users().Count(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength {
		return "", fmt.Errorf("%w: 链接为空或过长", errs.ErrInvalidInput)
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: 链接格式错误", errs.ErrInvalidInput)
	}
	return parsed.String(), nil
}

// ---- 缓存 ----

type cacheEntry struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

func (s *Service) cacheGet(ctx context.Context, code string) (*cacheEntry, bool) {
	if s.redis == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	val, err := s.redis.Get(ctx, cacheKeyPrefix+code).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warnf("读取缓存失败: %v", err)
		}
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (s *Service) cacheSet(ctx context.Context, m *model.URLMapping) {
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(cacheEntry{ID: m.ID, URL: m.OriginalURL})
	if err := s.redis.Set(ctx, cacheKeyPrefix+m.ShortCode, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warnf("写入缓存失败: %v", err)
	}
}

func (s *Service) cacheDel(ctx context.Context, code string) {
	if s.redis == nil || code == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, cacheKeyPrefix+code).Err(); err != nil {
		s.logger.Warnf("删除缓存失败: %v", err)
	}
}
