// Package analytics 记录点击并按日期聚合
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"
	"shorturl-service/internal/repository"

	"go.uber.org/zap"
)

// DateLayout 日期桶的格式
const DateLayout = "2006-01-02"

// DailyClicks 某一天的点击数
type DailyClicks struct {
	ClickDate string `json:"clickDate" example:"2025-01-31"`
	Count     int64  `json:"count" example:"3"`
}

// Aggregator 点击记录与统计
type Aggregator struct {
	store    *repository.Store
	location *time.Location
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// Option 可选配置
type Option func(*Aggregator)

// WithClock 替换时间来源，测试使用
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator 创建聚合器，loc 为日期分桶使用的时区
func NewAggregator(store *repository.Store, loc *time.Location, logger *zap.SugaredLogger, opts ...Option) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	a := &Aggregator{
		store:    store,
		location: loc,
		now:      time.Now,
		logger:   logger.Named("analytics"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Location 返回分桶时区
func (a *Aggregator) Location() *time.Location { return a.location }

// RecordClick 按短码记录一次点击，返回对应的短链接
//
// 计数自增和点击记录写入在同一事务中完成，任意一步失败都会整体回滚。
func (a *Aggregator) RecordClick(ctx context.Context, code string) (*model.URLMapping, error) {
	var mapping *model.URLMapping
	err := a.store.Atomic(ctx, func(tx *repository.Store) error {
		m, err := tx.Mappings().FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if err := a.record(ctx, tx, m.ID); err != nil {
			return err
		}
		m.ClickCount++
		mapping = m
		return nil
	})
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: 短码 %s", errs.ErrNotFound, code)
		}
		return nil, err
	}
	return mapping, nil
}

// RecordClickByID 在已知短链接 id 时记录点击（缓存命中路径），记录已被删除时返回 ErrNotFound
func (a *Aggregator) RecordClickByID(ctx context.Context, mappingID uint) error {
	return a.store.Atomic(ctx, func(tx *repository.Store) error {
		return a.record(ctx, tx, mappingID)
	})
}

func (a *Aggregator) record(ctx context.Context, tx *repository.Store, mappingID uint) error {
	if err := tx.Mappings().IncrementClickCount(ctx, mappingID); err != nil {
		return err
	}
	return tx.Clicks().Insert(ctx, &model.ClickEvent{
		URLMappingID: mappingID,
		ClickedAt:    a.now().UTC(),
	})
}

// ClicksByDateForMapping 统计 [start, end) 内某个短码每天的点击数，按日期升序，没有点击的日期不出现
func (a *Aggregator) ClicksByDateForMapping(ctx context.Context, code string, start, end time.Time) ([]DailyClicks, error) {
	m, err := a.store.Mappings().FindByCode(ctx, code)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: 短码 %s", errs.ErrNotFound, code)
		}
		return nil, err
	}
	return a.ClicksByDate(ctx, m, start, end)
}

// ClicksByDate 与 ClicksByDateForMapping 相同，但使用已加载的短链接
func (a *Aggregator) ClicksByDate(ctx context.Context, m *model.URLMapping, start, end time.Time) ([]DailyClicks, error) {
	events, err := a.store.Clicks().FindByMapping(ctx, m.ID, repository.TimeRange{Start: start, End: end})
	if err != nil {
		return nil, err
	}

	buckets := a.bucket(events)
	result := make([]DailyClicks, 0, len(buckets))
	for date, count := range buckets {
		result = append(result, DailyClicks{ClickDate: date, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClickDate < result[j].ClickDate })
	return result, nil
}

// TotalClicksByOwner 统计用户所有短链接在 [startDate, endDate] 这些自然日内的每日点击数
//
// 用户没有短链接时返回空结果而不是错误。
func (a *Aggregator) TotalClicksByOwner(ctx context.Context, userID uint, startDate, endDate time.Time) (map[string]int64, error) {
	mappings, err := a.store.Mappings().FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return map[string]int64{}, nil
	}

	ids := make([]uint, len(mappings))
	for i, m := range mappings {
		ids[i] = m.ID
	}
	events, err := a.store.Clicks().FindByMappings(ctx, ids, a.DayRange(startDate, endDate))
	if err != nil {
		return nil, err
	}
	return a.bucket(events), nil
}

// DayRange 把闭区间的自然日转换为半开时间区间 [startDate 00:00, endDate+1 00:00)
func (a *Aggregator) DayRange(startDate, endDate time.Time) repository.TimeRange {
	return repository.TimeRange{
		Start: startOfDay(startDate, a.location),
		End:   startOfDay(endDate, a.location).AddDate(0, 0, 1),
	}
}

func (a *Aggregator) bucket(events []model.ClickEvent) map[string]int64 {
	buckets := make(map[string]int64)
	for _, e := range events {
		buckets[e.ClickedAt.In(a.location).Format(DateLayout)]++
	}
	return buckets
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
