package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"shorturl-service/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimit 按客户端 IP 限流。配置了 Redis 时使用 Redis 固定窗口计数，多实例共享；
// Redis 不可用时退回到进程内的令牌桶。
func RateLimit(redisClient *redis.Client, limitConfig *config.Limit) gin.HandlerFunc {
	if !limitConfig.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	local := newLocalLimiter(rate.Limit(float64(limitConfig.Requests)/60), int(limitConfig.Burst))

	return func(c *gin.Context) {
		// 跳过特定路径
		for _, path := range limitConfig.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		ip := c.ClientIP()
		allowed, err := allowRedis(c.Request.Context(), redisClient, ip, limitConfig.Requests)
		if err != nil {
			if redisClient != nil {
				zap.S().Warnf("Redis 限流失败，使用本地限流: %v", err)
			}
			allowed = local.allow(ip)
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}

		c.Next()
	}
}

var errNoRedis = errors.New("redis 未配置")

// allowRedis 每个 IP 每分钟一个计数键
func allowRedis(ctx context.Context, rdb *redis.Client, ip string, limit int64) (bool, error) {
	if rdb == nil {
		return false, errNoRedis
	}
	window := time.Now().Unix() / 60
	key := rateLimitKeyPrefix + ip + ":" + strconv.FormatInt(window, 10)

	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= limit, nil
}

// limiterIdleTTL 超过该时长未访问的 IP 令牌桶会被清理
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter 每个 IP 一个令牌桶，空闲条目在访问时顺带清理
type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newLocalLimiter(limit rate.Limit, burst int) *localLimiter {
	return &localLimiter{
		limit:    limit,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *localLimiter) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.sweep(now)
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// sweep 删除空闲的令牌桶，调用方持有锁
func (l *localLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= limiterIdleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}
