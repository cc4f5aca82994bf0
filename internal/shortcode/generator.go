package shortcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"shorturl-service/internal/errs"

	"go.uber.org/zap"
)

const (
	// Charset 包含用于生成短码的所有字符
	Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// CodeLength 是生成的短码的长度
	CodeLength = 7
	// MaxAttempts 单次生成的最大尝试次数
	MaxAttempts = 5
)

var charsetSize = big.NewInt(int64(len(Charset)))

// ExistenceChecker 查询短码是否已被占用，由 MappingStore 实现
type ExistenceChecker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// Generator 负责生成唯一的短码
//
// random 必须可以被多个 goroutine 并发读取而无需额外加锁，crypto/rand.Reader 满足该要求。
type Generator struct {
	store  ExistenceChecker
	random io.Reader
	logger *zap.SugaredLogger
}

// NewGenerator 创建一个新的短码生成器实例，random 为 nil 时使用 crypto/rand.Reader
func NewGenerator(store ExistenceChecker, random io.Reader, logger *zap.SugaredLogger) *Generator {
	if random == nil {
		random = rand.Reader
	}
	return &Generator{
		store:  store,
		random: random,
		logger: logger.Named("shortcode_generator"),
	}
}

// Generate 生成一个在存储中尚不存在的短码，超出尝试次数返回 ErrGenerationExhausted
//
// 存在性检查只用于减少冲突，最终唯一性由插入时的唯一索引保证，调用方需要处理 ErrDuplicate。
func (g *Generator) Generate(ctx context.Context) (string, error) {
	var lastErr error
	for i := 0; i < MaxAttempts; i++ {
		code, err := g.randomString(CodeLength)
		if err != nil {
			return "", err
		}
		exists, err := g.store.Exists(ctx, code)
		if err != nil {
			// 存储不可用时保守地认为已存在，继续尝试
			g.logger.Errorf("查询短码是否存在时出错: %v", err)
			lastErr = err
			continue
		}
		if !exists {
			return code, nil
		}
	}
	g.logger.Warnf("已尝试%d次生成短码，但均存在冲突。", MaxAttempts)
	if lastErr != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrGenerationExhausted, lastErr)
	}
	return "", errs.ErrGenerationExhausted
}

// randomString 使用随机源逐个字符独立抽取
func (g *Generator) randomString(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(g.random, charsetSize)
		if err != nil {
			return "", err
		}
		b[i] = Charset[num.Int64()]
	}
	return string(b), nil
}

// Valid 校验短码的长度和字符集
func Valid(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z') {
			return false
		}
	}
	return true
}
