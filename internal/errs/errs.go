// Package errs 定义业务错误分类，调用方通过 errors.Is 判断，不做字符串匹配。
package errs

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
)

// 业务错误：对当前操作是终止性的，不自动重试
var (
	ErrNotFound            = errors.New("资源不存在")
	ErrConflict            = errors.New("资源已存在")
	ErrProviderConflict    = errors.New("登录方式冲突")
	ErrUnauthorized        = errors.New("用户名或密码错误")
	ErrForbidden           = errors.New("无权操作该资源")
	ErrInvalidProfile      = errors.New("第三方账号资料无效")
	ErrUnsupportedProvider = errors.New("不支持的登录方式")
	ErrGenerationExhausted = errors.New("唯一标识分配失败，请稍后重试")
	ErrTokenExpired        = errors.New("令牌已过期")
	ErrTokenInvalid        = errors.New("无效的令牌")
	ErrInvalidInput        = errors.New("无效的请求参数")
)

// 存储层错误
var (
	// ErrDuplicate 表示唯一约束冲突，短码和用户名分配会据此重试
	ErrDuplicate = errors.New("唯一约束冲突")
	// ErrTransient 表示超时或连接类故障，调用方可以重试
	ErrTransient = errors.New("存储暂时不可用")
)

// IsNotFound 判断是否为资源不存在
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicate 判断是否为唯一约束冲突
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

// IsTransient 判断错误是否可以重试
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
