package handler

import (
	"errors"
	"net/http"

	"shorturl-service/internal/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 错误响应格式
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusOf 业务错误到 HTTP 状态码，按顺序匹配
var statusOf = []struct {
	err    error
	status int
}{
	{errs.ErrNotFound, http.StatusNotFound},
	{errs.ErrConflict, http.StatusConflict},
	{errs.ErrProviderConflict, http.StatusConflict},
	{errs.ErrTokenExpired, http.StatusUnauthorized},
	{errs.ErrTokenInvalid, http.StatusUnauthorized},
	{errs.ErrUnauthorized, http.StatusUnauthorized},
	{errs.ErrForbidden, http.StatusForbidden},
	{errs.ErrInvalidProfile, http.StatusUnprocessableEntity},
	{errs.ErrUnsupportedProvider, http.StatusBadRequest},
	{errs.ErrInvalidInput, http.StatusBadRequest},
	{errs.ErrGenerationExhausted, http.StatusServiceUnavailable},
}

// HTTPStatus 返回错误对应的状态码，未知错误为 500
func HTTPStatus(err error) int {
	for _, s := range statusOf {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	if errs.IsTransient(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError 写入错误响应，500 不向客户端暴露内部错误
func respondError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		zap.S().Errorf("%s %s 处理失败: %v", c.Request.Method, c.FullPath(), err)
		msg = "服务器内部错误"
	case http.StatusServiceUnavailable:
		zap.S().Warnf("%s %s 暂时不可用: %v", c.Request.Method, c.FullPath(), err)
		if !errors.Is(err, errs.ErrGenerationExhausted) {
			msg = errs.ErrTransient.Error()
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
}
