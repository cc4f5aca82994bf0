package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shorturl-service/internal/analytics"
	"shorturl-service/internal/errs"
	"shorturl-service/internal/identity"
	"shorturl-service/internal/middleware"
	"shorturl-service/internal/model"
	"shorturl-service/internal/shortener"

	"github.com/gin-gonic/gin"
)

// 统计接口接受的时间格式
var dateTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", time.RFC3339}

// ShortLinkHandler 处理器
type ShortLinkHandler struct {
	links   *shortener.Service
	clicks  *analytics.Aggregator
	users   *identity.Service
	baseURL string
}

// NewShortLinkHandler 创建处理器实例，baseURL 用于拼接短链接地址
func NewShortLinkHandler(links *shortener.Service, clicks *analytics.Aggregator, users *identity.Service, baseURL string) *ShortLinkHandler {
	return &ShortLinkHandler{
		links:   links,
		clicks:  clicks,
		users:   users,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// HealthCheck godoc
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// CreateShortLinkRequest 创建短链接请求
type CreateShortLinkRequest struct {
	OriginalURL string `json:"originalUrl" binding:"required" example:"https://github.com/gin-gonic/gin"`
}

// URLMappingResponse 短链接信息
type URLMappingResponse struct {
	ID          uint      `json:"id" example:"1"`
	OriginalURL string    `json:"originalUrl" example:"https://github.com/gin-gonic/gin"`
	ShortURL    string    `json:"shortUrl" example:"http://localhost:8080/aZ3k9Qx"`
	ShortCode   string    `json:"shortCode" example:"aZ3k9Qx"`
	ClickCount  int64     `json:"clickCount" example:"0"`
	CreatedDate time.Time `json:"createdDate"`
	Username    string    `json:"username" example:"alice"`
}

func (h *ShortLinkHandler) toResponse(m *model.URLMapping, owner *model.User) URLMappingResponse {
	return URLMappingResponse{
		ID:          m.ID,
		OriginalURL: m.OriginalURL,
		ShortURL:    h.baseURL + "/" + m.ShortCode,
		ShortCode:   m.ShortCode,
		ClickCount:  m.ClickCount,
		CreatedDate: m.CreatedAt,
		Username:    owner.Username,
	}
}

// CreateShortLink godoc
// @Summary 创建短链接
// @Description 为一个长 URL 创建一个新的短链接
// @Tags ShortLink
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   url  body   CreateShortLinkRequest  true  "长链接 URL"
// @Success 201 {object} URLMappingResponse "成功响应"
// @Failure 400 {object} ErrorResponse "请求无效"
// @Failure 401 {object} ErrorResponse "未认证"
// @Failure 503 {object} ErrorResponse "短码分配失败"
// @Router /api/urls/shorten [post]
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	owner, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	mapping, err := h.links.Shorten(c.Request.Context(), req.OriginalURL, owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(mapping, owner))
}

// GetMyLinks godoc
// @Summary 我的短链接
// @Description 返回当前用户的全部短链接，按创建时间倒序
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {array} URLMappingResponse
// @Failure 401 {object} ErrorResponse "未认证"
// @Router /api/urls/myurls [get]
func (h *ShortLinkHandler) GetMyLinks(c *gin.Context) {
	owner, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	mappings, err := h.links.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]URLMappingResponse, len(mappings))
	for i := range mappings {
		resp[i] = h.toResponse(&mappings[i], owner)
	}
	c.JSON(http.StatusOK, resp)
}

// GetLinkAnalytics godoc
// @Summary 短链接点击统计
// @Description 统计 [startDate, endDate) 内每天的点击数，只能查询自己的短链接
// @Tags Analytics
// @Security ApiKeyAuth
// @Produce  json
// @Param code      path  string true "短码"
// @Param startDate query string true "开始时间" example(2025-01-01T00:00:00)
// @Param endDate   query string true "结束时间" example(2025-02-01T00:00:00)
// @Success 200 {array} analytics.DailyClicks
// @Failure 400 {object} ErrorResponse "参数错误"
// @Failure 403 {object} ErrorResponse "无权查看"
// @Failure 404 {object} ErrorResponse "短码不存在"
// @Router /api/urls/analytics/{code} [get]
func (h *ShortLinkHandler) GetLinkAnalytics(c *gin.Context) {
	loc := h.clicks.Location()
	start, err := parseTime(c.Query("startDate"), loc, dateTimeLayouts)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseTime(c.Query("endDate"), loc, dateTimeLayouts)
	if err != nil {
		respondError(c, err)
		return
	}
	owner, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	mapping, err := h.links.FindOwned(c.Request.Context(), c.Param("code"), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	daily, err := h.clicks.ClicksByDate(c.Request.Context(), mapping, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, daily)
}

// GetTotalClicks godoc
// @Summary 用户点击汇总
// @Description 统计当前用户全部短链接在 startDate 到 endDate（含）每天的点击数
// @Tags Analytics
// @Security ApiKeyAuth
// @Produce  json
// @Param startDate query string true "开始日期" example(2025-01-01)
// @Param endDate   query string true "结束日期" example(2025-01-31)
// @Success 200 {object} map[string]int64
// @Failure 400 {object} ErrorResponse "参数错误"
// @Router /api/urls/totalClicks [get]
func (h *ShortLinkHandler) GetTotalClicks(c *gin.Context) {
	loc := h.clicks.Location()
	start, err := parseTime(c.Query("startDate"), loc, []string{analytics.DateLayout})
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseTime(c.Query("endDate"), loc, []string{analytics.DateLayout})
	if err != nil {
		respondError(c, err)
		return
	}
	owner, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	totals, err := h.clicks.TotalClicksByOwner(c.Request.Context(), owner.ID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// DeleteLink godoc
// @Summary 删除短链接
// @Description 删除自己的短链接及其点击记录
// @Tags ShortLink
// @Security ApiKeyAuth
// @Param id path int true "短链接 id"
// @Success 204
// @Failure 403 {object} ErrorResponse "无权删除"
// @Failure 404 {object} ErrorResponse "短链接不存在"
// @Router /api/urls/{id} [delete]
func (h *ShortLinkHandler) DeleteLink(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}
	owner, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	if err := h.links.Delete(c.Request.Context(), uint(id), owner); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RedirectToOriginal godoc
// @Summary 短链接跳转
// @Description 302 跳转到原始链接并记录一次点击
// @Tags ShortLink
// @Param code path string true "短码"
// @Success 302
// @Failure 404 {object} ErrorResponse "链接不存在"
// @Router /{code} [get]
func (h *ShortLinkHandler) RedirectToOriginal(c *gin.Context) {
	target, err := h.links.Redirect(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// GetStats godoc
// @Summary 全局统计
// @Tags Admin
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} shortener.Stats
// @Failure 403 {object} ErrorResponse "需要管理员权限"
// @Router /api/admin/stats [get]
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	stats, err := h.links.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// currentUser 加载令牌对应的用户，失败时已写入响应
func currentUser(c *gin.Context, users *identity.Service) (*model.User, bool) {
	userID := c.GetUint(middleware.CtxUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
		return nil, false
	}
	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errs.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return user, true
}

func parseTime(raw string, loc *time.Location, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: 时间格式错误 %q", errs.ErrInvalidInput, raw)
}
