package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/identity"
	"shorturl-service/internal/model"
	"shorturl-service/internal/oauth"
	auth "shorturl-service/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	stateCookie       = "oauth2_state"
	stateCookieMaxAge = 180 // 秒
)

// AuthHandler 包含认证相关的处理器
type AuthHandler struct {
	users       *identity.Service
	providers   *oauth.Client
	jwtManager  *auth.TokenManager
	redirectURI *url.URL
	logger      *zap.SugaredLogger
}

// NewAuthHandler 创建一个新的 AuthHandler。redirectURI 为第三方登录完成后前端接收令牌的地址，
// 为空时回调直接返回 JSON。
func NewAuthHandler(users *identity.Service, providers *oauth.Client, jwtManager *auth.TokenManager, redirectURI string) *AuthHandler {
	h := &AuthHandler{
		users:      users,
		providers:  providers,
		jwtManager: jwtManager,
		logger:     zap.S().Named("auth"),
	}
	if redirectURI != "" {
		u, err := url.Parse(redirectURI)
		if err != nil {
			h.logger.Errorf("前端跳转地址无效，回调将直接返回 JSON: %v", err)
		} else {
			h.redirectURI = u
		}
	}
	return h
}

// LoginRequest 定义了登录请求的结构体
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// RegisterRequest 定义了注册请求的结构体
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,alphanum" example:"newuser"`
	Email    string `json:"email" binding:"required,email" example:"newuser@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"password123"`
}

// AuthResponse 定义了认证成功后的响应
type AuthResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// UserResponse 当前用户信息
type UserResponse struct {
	ID           uint               `json:"id" example:"1"`
	Username     string             `json:"username" example:"alice"`
	Email        string             `json:"email" example:"alice@example.com"`
	DisplayName  string             `json:"displayName,omitempty" example:"Alice"`
	Role         string             `json:"role" example:"USER"`
	AuthProvider model.AuthProvider `json:"authProvider" example:"LOCAL"`
	ImageURL     string             `json:"imageUrl,omitempty"`
}

// ProviderURL 第三方登录入口
type ProviderURL struct {
	Provider         string `json:"provider" example:"github"`
	AuthorizationURL string `json:"authorizationUrl" example:"/oauth2/authorize/github"`
}

// Login godoc
// @Summary 用户登录
// @Description 使用用户名和密码获取 JWT 令牌
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param   account  body   LoginRequest  true  "登录凭据"
// @Success 200 {object} AuthResponse "成功响应"
// @Failure 400 {object} ErrorResponse "请求无效"
// @Failure 401 {object} ErrorResponse "认证失败"
// @Failure 409 {object} ErrorResponse "账号需使用第三方登录"
// @Router /api/auth/public/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.AuthenticateLocal(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// 不区分用户不存在和密码错误
		if errs.IsNotFound(err) {
			err = errs.ErrUnauthorized
		}
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, user)
}

// Register godoc
// @Summary 用户注册
// @Description 创建一个新的本地用户并返回 JWT 令牌
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param   account  body   RegisterRequest  true  "注册信息"
// @Success 201 {object} AuthResponse "成功响应"
// @Failure 400 {object} ErrorResponse "请求无效"
// @Failure 409 {object} ErrorResponse "用户名或邮箱已存在"
// @Router /api/auth/public/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.RegisterLocal(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, user)
}

// GetCurrentUser godoc
// @Summary 获取当前用户信息
// @Description 获取当前已登录用户的信息
// @Tags Auth
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} UserResponse "成功响应"
// @Failure 401 {object} ErrorResponse "未认证"
// @Router /api/auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         user.Role,
		AuthProvider: user.AuthProvider,
		ImageURL:     user.ImageURL,
	})
}

// OAuth2URLs godoc
// @Summary 第三方登录入口
// @Description 列出已启用的第三方登录方式及其授权入口
// @Tags Auth
// @Produce  json
// @Success 200 {array} ProviderURL
// @Router /api/auth/public/oauth2/urls [get]
func (h *AuthHandler) OAuth2URLs(c *gin.Context) {
	enabled := h.providers.Providers()
	list := make([]ProviderURL, 0, len(enabled))
	for _, p := range enabled {
		tag := oauth.Tag(p)
		list = append(list, ProviderURL{Provider: tag, AuthorizationURL: "/oauth2/authorize/" + tag})
	}
	c.JSON(http.StatusOK, list)
}

// Authorize godoc
// @Summary 发起第三方登录
// @Description 写入 state cookie 并跳转到第三方授权页
// @Tags Auth
// @Param provider path string true "google 或 github"
// @Success 302
// @Failure 400 {object} ErrorResponse "不支持的登录方式"
// @Router /oauth2/authorize/{provider} [get]
func (h *AuthHandler) Authorize(c *gin.Context) {
	provider, err := oauth.ParseProvider(c.Param("provider"))
	if err != nil {
		respondError(c, err)
		return
	}
	state := uuid.NewString()
	target, err := h.providers.AuthCodeURL(provider, state)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateCookieMaxAge, "/oauth2", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, target)
}

// Callback godoc
// @Summary 第三方登录回调
// @Description 校验 state，用授权码换取资料并解析为本地用户，签发令牌后跳转到前端
// @Tags Auth
// @Param provider path  string true "google 或 github"
// @Param code     query string true "授权码"
// @Param state    query string true "state"
// @Success 302
// @Success 200 {object} AuthResponse "未配置前端地址时"
// @Failure 401 {object} ErrorResponse "state 校验失败"
// @Failure 409 {object} ErrorResponse "邮箱已通过其他方式注册"
// @Failure 422 {object} ErrorResponse "第三方资料缺少邮箱"
// @Router /oauth2/callback/{provider} [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	expected, _ := c.Cookie(stateCookie)
	c.SetCookie(stateCookie, "", -1, "/oauth2", "", c.Request.TLS != nil, true)

	token, err := h.callback(c, expected)
	if err != nil {
		h.logger.Warnf("第三方登录失败 (%s): %v", c.Param("provider"), err)
		if h.redirectURI == nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, h.frontendURL("error", publicMessage(err)))
		return
	}

	if h.redirectURI == nil {
		c.JSON(http.StatusOK, AuthResponse{Token: token})
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL("token", token))
}

// frontendURL 在前端地址原有的查询参数上追加 key=value
func (h *AuthHandler) frontendURL(key, value string) string {
	u := *h.redirectURI
	query := u.Query()
	query.Set(key, value)
	u.RawQuery = query.Encode()
	return u.String()
}

func (h *AuthHandler) callback(c *gin.Context, expectedState string) (string, error) {
	provider, err := oauth.ParseProvider(c.Param("provider"))
	if err != nil {
		return "", err
	}
	if denied := c.Query("error"); denied != "" {
		return "", fmt.Errorf("%w: 用户拒绝授权 (%s)", errs.ErrUnauthorized, denied)
	}
	if expectedState == "" || c.Query("state") != expectedState {
		return "", fmt.Errorf("%w: state 校验失败", errs.ErrUnauthorized)
	}
	code := c.Query("code")
	if code == "" {
		return "", fmt.Errorf("%w: 缺少授权码", errs.ErrInvalidInput)
	}

	ctx := c.Request.Context()
	profile, err := h.providers.FetchProfile(ctx, provider, code)
	if err != nil {
		return "", err
	}
	user, err := h.users.Resolve(ctx, provider, profile)
	if err != nil {
		return "", err
	}
	return h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *model.User) {
	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Errorf("生成令牌失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
		return
	}
	c.JSON(status, AuthResponse{Token: token})
}

// publicMessage 可以展示给用户的错误信息
func publicMessage(err error) string {
	if HTTPStatus(err) >= http.StatusInternalServerError {
		return "登录失败，请稍后重试"
	}
	return err.Error()
}
