package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"shorturl-service/internal/analytics"
	"shorturl-service/internal/config"
	"shorturl-service/internal/errs"
	"shorturl-service/internal/identity"
	"shorturl-service/internal/middleware"
	"shorturl-service/internal/model"
	"shorturl-service/internal/oauth"
	"shorturl-service/internal/shortcode"
	"shorturl-service/internal/shortener"
	"shorturl-service/internal/testutil"
	auth "shorturl-service/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const frontendRedirect = "http://frontend.test/oauth2/redirect"

type testEnv struct {
	router *gin.Engine
	users  *identity.Service
}

// setupTest 为集成测试初始化一个干净的环境：内存数据库、无 Redis、GitHub 指向 providerURL
func setupTest(t *testing.T, providerURL string) *testEnv {
	return setupTestWithRedirect(t, providerURL, frontendRedirect)
}

func setupTestWithRedirect(t *testing.T, providerURL, redirectURI string) *testEnv {
	gin.SetMode(gin.TestMode)

	store := testutil.NewStore(t)
	logger := zap.NewNop().Sugar()

	users := identity.NewService(store.Users(), identity.BcryptHasher{Cost: bcrypt.MinCost}, logger)
	clicks := analytics.NewAggregator(store, time.UTC, logger)
	links := shortener.NewService(store, shortcode.NewGenerator(store.Mappings(), nil, logger), clicks, nil, 0, logger)
	tokens := auth.NewManager("test-secret", "test", 1)

	providers := map[model.AuthProvider]oauth.ProviderConfig{}
	if providerURL != "" {
		providers[model.ProviderGitHub] = oauth.ProviderConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/oauth2/callback/github",
			AuthURL:      providerURL + "/login/oauth/authorize",
			TokenURL:     providerURL + "/login/oauth/access_token",
			APIBase:      providerURL,
		}
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.GinZapRecovery(zap.NewNop(), false))
	router.Use(middleware.RateLimit(nil, &config.Limit{Enabled: false}))
	RegisterRoutes(router,
		NewShortLinkHandler(links, clicks, users, "http://sho.rt"),
		NewAuthHandler(users, oauth.NewClient(providers), tokens, redirectURI),
		middleware.AuthMiddleware(tokens),
		middleware.AdminMiddleware(),
	)
	return &testEnv{router: router, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/public/register", "", RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// TestShortLinkHandler_Integration 注册、创建、跳转、统计、删除的完整流程
func TestShortLinkHandler_Integration(t *testing.T) {
	env := setupTest(t, "")
	alice := env.register(t, "alice")

	// 登录
	w := env.do(t, http.MethodPost, "/api/auth/public/login", "", LoginRequest{Username: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/api/auth/public/login", "", LoginRequest{Username: "ghost", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/api/auth/public/login", "", LoginRequest{Username: "alice", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[AuthResponse](t, w).Token)

	// 创建短链接
	originalURL := "https://www.google.com/very/long/path/that/needs/shortening"
	w = env.do(t, http.MethodPost, "/api/urls/shorten", alice, CreateShortLinkRequest{OriginalURL: originalURL})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[URLMappingResponse](t, w)
	assert.True(t, shortcode.Valid(created.ShortCode))
	assert.Equal(t, "http://sho.rt/"+created.ShortCode, created.ShortURL)
	assert.Equal(t, "alice", created.Username)

	// 跳转三次
	for i := 0; i < 3; i++ {
		w = env.do(t, http.MethodGet, "/"+created.ShortCode, "", nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, originalURL, w.Header().Get("Location"))
	}

	w = env.do(t, http.MethodGet, "/api/urls/myurls", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]URLMappingResponse](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(3), mine[0].ClickCount)

	// 按天统计
	now := time.Now().UTC()
	today := now.Format(analytics.DateLayout)
	q := url.Values{
		"startDate": {now.Add(-24 * time.Hour).Format("2006-01-02T15:04:05")},
		"endDate":   {now.Add(24 * time.Hour).Format("2006-01-02T15:04:05")},
	}
	w = env.do(t, http.MethodGet, "/api/urls/analytics/"+created.ShortCode+"?"+q.Encode(), alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []analytics.DailyClicks{{ClickDate: today, Count: 3}}, decode[[]analytics.DailyClicks](t, w))

	w = env.do(t, http.MethodGet, "/api/urls/totalClicks?startDate="+today+"&endDate="+today, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int64{today: 3}, decode[map[string]int64](t, w))

	w = env.do(t, http.MethodGet, "/api/urls/totalClicks?startDate=yesterday&endDate="+today, alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 其他用户无权查看和删除
	bob := env.register(t, "bob")
	w = env.do(t, http.MethodGet, "/api/urls/analytics/"+created.ShortCode+"?"+q.Encode(), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/urls/"+strconv.FormatUint(uint64(created.ID), 10), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/urls/totalClicks?startDate="+today+"&endDate="+today, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string]int64](t, w))

	// 删除后跳转 404
	w = env.do(t, http.MethodDelete, "/api/urls/"+strconv.FormatUint(uint64(created.ID), 10), alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/"+created.ShortCode, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/urls/"+strconv.FormatUint(uint64(created.ID), 10), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegister_Conflict(t *testing.T) {
	env := setupTest(t, "")
	env.register(t, "carol")

	w := env.do(t, http.MethodPost, "/api/auth/public/register", "", RegisterRequest{
		Username: "carol", Email: "carol2@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/public/register", "", RegisterRequest{
		Username: "carol2", Email: "not-an-email", Password: "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes(t *testing.T) {
	env := setupTest(t, "")

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/urls/myurls", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", "bad", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/zzzzzzz", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/not-a-code!", "", nil).Code)

	dave := env.register(t, "dave")
	w := env.do(t, http.MethodGet, "/api/auth/me", dave, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[UserResponse](t, w)
	assert.Equal(t, "dave", me.Username)
	assert.Equal(t, model.ProviderLocal, me.AuthProvider)
	assert.Equal(t, model.RoleUser, me.Role)

	w = env.do(t, http.MethodPost, "/api/urls/shorten", dave, CreateShortLinkRequest{OriginalURL: "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminStats(t *testing.T) {
	env := setupTest(t, "")
	require.NoError(t, env.users.EnsureAdmin(t.Context(), "root", "root@example.com", "rootpass"))

	user := env.register(t, "erin")
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/admin/stats", user, nil).Code)

	w := env.do(t, http.MethodPost, "/api/auth/public/login", "", LoginRequest{Username: "root", Password: "rootpass"})
	require.Equal(t, http.StatusOK, w.Code)
	admin := decode[AuthResponse](t, w).Token

	w = env.do(t, http.MethodPost, "/api/urls/shorten", user, CreateShortLinkRequest{OriginalURL: "https://example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shortener.Stats{TotalLinks: 1, TotalClicks: 0, TotalUsers: 2}, decode[shortener.Stats](t, w))
}

// fakeGitHub 模拟 GitHub 授权、/user 和 /user/emails 接口
func fakeGitHub(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":42,"login":"octocat","name":"The Octocat","avatar_url":"https://avatars.example/42"}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"email":"octo@example.com","primary":true,"verified":true}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuth2Flow(t *testing.T) {
	srv := fakeGitHub(t)
	env := setupTest(t, srv.URL)

	w := env.do(t, http.MethodGet, "/api/auth/public/oauth2/urls", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []ProviderURL{{Provider: "github", AuthorizationURL: "/oauth2/authorize/github"}}, decode[[]ProviderURL](t, w))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/oauth2/authorize/facebook", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/oauth2/authorize/google", "", nil).Code)

	// 发起授权
	w = env.do(t, http.MethodGet, "/oauth2/authorize/github", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, state, cookies[0].Value)

	callback := func(state string, cookie *http.Cookie) *url.URL {
		req := httptest.NewRequest(http.MethodGet, "/oauth2/callback/github?code=c&state="+url.QueryEscape(state), nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusFound, w.Code)
		u, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		return u
	}

	// state 不匹配
	u := callback("forged", cookies[0])
	assert.NotEmpty(t, u.Query().Get("error"))
	assert.Empty(t, u.Query().Get("token"))
	u = callback(state, nil)
	assert.NotEmpty(t, u.Query().Get("error"))

	// 正常回调
	u = callback(state, cookies[0])
	assert.Equal(t, "frontend.test", u.Host)
	token := u.Query().Get("token")
	require.NotEmpty(t, token, u.String())

	w = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[UserResponse](t, w)
	assert.Equal(t, "theoctocat", me.Username)
	assert.Equal(t, "octo@example.com", me.Email)
	assert.Equal(t, model.ProviderGitHub, me.AuthProvider)
}

// 同一邮箱的本地账号不能再用 GitHub 登录
func TestOAuth2Callback_LocalAccountConflict(t *testing.T) {
	env := setupTest(t, fakeGitHub(t).URL)
	w := env.do(t, http.MethodPost, "/api/auth/public/register", "", RegisterRequest{
		Username: "octo", Email: "octo@example.com", Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/oauth2/callback/github?code=c&state=s", nil)
	req.AddCookie(&http.Cookie{Name: "oauth2_state", Value: "s"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	redirected, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, redirected.Query().Get("error"), string(model.ProviderLocal))
	assert.Empty(t, redirected.Query().Get("token"))
}

// 前端地址自带查询参数时保留原参数
func TestOAuth2Callback_RedirectKeepsQuery(t *testing.T) {
	env := setupTestWithRedirect(t, fakeGitHub(t).URL, "http://frontend.test/oauth2/redirect?lang=zh")

	callback := func(state string) url.Values {
		req := httptest.NewRequest(http.MethodGet, "/oauth2/callback/github?code=c&state="+url.QueryEscape(state), nil)
		req.AddCookie(&http.Cookie{Name: "oauth2_state", Value: "s"})
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		u, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/oauth2/redirect", u.Path)
		return u.Query()
	}

	q := callback("forged")
	assert.Equal(t, "zh", q.Get("lang"))
	assert.NotEmpty(t, q.Get("error"))

	q = callback("s")
	assert.Equal(t, "zh", q.Get("lang"))
	assert.NotEmpty(t, q.Get("token"))
	assert.Empty(t, q.Get("error"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: 短码 abc", errs.ErrNotFound), http.StatusNotFound},
		{errs.ErrConflict, http.StatusConflict},
		{errs.ErrProviderConflict, http.StatusConflict},
		{errs.ErrUnauthorized, http.StatusUnauthorized},
		{errs.ErrForbidden, http.StatusForbidden},
		{errs.ErrInvalidProfile, http.StatusUnprocessableEntity},
		{errs.ErrUnsupportedProvider, http.StatusBadRequest},
		{errs.ErrGenerationExhausted, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: exp", errs.ErrTokenExpired), http.StatusUnauthorized},
		{errs.ErrTokenInvalid, http.StatusUnauthorized},
		{errs.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{errs.ErrTransient, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
