package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubAPIBase     = "https://api.github.com"
)

// ProviderConfig 单个第三方的 OAuth2 配置，AuthURL/TokenURL/UserInfoURL/APIBase 为空时使用官方地址
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	APIBase      string
}

type providerClient struct {
	oauth       *oauth2.Config
	userInfoURL string
	apiBase     string
}

// Client 第三方登录客户端，只包含配置了 ClientID 的登录方式
type Client struct {
	providers map[model.AuthProvider]*providerClient
}

// NewClient 根据配置创建客户端
func NewClient(configs map[model.AuthProvider]ProviderConfig) *Client {
	c := &Client{providers: make(map[model.AuthProvider]*providerClient)}
	for provider, cfg := range configs {
		if cfg.ClientID == "" {
			continue
		}
		if pc := newProviderClient(provider, cfg); pc != nil {
			c.providers[provider] = pc
		}
	}
	return c
}

func newProviderClient(provider model.AuthProvider, cfg ProviderConfig) *providerClient {
	var (
		endpoint oauth2.Endpoint
		scopes   []string
		pc       = &providerClient{userInfoURL: cfg.UserInfoURL, apiBase: cfg.APIBase}
	)
	switch provider {
	case model.ProviderGoogle:
		endpoint = endpoints.Google
		scopes = []string{"openid", "email", "profile"}
		if pc.userInfoURL == "" {
			pc.userInfoURL = googleUserInfoURL
		}
	case model.ProviderGitHub:
		endpoint = endpoints.GitHub
		scopes = []string{"read:user", "user:email"}
		if pc.apiBase == "" {
			pc.apiBase = githubAPIBase
		}
		if pc.userInfoURL == "" {
			pc.userInfoURL = pc.apiBase + "/user"
		}
	default:
		return nil
	}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	if len(cfg.Scopes) > 0 {
		scopes = cfg.Scopes
	}
	pc.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
	return pc
}

// Providers 返回已启用的登录方式
func (c *Client) Providers() []model.AuthProvider {
	list := make([]model.AuthProvider, 0, len(c.providers))
	for _, p := range []model.AuthProvider{model.ProviderGoogle, model.ProviderGitHub} {
		if _, ok := c.providers[p]; ok {
			list = append(list, p)
		}
	}
	return list
}

// AuthCodeURL 返回第三方授权页地址
func (c *Client) AuthCodeURL(provider model.AuthProvider, state string) (string, error) {
	pc, err := c.get(provider)
	if err != nil {
		return "", err
	}
	return pc.oauth.AuthCodeURL(state), nil
}

// FetchProfile 用授权码换取访问令牌，拉取用户资料并规整为 Profile
func (c *Client) FetchProfile(ctx context.Context, provider model.AuthProvider, code string) (*Profile, error) {
	pc, err := c.get(provider)
	if err != nil {
		return nil, err
	}

	token, err := pc.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: 授权码换取令牌失败: %v", errs.ErrUnauthorized, err)
	}
	httpClient := pc.oauth.Client(ctx, token)

	attrs, err := fetchAttributes(ctx, httpClient, pc.userInfoURL)
	if err != nil {
		return nil, err
	}

	var emails EmailLister
	if provider == model.ProviderGitHub {
		emails = NewGitHubEmailClient(httpClient, pc.apiBase)
	}
	return Extract(ctx, provider, attrs, emails)
}

func (c *Client) get(provider model.AuthProvider) (*providerClient, error) {
	pc, ok := c.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s 未配置", errs.ErrUnsupportedProvider, provider)
	}
	return pc, nil
}

func fetchAttributes(ctx context.Context, httpClient *http.Client, url string) (Attributes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取用户资料失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("用户资料接口返回 %d", resp.StatusCode)
	}

	attrs := Attributes{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("解析用户资料失败: %w", err)
	}
	return attrs, nil
}
