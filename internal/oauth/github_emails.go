package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GitHubEmail GitHub /user/emails 接口返回的单条邮箱
type GitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// EmailLister 查询已授权账号下的邮箱列表
type EmailLister interface {
	ListEmails(ctx context.Context) ([]GitHubEmail, error)
}

// GitHubEmailClient 调用 GitHub 邮箱列表接口，httpClient 需要自带 Bearer 授权（oauth2.Config.Client）
type GitHubEmailClient struct {
	httpClient *http.Client
	apiBase    string
}

// NewGitHubEmailClient 创建邮箱查询客户端，apiBase 为空时使用 https://api.github.com
func NewGitHubEmailClient(httpClient *http.Client, apiBase string) *GitHubEmailClient {
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	return &GitHubEmailClient{httpClient: httpClient, apiBase: strings.TrimRight(apiBase, "/")}
}

// ListEmails 获取邮箱列表
func (c *GitHubEmailClient) ListEmails(ctx context.Context) ([]GitHubEmail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/user/emails", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub 邮箱接口返回 %d", resp.StatusCode)
	}

	var emails []GitHubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return nil, fmt.Errorf("解析 GitHub 邮箱列表失败: %w", err)
	}
	return emails, nil
}

// SelectEmail 依次选择：主邮箱且已验证、任意已验证邮箱、第一个邮箱
func SelectEmail(emails []GitHubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified && e.Email != "" {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified && e.Email != "" {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}
