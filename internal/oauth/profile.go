// Package oauth 处理第三方登录：授权码换取令牌、拉取用户资料并规整为统一格式
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"
)

// Profile 各个第三方返回资料规整后的统一格式
type Profile struct {
	ExternalID  string
	DisplayName string
	Email       string
	AvatarURL   string
}

// Attributes 第三方返回的原始用户资料
type Attributes map[string]any

// ParseProvider 解析路由中的登录方式，只接受 google 和 github
func ParseProvider(tag string) (model.AuthProvider, error) {
	switch model.AuthProvider(strings.ToUpper(strings.TrimSpace(tag))) {
	case model.ProviderGoogle:
		return model.ProviderGoogle, nil
	case model.ProviderGitHub:
		return model.ProviderGitHub, nil
	}
	return "", fmt.Errorf("%w: %s", errs.ErrUnsupportedProvider, tag)
}

// Tag 登录方式在路由中使用的小写名称
func Tag(provider model.AuthProvider) string {
	return strings.ToLower(string(provider))
}

// Extract 按登录方式规整原始资料
//
// GitHub 的主资料里可能没有邮箱，此时通过 emails 查询账号下的邮箱列表；emails 为 nil 时跳过。
func Extract(ctx context.Context, provider model.AuthProvider, attrs Attributes, emails EmailLister) (*Profile, error) {
	var (
		profile *Profile
		err     error
	)
	switch provider {
	case model.ProviderGoogle:
		profile = extractGoogle(attrs)
	case model.ProviderGitHub:
		profile, err = extractGitHub(ctx, attrs, emails)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedProvider, provider)
	}
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: 缺少邮箱地址", errs.ErrInvalidProfile)
	}
	return profile, nil
}

func extractGoogle(attrs Attributes) *Profile {
	return &Profile{
		ExternalID:  attrs.String("sub"),
		DisplayName: attrs.String("name"),
		Email:       attrs.String("email"),
		AvatarURL:   attrs.String("picture"),
	}
}

func extractGitHub(ctx context.Context, attrs Attributes, emails EmailLister) (*Profile, error) {
	name := attrs.String("name")
	if name == "" {
		name = attrs.String("login")
	}
	profile := &Profile{
		ExternalID:  attrs.String("id"),
		DisplayName: name,
		Email:       attrs.String("email"),
		AvatarURL:   attrs.String("avatar_url"),
	}
	if profile.Email == "" && emails != nil {
		list, err := emails.ListEmails(ctx)
		if err != nil {
			// 查询失败按缺少邮箱处理
			return nil, fmt.Errorf("%w: 查询 GitHub 邮箱失败: %w", errs.ErrInvalidProfile, err)
		}
		profile.Email = SelectEmail(list)
	}
	return profile, nil
}

// String 读取字符串字段，数字按十进制整数输出，缺失或 null 返回空串
func (a Attributes) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}
