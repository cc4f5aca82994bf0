// Package identity 负责本地账号注册登录以及第三方账号的解析与绑定
package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"
	"shorturl-service/internal/oauth"
	"shorturl-service/internal/repository"

	"go.uber.org/zap"
)

const (
	// maxInsertAttempts 插入时遇到唯一约束冲突的最大重试次数
	maxInsertAttempts = 5
	// maxUsernameProbes 用户名追加数字后缀的最大探测次数
	maxUsernameProbes = 1000
	// maxBaseUsernameLen 给数字后缀留出空间，用户名列宽为 50
	maxBaseUsernameLen = 40
	fallbackUsername   = "user"
)

// Service 账号服务
type Service struct {
	users  repository.IdentityStore
	hasher PasswordHasher
	logger *zap.SugaredLogger
}

// NewService 创建账号服务，hasher 为 nil 时使用 bcrypt
func NewService(users repository.IdentityStore, hasher PasswordHasher, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{users: users, hasher: hasher, logger: logger.Named("identity")}
}

// Resolve 把第三方资料解析为本地用户
//
//  1. 按邮箱查找已有用户
//  2. 已有用户的登录方式不同则拒绝，不合并账号
//  3. 登录方式相同则刷新昵称和头像
//  4. 不存在则创建新用户，用户名由昵称派生
//
// 并发首次登录导致邮箱或用户名唯一约束冲突时，从第 1 步重新开始。
func (s *Service) Resolve(ctx context.Context, provider model.AuthProvider, profile *oauth.Profile) (*model.User, error) {
	if profile == nil || profile.Email == "" {
		return nil, fmt.Errorf("%w: 缺少邮箱地址", errs.ErrInvalidProfile)
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		user, err := s.users.FindByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			if user.AuthProvider != provider {
				return nil, fmt.Errorf("%w: 该邮箱已通过 %s 注册，请使用 %s 登录",
					errs.ErrProviderConflict, user.AuthProvider, user.AuthProvider)
			}
			return s.refresh(ctx, user, profile)
		case !errs.IsNotFound(err):
			return nil, err
		}

		user, err = s.register(ctx, provider, profile)
		if err == nil {
			return user, nil
		}
		if !errs.IsDuplicate(err) {
			return nil, err
		}
		s.logger.Warnf("第三方用户注册冲突，重试 (%d/%d): %v", attempt+1, maxInsertAttempts, err)
	}
	return nil, errs.ErrGenerationExhausted
}

func (s *Service) refresh(ctx context.Context, user *model.User, profile *oauth.Profile) (*model.User, error) {
	if user.DisplayName == profile.DisplayName && user.ImageURL == profile.AvatarURL {
		return user, nil
	}
	user.DisplayName = profile.DisplayName
	user.ImageURL = profile.AvatarURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) register(ctx context.Context, provider model.AuthProvider, profile *oauth.Profile) (*model.User, error) {
	username, err := s.uniqueUsername(ctx, profile.DisplayName)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     username,
		Email:        profile.Email,
		DisplayName:  profile.DisplayName,
		Role:         model.RoleUser,
		AuthProvider: provider,
		ProviderID:   profile.ExternalID,
		ImageURL:     profile.AvatarURL,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Infof("新建 %s 用户: %s", provider, username)
	return user, nil
}

// uniqueUsername 去掉昵称中的非字母数字并转小写，被占用时依次追加 1、2、3...
func (s *Service) uniqueUsername(ctx context.Context, displayName string) (string, error) {
	base := BaseUsername(displayName)
	candidate := base
	for i := 1; i <= maxUsernameProbes; i++ {
		exists, err := s.users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return "", fmt.Errorf("%w: 用户名 %s", errs.ErrGenerationExhausted, base)
}

// BaseUsername 由昵称派生用户名前缀
func BaseUsername(displayName string) string {
	var b strings.Builder
	for _, r := range displayName {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
			if b.Len() == maxBaseUsernameLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallbackUsername
	}
	return b.String()
}

// RegisterLocal 用户名密码注册
func (s *Service) RegisterLocal(ctx context.Context, username, email, password string) (*model.User, error) {
	return s.createLocal(ctx, username, email, password, model.RoleUser)
}

// createLocal 校验唯一性后一次性写入本地账号，角色随插入写入
func (s *Service) createLocal(ctx context.Context, username, email, password, role string) (*model.User, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: 邮箱已存在", errs.ErrConflict)
	}
	exists, err = s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: 用户名已存在", errs.ErrConflict)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AuthProvider: model.ProviderLocal,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errs.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: 用户名或邮箱已存在", errs.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// AuthenticateLocal 用户名密码登录
func (s *Service) AuthenticateLocal(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: 用户 %s", errs.ErrNotFound, username)
		}
		return nil, err
	}
	if !user.IsLocal() {
		return nil, fmt.Errorf("%w: 该账号通过 %s 注册，请使用 %s 登录",
			errs.ErrProviderConflict, user.AuthProvider, user.AuthProvider)
	}
	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	return user, nil
}

// EnsureAdmin 不存在时创建管理员账号
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil || exists {
		return err
	}
	_, err = s.createLocal(ctx, username, email, password, model.RoleAdmin)
	return err
}

// FindByID 按 id 查找用户
func (s *Service) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}
