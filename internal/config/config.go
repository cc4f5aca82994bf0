package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 主配置结构 - 简化命名
type Config struct {
	App       App    `yaml:"app"`
	Server    Server `yaml:"server"`
	Database  DB     `yaml:"database"`
	Cache     Cache  `yaml:"cache"`
	Auth      Auth   `yaml:"auth"`
	OAuth2    OAuth2 `yaml:"oauth2"`
	RateLimit Limit  `yaml:"rate_limit"`
	Log       Log    `yaml:"log"`
}

// 应用配置
type App struct {
	Name     string `yaml:"name"`
	Mode     string `yaml:"mode"`
	Version  string `yaml:"version"`
	Timezone string `yaml:"timezone"` // 按天统计点击使用的时区，默认 Local
	BaseURL  string `yaml:"base_url"` // 拼接短链接地址，如 http://localhost:8080
}

// 服务器配置
type Server struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// 数据库配置
type DB struct {
	Driver   string `yaml:"driver"` // mysql | postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Path     string `yaml:"path"` // sqlite 文件路径
}

// 缓存配置（Redis），Host 为空时不启用
type Cache struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret"`
	Issuer          string `yaml:"issuer"`
	ExpirationHours int    `yaml:"expiration_hours"`
	Admin           Admin  `yaml:"admin"`
}

// 启动时创建的管理员账号，Username 为空时跳过
type Admin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// 第三方登录配置
type OAuth2 struct {
	AuthorizedRedirectURI string   `yaml:"authorized_redirect_uri"`
	Google                Provider `yaml:"google"`
	GitHub                Provider `yaml:"github"`
}

// 单个第三方，ClientID 为空时不启用
type Provider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// 限流配置
type Limit struct {
	Enabled   bool     `yaml:"enabled"`
	Requests  int64    `yaml:"requests_per_minute"`
	Burst     int64    `yaml:"burst"`
	SkipPaths []string `yaml:"skip_paths"`
}

// 日志配置
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// 加载配置，.env 和环境变量中的密钥覆盖配置文件
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML 并填充默认值
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Auth.Secret, "JWT_SECRET")
	override(&c.Database.Password, "DB_PASSWORD")
	override(&c.Cache.Password, "REDIS_PASSWORD")
	override(&c.OAuth2.Google.ClientID, "GOOGLE_CLIENT_ID")
	override(&c.OAuth2.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	override(&c.OAuth2.GitHub.ClientID, "GITHUB_CLIENT_ID")
	override(&c.OAuth2.GitHub.ClientSecret, "GITHUB_CLIENT_SECRET")
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shorturl-service"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10
	}
	if c.App.BaseURL == "" {
		c.App.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.App.BaseURL = strings.TrimRight(c.App.BaseURL, "/")
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 60
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.App.Name
	}
	if c.Auth.ExpirationHours == 0 {
		c.Auth.ExpirationHours = 24
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 60
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = c.RateLimit.Requests
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "./logs/app.log"
	}
}

// Location 统计使用的参考时区
func (c *Config) Location() (*time.Location, error) {
	switch c.App.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(c.App.Timezone)
		if err != nil {
			return nil, fmt.Errorf("无效的时区 %q: %w", c.App.Timezone, err)
		}
		return loc, nil
	}
}

// CacheTTL 短链接缓存有效期
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
