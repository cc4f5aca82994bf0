package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "shorturl-service/docs"
	"shorturl-service/internal/analytics"
	"shorturl-service/internal/config"
	"shorturl-service/internal/handler"
	"shorturl-service/internal/identity"
	"shorturl-service/internal/middleware"
	"shorturl-service/internal/model"
	"shorturl-service/internal/oauth"
	"shorturl-service/internal/repository"
	"shorturl-service/internal/shortcode"
	"shorturl-service/internal/shortener"
	"shorturl-service/pkg/database"
	auth "shorturl-service/pkg/jwt"
	"shorturl-service/pkg/logger"
	"shorturl-service/pkg/redis"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title 短链接服务 API
// @version 1.0
// @description 短链接创建、跳转、点击统计，支持本地账号与 Google/GitHub 登录。
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := "configs/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Println("配置加载失败:", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		fmt.Println("日志初始化失败:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Logger.Sync()
	}()
	sugaredLogger := zap.S()

	loc, err := cfg.Location()
	if err != nil {
		sugaredLogger.Fatalf("时区配置错误: %v", err)
	}

	db, err := database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		Charset:  cfg.Database.Charset,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Infof("✅ 数据库连接成功 (%s)", cfg.Database.Driver)

	store := repository.New(db)
	if err := store.Migrate(); err != nil {
		sugaredLogger.Fatalf("数据库迁移失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库迁移成功")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redis.NewClient(ctx, &redis.Config{
		Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
	})
	if err != nil {
		// 缓存不可用时直接读数据库
		sugaredLogger.Warnf("缓存连接失败: %v", err)
		rdb = nil
	} else if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
			}
		}()
		sugaredLogger.Info("✅ 缓存连接成功")
	}

	generator := shortcode.NewGenerator(store.Mappings(), nil, sugaredLogger)
	clicks := analytics.NewAggregator(store, loc, sugaredLogger)
	links := shortener.NewService(store, generator, clicks, rdb, cfg.CacheTTL(), sugaredLogger)
	users := identity.NewService(store.Users(), identity.BcryptHasher{}, sugaredLogger)
	providers := oauth.NewClient(map[model.AuthProvider]oauth.ProviderConfig{
		model.ProviderGoogle: {
			ClientID:     cfg.OAuth2.Google.ClientID,
			ClientSecret: cfg.OAuth2.Google.ClientSecret,
			RedirectURL:  cfg.OAuth2.Google.RedirectURL,
		},
		model.ProviderGitHub: {
			ClientID:     cfg.OAuth2.GitHub.ClientID,
			ClientSecret: cfg.OAuth2.GitHub.ClientSecret,
			RedirectURL:  cfg.OAuth2.GitHub.RedirectURL,
		},
	})
	sugaredLogger.Infof("✅ 第三方登录已启用: %v", providers.Providers())

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)
	sugaredLogger.Info("✅ 认证管理器初始化成功")

	if admin := cfg.Auth.Admin; admin.Username != "" {
		if err := users.EnsureAdmin(ctx, admin.Username, admin.Email, admin.Password); err != nil {
			sugaredLogger.Errorf("创建管理员失败: %v", err)
		} else {
			sugaredLogger.Infof("✅ 管理员账号就绪: %s", admin.Username)
		}
	}

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.RateLimit(rdb, &cfg.RateLimit))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler.RegisterRoutes(router,
		handler.NewShortLinkHandler(links, clicks, users, cfg.App.BaseURL),
		handler.NewAuthHandler(users, providers, tokenManager, cfg.OAuth2.AuthorizedRedirectURI),
		middleware.AuthMiddleware(tokenManager),
		middleware.AdminMiddleware(),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 %s", cfg.App.BaseURL)
		sugaredLogger.Infof("📚 Swagger 文档地址: %s/swagger/index.html", cfg.App.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	sugaredLogger.Info("🛑 正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugaredLogger.Errorf("服务关闭失败: %v", err)
	}
}
