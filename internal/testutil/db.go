// Package testutil 测试共用的数据库工具
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"shorturl-service/internal/model"
	"shorturl-service/internal/repository"
	"shorturl-service/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB 为每个测试创建一个独立的内存数据库，只开一个连接以串行化写操作
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)

	db, err := gorm.Open(sqlite.Open(dsn), database.Config())
	require.NoError(t, err, "无法连接到内存数据库")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...), "数据库迁移失败")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// NewStore 返回基于内存数据库的 repository.Store
func NewStore(t testing.TB) *repository.Store {
	return repository.New(NewDB(t))
}

// CreateUser 直接写入一个本地用户
func CreateUser(t testing.TB, store *repository.Store, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleUser,
		AuthProvider: model.ProviderLocal,
	}
	require.NoError(t, store.Users().Insert(t.Context(), u))
	return u
}
