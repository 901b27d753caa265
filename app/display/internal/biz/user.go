package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/iWorld-y/intel_radar/app/display/internal/conf"
)

// User 用户实体
type User struct {
	ID           int
	Username     string
	PasswordHash string
	// Organization 用户默认关注的组织，为空表示查看全部
	Organization string
}

// UserRepo 用户仓库接口
type UserRepo interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUserOrganization(ctx context.Context, id int, organization string) error
}

// UserUseCase 用户业务逻辑
type UserUseCase struct {
	repo   UserRepo
	log    *log.Helper
	jwtKey string
}

// NewUserUseCase 创建用户业务逻辑实例
func NewUserUseCase(repo UserRepo, auth *conf.Auth, logger log.Logger) *UserUseCase {
	jwtKey := "default-secret"
	if auth != nil && auth.JwtKey != "" {
		jwtKey = auth.JwtKey
	}
	return &UserUseCase{
		repo:   repo,
		log:    log.NewHelper(logger),
		jwtKey: jwtKey,
	}
}

// Register 用户注册
func (uc *UserUseCase) Register(ctx context.Context, username, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := &User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	return uc.repo.CreateUser(ctx, u)
}

// Login 用户登录，返回 JWT Token
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (string, error) {
	u, err := uc.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		return "", errors.Unauthorized("AUTH_FAILED", "invalid password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": u.Username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})

	return token.SignedString([]byte(uc.jwtKey))
}

// GetProfile 获取用户信息
func (uc *UserUseCase) GetProfile(ctx context.Context, username string) (*User, error) {
	return uc.repo.GetUserByUsername(ctx, username)
}

// UpdateProfile 更新用户关注的组织
func (uc *UserUseCase) UpdateProfile(ctx context.Context, username, organization string) error {
	u, err := uc.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return uc.repo.UpdateUserOrganization(ctx, u.ID, organization)
}
